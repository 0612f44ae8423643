/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that each scenario correctly sets up the expected state:
	- Inventory and guests are created
	- Bookings land in the right status with the right folio entries
	- POS orders and historical charges are generated correctly

These tests double as integration tests for the wiring between the
manager, ledger, bridge, and store.
*/
package api

import (
	"context"
	"testing"

	"github.com/kalongo/folio-engine/availability"
	"github.com/kalongo/folio-engine/hotel"
	"github.com/kalongo/folio-engine/pos"
	"github.com/kalongo/folio-engine/revenue"
	"github.com/kalongo/folio-engine/store/sqlite"
)

func setupTestHandler(t *testing.T) *Handler {
	t.Helper()

	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	manager := hotel.NewManager(store, availability.NewIndex(), nil)
	ledger := hotel.NewLedger(store)
	bridge := pos.NewBridge(store)
	reports := revenue.NewAggregator(store)

	return NewHandler(store, manager, ledger, bridge, reports)
}

func TestScenario_FrontDesk(t *testing.T) {
	// GIVEN: The front-desk scenario
	// WHEN: Loading it
	// THEN: One confirmed booking, one pending hold, empty folios

	handler := setupTestHandler(t)
	ctx := context.Background()

	if err := handler.loadFrontDeskScenario(ctx); err != nil {
		t.Fatalf("Failed to load front-desk scenario: %v", err)
	}

	bookings, err := handler.Store.ListBookings(ctx)
	if err != nil {
		t.Fatalf("Failed to list bookings: %v", err)
	}
	if len(bookings) != 2 {
		t.Fatalf("Expected 2 bookings, got %d", len(bookings))
	}

	statuses := map[hotel.BookingStatus]int{}
	for _, b := range bookings {
		statuses[b.Status]++
	}
	if statuses[hotel.BookingConfirmed] != 1 || statuses[hotel.BookingPending] != 1 {
		t.Errorf("Expected 1 confirmed + 1 pending, got %v", statuses)
	}

	rooms, err := handler.Store.ListRooms(ctx)
	if err != nil {
		t.Fatalf("Failed to list rooms: %v", err)
	}
	if len(rooms) != 3 {
		t.Errorf("Expected 3 rooms, got %d", len(rooms))
	}
}

func TestScenario_InHouseStay(t *testing.T) {
	// GIVEN: The in-house-stay scenario
	// WHEN: Loading it
	// THEN: Checked-in booking with a room charge and a partial payment

	handler := setupTestHandler(t)
	ctx := context.Background()

	booking, err := handler.loadInHouseStayScenario(ctx)
	if err != nil {
		t.Fatalf("Failed to load in-house-stay scenario: %v", err)
	}
	if booking.Status != hotel.BookingCheckedIn {
		t.Errorf("Expected checked-in booking, got %q", booking.Status)
	}

	folio, err := handler.Store.GetFolioByBooking(ctx, booking.ID)
	if err != nil || folio == nil {
		t.Fatalf("Expected a folio for the stay, got %v / %v", folio, err)
	}

	totals, err := handler.Ledger.Totals(ctx, folio.ID)
	if err != nil {
		t.Fatalf("Failed to compute totals: %v", err)
	}
	// 2 nights x 50000 + 18% VAT = 118000, less the 60000 payment
	if totals.TotalCharges.String() != "118000" {
		t.Errorf("Expected charges '118000', got %q", totals.TotalCharges.String())
	}
	if totals.Balance.String() != "58000" {
		t.Errorf("Expected outstanding balance '58000', got %q", totals.Balance.String())
	}

	room, err := handler.Store.GetRoom(ctx, booking.RoomID)
	if err != nil || room == nil {
		t.Fatalf("Failed to get room: %v", err)
	}
	if room.Status != hotel.RoomOccupied {
		t.Errorf("Expected room occupied, got %q", room.Status)
	}
}

func TestScenario_RestaurantNight(t *testing.T) {
	// GIVEN: The restaurant-night scenario
	// WHEN: Loading it
	// THEN: A dinner order on the folio and a served, paid bar order

	handler := setupTestHandler(t)
	ctx := context.Background()

	if err := handler.loadRestaurantNightScenario(ctx); err != nil {
		t.Fatalf("Failed to load restaurant-night scenario: %v", err)
	}

	orders, err := handler.Store.ListOrders(ctx, "", "")
	if err != nil {
		t.Fatalf("Failed to list orders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("Expected 2 orders, got %d", len(orders))
	}

	var dinner, bar *pos.Order
	for i := range orders {
		switch orders[i].Sector {
		case hotel.SectorRestaurant:
			dinner = &orders[i]
		case hotel.SectorBar:
			bar = &orders[i]
		}
	}
	if dinner == nil || bar == nil {
		t.Fatalf("Expected one restaurant and one bar order, got %+v", orders)
	}

	if dinner.Intent != pos.IntentPostToRoom || dinner.ChargeID == "" {
		t.Errorf("Expected dinner posted to the room, got %+v", dinner)
	}
	charge, err := handler.Store.GetCharge(ctx, dinner.ChargeID)
	if err != nil || charge == nil {
		t.Fatalf("Failed to load dinner charge: %v", err)
	}
	if charge.FolioID == "" {
		t.Error("Expected the dinner charge on a folio")
	}

	if bar.Intent != pos.IntentPayNow || bar.PaymentID == "" {
		t.Errorf("Expected bar order paid at the till, got %+v", bar)
	}
	if bar.Status != pos.OrderServed {
		t.Errorf("Expected bar order served, got %q", bar.Status)
	}
}

func TestScenario_MonthEnd(t *testing.T) {
	// GIVEN: The month-end scenario
	// WHEN: Loading it
	// THEN: Historical charges feed the revenue report and one folio owes a refund

	handler := setupTestHandler(t)
	ctx := context.Background()

	if err := handler.loadMonthEndScenario(ctx); err != nil {
		t.Fatalf("Failed to load month-end scenario: %v", err)
	}

	refunds, err := handler.Reports.RefundsOwed(ctx)
	if err != nil {
		t.Fatalf("Failed to compute refunds: %v", err)
	}
	if len(refunds) != 1 {
		t.Fatalf("Expected 1 refund owed, got %d", len(refunds))
	}
	// 75000 paid against a 59000 gross night
	if refunds[0].Amount.String() != "16000" {
		t.Errorf("Expected refund '16000', got %q", refunds[0].Amount.String())
	}
}

func TestScenario_LoadResetsPreviousState(t *testing.T) {
	// GIVEN: The restaurant-night scenario loaded
	// WHEN: Loading front-desk afterwards
	// THEN: No orders survive the reset

	handler := setupTestHandler(t)
	ctx := context.Background()

	if err := handler.loadRestaurantNightScenario(ctx); err != nil {
		t.Fatalf("Failed to load restaurant-night scenario: %v", err)
	}
	if err := handler.Store.Reset(ctx); err != nil {
		t.Fatalf("Failed to reset: %v", err)
	}
	if err := handler.loadFrontDeskScenario(ctx); err != nil {
		t.Fatalf("Failed to load front-desk scenario: %v", err)
	}

	orders, err := handler.Store.ListOrders(ctx, "", "")
	if err != nil {
		t.Fatalf("Failed to list orders: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("Expected no orders after reset, got %d", len(orders))
	}
}
