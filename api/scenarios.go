/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates rooms, guests,
	bookings, folio entries, and POS orders that demonstrate specific
	features of the system.

AVAILABLE SCENARIOS:

	front-desk:       Confirmed booking + pending hold, empty folios
	in-house-stay:    Checked-in guest with room charges and partial payment
	restaurant-night: POS orders, one charged to the room, one paid at the till
	month-end:        A month of charges across sectors plus an overpaid folio

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Seed inventory (room types, rooms, guests) and the VAT config
 3. Drive the real domain services (manager, ledger, bridge) so the
    resulting state is exactly what production flows produce

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "in-house-stay"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
  - server.go: /api/scenarios routes
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kalongo/folio-engine/hotel"
	"github.com/kalongo/folio-engine/money"
	"github.com/kalongo/folio-engine/pos"
	"github.com/kalongo/folio-engine/tax"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "front-desk",
		Name:        "Front Desk",
		Description: "A confirmed booking and a pending hold, folios still empty",
		Category:    "bookings",
	},
	{
		ID:          "in-house-stay",
		Name:        "In-House Stay",
		Description: "Checked-in guest with room-night charges and a partial M-Pesa payment",
		Category:    "folio",
	},
	{
		ID:          "restaurant-night",
		Name:        "Restaurant Night",
		Description: "Dinner charged to the room plus a bar order paid at the till",
		Category:    "pos",
	},
	{
		ID:          "month-end",
		Name:        "Month End",
		Description: "A month of charges across sectors, plus an overpaid folio owing a refund",
		Category:    "reports",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	var err error
	switch req.ScenarioID {
	case "front-desk":
		err = h.loadFrontDeskScenario(ctx)
	case "in-house-stay":
		_, err = h.loadInHouseStayScenario(ctx)
	case "restaurant-night":
		err = h.loadRestaurantNightScenario(ctx)
	case "month-end":
		err = h.loadMonthEndScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SHARED SEED DATA
// =============================================================================

// seedInventory creates the shared room types, rooms, guests, and the
// 18% exclusive VAT config every scenario starts from.
func (h *Handler) seedInventory(ctx context.Context) error {
	cfg := tax.Config{Enabled: true, Rate: decimal.RequireFromString("0.18"), Mode: tax.ModeExclusive}
	if err := h.Store.SetTaxConfig(ctx, cfg); err != nil {
		return err
	}

	roomTypes := []hotel.RoomType{
		{ID: "rt-standard", Name: "Standard", BasePricePerNight: money.FromInt(50000), Active: true},
		{ID: "rt-deluxe", Name: "Deluxe Ocean View", BasePricePerNight: money.FromInt(85000), Active: true},
	}
	for _, rt := range roomTypes {
		if err := h.Store.SaveRoomType(ctx, rt); err != nil {
			return err
		}
	}

	rooms := []hotel.Room{
		{ID: "room-101", RoomTypeID: "rt-standard", Number: "101", Status: hotel.RoomVacant, Floor: "1"},
		{ID: "room-102", RoomTypeID: "rt-standard", Number: "102", Status: hotel.RoomVacant, Floor: "1"},
		{ID: "room-201", RoomTypeID: "rt-deluxe", Number: "201", Status: hotel.RoomVacant, Floor: "2"},
	}
	for _, room := range rooms {
		if err := h.Store.SaveRoom(ctx, room); err != nil {
			return err
		}
	}

	guests := []hotel.Guest{
		{ID: "guest-amina", FullName: "Amina Hassan", Email: "amina@example.com", Phone: "+255 754 000 111", CreatedAt: time.Now().UTC()},
		{ID: "guest-joseph", FullName: "Joseph Mwangi", Email: "joseph@example.com", Phone: "+254 722 000 222", CreatedAt: time.Now().UTC()},
		{ID: "guest-neema", FullName: "Neema Said", Email: "neema@example.com", CreatedAt: time.Now().UTC()},
	}
	for _, g := range guests {
		if err := h.Store.SaveGuest(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) seedMenu(ctx context.Context) error {
	items := []pos.MenuItem{
		{ID: "mi-ugali-fish", Sector: hotel.SectorRestaurant, Name: "Ugali & Grilled Fish", Category: "mains", Price: money.FromInt(18000), Available: true},
		{ID: "mi-pilau", Sector: hotel.SectorRestaurant, Name: "Pilau ya Kuku", Category: "mains", Price: money.FromInt(15000), Available: true},
		{ID: "mi-juice", Sector: hotel.SectorRestaurant, Name: "Passion Juice", Category: "drinks", Price: money.FromInt(4000), Available: true},
		{ID: "mi-beer", Sector: hotel.SectorBar, Name: "Kilimanjaro Lager", Category: "drinks", Price: money.FromInt(5000), Available: true},
		{ID: "mi-soda", Sector: hotel.SectorBar, Name: "Stoney Tangawizi", Category: "drinks", Price: money.FromInt(2000), Available: true},
	}
	for _, item := range items {
		if err := h.Store.SaveMenuItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadFrontDeskScenario: one confirmed booking next week and one pending
// hold. Both folios exist but carry no entries yet.
func (h *Handler) loadFrontDeskScenario(ctx context.Context) error {
	if err := h.seedInventory(ctx); err != nil {
		return err
	}

	checkIn := time.Now().UTC().AddDate(0, 0, 7)
	_, _, err := h.Manager.Create(ctx, hotel.CreateBookingInput{
		GuestID:  "guest-amina",
		RoomID:   "room-101",
		CheckIn:  checkIn,
		CheckOut: checkIn.AddDate(0, 0, 3),
		Source:   hotel.SourceOnline,
	})
	if err != nil {
		return fmt.Errorf("create confirmed booking: %w", err)
	}

	holdCheckIn := time.Now().UTC().AddDate(0, 0, 14)
	_, err = h.Manager.CreateHold(ctx, hotel.CreateBookingInput{
		GuestID:         "guest-joseph",
		RoomID:          "room-201",
		CheckIn:         holdCheckIn,
		CheckOut:        holdCheckIn.AddDate(0, 0, 2),
		Source:          hotel.SourceOnline,
		SpecialRequests: "Late arrival, after 22:00",
	})
	if err != nil {
		return fmt.Errorf("create hold: %w", err)
	}
	return nil
}

// loadInHouseStayScenario: Amina is checked in for two nights, both room
// nights are charged, and half the bill is already paid via M-Pesa.
// Returns the booking so richer scenarios can build on the stay.
func (h *Handler) loadInHouseStayScenario(ctx context.Context) (*hotel.Booking, error) {
	if err := h.seedInventory(ctx); err != nil {
		return nil, err
	}

	checkIn := time.Now().UTC()
	booking, _, err := h.Manager.Create(ctx, hotel.CreateBookingInput{
		GuestID:  "guest-amina",
		RoomID:   "room-101",
		CheckIn:  checkIn,
		CheckOut: checkIn.AddDate(0, 0, 2),
		Source:   hotel.SourceWalkIn,
	})
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	if err := h.Manager.CheckIn(ctx, booking.ID); err != nil {
		return nil, fmt.Errorf("check in: %w", err)
	}

	folio, err := h.Store.GetFolioByBooking(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	cfg, err := h.Store.TaxConfig(ctx)
	if err != nil {
		return nil, err
	}
	_, err = h.Ledger.AddCharge(ctx, folio.ID, hotel.ChargeInput{
		Sector:      hotel.SectorRooms,
		Description: "Room 101 - Standard, 2 nights",
		Quantity:    2,
		UnitPrice:   money.FromInt(50000),
	}, cfg)
	if err != nil {
		return nil, fmt.Errorf("add room charge: %w", err)
	}

	_, _, err = h.Ledger.AddPayment(ctx, folio.ID, money.FromInt(60000), hotel.MethodMPesa, "MP-2404H7XK")
	if err != nil {
		return nil, fmt.Errorf("add payment: %w", err)
	}
	return booking, nil
}

// loadRestaurantNightScenario: the in-house stay plus a dinner posted to
// the room and a bar round settled at the till.
func (h *Handler) loadRestaurantNightScenario(ctx context.Context) error {
	booking, err := h.loadInHouseStayScenario(ctx)
	if err != nil {
		return err
	}
	if err := h.seedMenu(ctx); err != nil {
		return err
	}
	cfg, err := h.Store.TaxConfig(ctx)
	if err != nil {
		return err
	}

	// Dinner charged to room 101
	_, err = h.Bridge.PostOrder(ctx, pos.OrderInput{
		Sector: hotel.SectorRestaurant,
		Intent: pos.IntentPostToRoom,
		Lines: []pos.OrderLine{
			{MenuItemID: "mi-ugali-fish", Quantity: 1},
			{MenuItemID: "mi-pilau", Quantity: 1},
			{MenuItemID: "mi-juice", Quantity: 2},
		},
		BookingID: booking.ID,
	}, cfg)
	if err != nil {
		return fmt.Errorf("post dinner order: %w", err)
	}

	// Bar round paid in cash by a walk-in customer
	result, err := h.Bridge.PostOrder(ctx, pos.OrderInput{
		Sector: hotel.SectorBar,
		Intent: pos.IntentPayNow,
		Lines: []pos.OrderLine{
			{MenuItemID: "mi-beer", Quantity: 2},
			{MenuItemID: "mi-soda", Quantity: 1},
		},
		Method: hotel.MethodCash,
	}, cfg)
	if err != nil {
		return fmt.Errorf("post bar order: %w", err)
	}

	// The kitchen has already served the bar round
	if _, err := h.Bridge.UpdateStatus(ctx, result.Order.ID, pos.OrderPreparing); err != nil {
		return err
	}
	if _, err := h.Bridge.UpdateStatus(ctx, result.Order.ID, pos.OrderReady); err != nil {
		return err
	}
	_, err = h.Bridge.UpdateStatus(ctx, result.Order.ID, pos.OrderServed)
	return err
}

// loadMonthEndScenario: thirty days of charges across sectors for the
// revenue report, plus one overpaid folio for the refunds report.
func (h *Handler) loadMonthEndScenario(ctx context.Context) error {
	if err := h.seedInventory(ctx); err != nil {
		return err
	}
	cfg, err := h.Store.TaxConfig(ctx)
	if err != nil {
		return err
	}

	// Historical revenue: standalone charges with explicit posting dates,
	// the same shape pay-now POS sales leave behind.
	type sale struct {
		daysAgo int
		sector  hotel.Sector
		desc    string
		amount  int64
	}
	sales := []sale{
		{28, hotel.SectorRooms, "Room 201 - Deluxe, 3 nights", 255000},
		{28, hotel.SectorRestaurant, "Dinner service", 64000},
		{21, hotel.SectorRooms, "Room 102 - Standard, 1 night", 50000},
		{21, hotel.SectorBar, "Evening bar", 27000},
		{14, hotel.SectorRestaurant, "Lunch service", 38000},
		{14, hotel.SectorActivities, "Snorkeling trip x2", 90000},
		{7, hotel.SectorRooms, "Room 101 - Standard, 2 nights", 100000},
		{7, hotel.SectorHousekeeping, "Laundry", 8000},
		{2, hotel.SectorBar, "Evening bar", 19000},
	}
	for _, sl := range sales {
		amount := money.FromInt(sl.amount)
		bd := tax.Compute(amount, cfg)
		charge := hotel.Charge{
			ID:          uuid.NewString(),
			Sector:      sl.sector,
			Description: sl.desc,
			Quantity:    1,
			UnitPrice:   amount,
			Net:         bd.Net,
			VAT:         bd.VAT,
			Gross:       bd.Gross,
			PostedAt:    time.Now().UTC().AddDate(0, 0, -sl.daysAgo),
		}
		if err := h.Store.AppendCharge(ctx, charge); err != nil {
			return fmt.Errorf("append sale: %w", err)
		}
	}

	// Overpaid folio: Neema prepaid more than her one-night stay.
	checkIn := time.Now().UTC()
	booking, folio, err := h.Manager.Create(ctx, hotel.CreateBookingInput{
		GuestID:  "guest-neema",
		RoomID:   "room-102",
		CheckIn:  checkIn,
		CheckOut: checkIn.AddDate(0, 0, 1),
		Source:   hotel.SourceOnline,
	})
	if err != nil {
		return fmt.Errorf("create overpaid booking: %w", err)
	}
	if err := h.Manager.CheckIn(ctx, booking.ID); err != nil {
		return err
	}
	_, err = h.Ledger.AddCharge(ctx, folio.ID, hotel.ChargeInput{
		Sector:      hotel.SectorRooms,
		Description: "Room 102 - Standard, 1 night",
		Quantity:    1,
		UnitPrice:   money.FromInt(50000),
	}, cfg)
	if err != nil {
		return err
	}
	_, _, err = h.Ledger.AddPayment(ctx, folio.ID, money.FromInt(75000), hotel.MethodBankTransfer, "TRF-88214")
	return err
}
