/*
handlers_test.go - HTTP-level tests for the API

Drives the full router via httptest: JSON in, JSON out, real SQLite
store underneath. Covers the front-desk happy path, folio postings,
POS orders, settings, and the error-status mapping.
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// do runs a request against the router and returns the recorder.
func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// decodeBody parses the recorder's JSON body into dst.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
}

// seedFrontDesk creates a room type, a room, and a guest over the API
// and returns their IDs.
func seedFrontDesk(t *testing.T, router http.Handler) (roomID, guestID string) {
	t.Helper()

	rec := do(t, router, http.MethodPost, "/api/room-types", CreateRoomTypeRequest{
		Name:              "Standard",
		BasePricePerNight: "50000",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 creating room type, got %d: %s", rec.Code, rec.Body.String())
	}
	var rt RoomTypeDTO
	decodeBody(t, rec, &rt)

	rec = do(t, router, http.MethodPost, "/api/rooms", CreateRoomRequest{
		RoomTypeID: rt.ID,
		Number:     "101",
		Floor:      "1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 creating room, got %d: %s", rec.Code, rec.Body.String())
	}
	var room RoomDTO
	decodeBody(t, rec, &room)

	rec = do(t, router, http.MethodPost, "/api/guests", CreateGuestRequest{
		FullName: "Amina Hassan",
		Email:    "amina@example.com",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 creating guest, got %d: %s", rec.Code, rec.Body.String())
	}
	var guest GuestDTO
	decodeBody(t, rec, &guest)

	return room.ID, guest.ID
}

// bookStay creates a booking over the API and returns it with its folio.
func bookStay(t *testing.T, router http.Handler, roomID, guestID string, nightsFromNow, nights int) BookingResponse {
	t.Helper()

	checkIn := time.Now().UTC().AddDate(0, 0, nightsFromNow)
	rec := do(t, router, http.MethodPost, "/api/bookings", CreateBookingRequest{
		GuestID:  guestID,
		RoomID:   roomID,
		CheckIn:  checkIn.Format("2006-01-02"),
		CheckOut: checkIn.AddDate(0, 0, nights).Format("2006-01-02"),
		Source:   "online",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 creating booking, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp BookingResponse
	decodeBody(t, rec, &resp)
	return resp
}

func TestAPI_BookingLifecycle(t *testing.T) {
	// GIVEN: A room and a guest created over the API
	// WHEN: Booking, checking in, charging, paying, and checking out
	// THEN: Every step responds with the expected state

	handler := setupTestHandler(t)
	router := NewRouter(handler)
	roomID, guestID := seedFrontDesk(t, router)

	booking := bookStay(t, router, roomID, guestID, 0, 2)
	if booking.Booking.Status != "confirmed" {
		t.Errorf("Expected booking status 'confirmed', got %q", booking.Booking.Status)
	}
	if booking.Folio == nil || booking.Folio.Status != "open" {
		t.Fatalf("Expected an open folio on the new booking, got %+v", booking.Folio)
	}

	// Check in
	rec := do(t, router, http.MethodPost, "/api/bookings/"+booking.Booking.ID+"/check-in", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on check-in, got %d: %s", rec.Code, rec.Body.String())
	}

	// Charge both room nights
	rec = do(t, router, http.MethodPost, "/api/folios/"+booking.Folio.ID+"/charges", AddChargeRequest{
		Sector:      "rooms",
		Description: "Room 101 - Standard, 2 nights",
		Quantity:    2,
		UnitPrice:   "50000",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 adding charge, got %d: %s", rec.Code, rec.Body.String())
	}
	var charge ChargeDTO
	decodeBody(t, rec, &charge)
	if charge.Gross != "100000" {
		t.Errorf("Expected gross '100000' with no tax configured, got %q", charge.Gross)
	}

	// Pay in full
	rec = do(t, router, http.MethodPost, "/api/folios/"+booking.Folio.ID+"/payments", AddPaymentRequest{
		Amount: "100000",
		Method: "mpesa",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 adding payment, got %d: %s", rec.Code, rec.Body.String())
	}
	var payment PaymentResponse
	decodeBody(t, rec, &payment)
	if !payment.Settled {
		t.Errorf("Expected full payment to settle the folio, balance %q", payment.Balance)
	}
	if payment.Receipt.Number == "" {
		t.Error("Expected a receipt number on the payment response")
	}

	// Check out
	rec = do(t, router, http.MethodPost, "/api/bookings/"+booking.Booking.ID+"/check-out", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on check-out, got %d: %s", rec.Code, rec.Body.String())
	}

	// Folio detail shows the settled ledger
	rec = do(t, router, http.MethodGet, "/api/folios/"+booking.Folio.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on folio detail, got %d: %s", rec.Code, rec.Body.String())
	}
	var detail FolioDetailResponse
	decodeBody(t, rec, &detail)
	if detail.Folio.Status != "settled" {
		t.Errorf("Expected folio status 'settled', got %q", detail.Folio.Status)
	}
	if detail.Totals.Balance != "0" {
		t.Errorf("Expected zero balance, got %q", detail.Totals.Balance)
	}
	if len(detail.Charges) != 1 || len(detail.Payments) != 1 {
		t.Errorf("Expected 1 charge and 1 payment, got %d and %d", len(detail.Charges), len(detail.Payments))
	}
}

func TestAPI_DoubleBookingConflict(t *testing.T) {
	// GIVEN: A confirmed booking for room 101
	// WHEN: A second guest books an overlapping stay
	// THEN: The API responds 409

	handler := setupTestHandler(t)
	router := NewRouter(handler)
	roomID, guestID := seedFrontDesk(t, router)
	bookStay(t, router, roomID, guestID, 3, 2)

	checkIn := time.Now().UTC().AddDate(0, 0, 4)
	rec := do(t, router, http.MethodPost, "/api/bookings", CreateBookingRequest{
		GuestID:  guestID,
		RoomID:   roomID,
		CheckIn:  checkIn.Format("2006-01-02"),
		CheckOut: checkIn.AddDate(0, 0, 2).Format("2006-01-02"),
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409 on overlapping booking, got %d: %s", rec.Code, rec.Body.String())
	}
	var errResp ErrorResponse
	decodeBody(t, rec, &errResp)
	if errResp.Error == "" {
		t.Error("Expected an error message in the conflict response")
	}
}

func TestAPI_ValidationErrors(t *testing.T) {
	handler := setupTestHandler(t)
	router := NewRouter(handler)
	roomID, guestID := seedFrontDesk(t, router)

	cases := []struct {
		name string
		body CreateBookingRequest
	}{
		{"missing guest", CreateBookingRequest{RoomID: roomID, CheckIn: "2030-01-01", CheckOut: "2030-01-03"}},
		{"bad date format", CreateBookingRequest{GuestID: guestID, RoomID: roomID, CheckIn: "01/01/2030", CheckOut: "2030-01-03"}},
		{"bad source", CreateBookingRequest{GuestID: guestID, RoomID: roomID, CheckIn: "2030-01-01", CheckOut: "2030-01-03", Source: "phone"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/bookings", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAPI_TaxSettingsAffectNewCharges(t *testing.T) {
	// GIVEN: 18% exclusive VAT configured over the API
	// WHEN: Posting a charge
	// THEN: The stored breakdown reflects the configured rate

	handler := setupTestHandler(t)
	router := NewRouter(handler)
	roomID, guestID := seedFrontDesk(t, router)

	rec := do(t, router, http.MethodPut, "/api/settings/tax", SetTaxConfigRequest{
		Enabled: true,
		Rate:    "0.18",
		Mode:    "exclusive",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 setting tax config, got %d: %s", rec.Code, rec.Body.String())
	}

	booking := bookStay(t, router, roomID, guestID, 0, 1)
	rec = do(t, router, http.MethodPost, "/api/folios/"+booking.Folio.ID+"/charges", AddChargeRequest{
		Sector:      "rooms",
		Description: "Room 101 - Standard, 1 night",
		Quantity:    1,
		UnitPrice:   "50000",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 adding charge, got %d: %s", rec.Code, rec.Body.String())
	}
	var charge ChargeDTO
	decodeBody(t, rec, &charge)
	if charge.Net != "50000" || charge.VAT != "9000" || charge.Gross != "59000" {
		t.Errorf("Expected 50000/9000/59000 breakdown, got %s/%s/%s", charge.Net, charge.VAT, charge.Gross)
	}

	// Settings round-trip
	rec = do(t, router, http.MethodGet, "/api/settings/tax", nil)
	var cfg TaxConfigDTO
	decodeBody(t, rec, &cfg)
	if !cfg.Enabled || cfg.Rate != "0.18" || cfg.Mode != "exclusive" {
		t.Errorf("Expected enabled 0.18 exclusive, got %+v", cfg)
	}
}

func TestAPI_POSOrderPostedToRoom(t *testing.T) {
	// GIVEN: A checked-in guest and a menu item
	// WHEN: A restaurant order is posted to the room
	// THEN: The folio carries the order's charge

	handler := setupTestHandler(t)
	router := NewRouter(handler)
	roomID, guestID := seedFrontDesk(t, router)
	booking := bookStay(t, router, roomID, guestID, 0, 2)

	rec := do(t, router, http.MethodPost, "/api/pos/menu-items", CreateMenuItemRequest{
		Sector: "restaurant",
		Name:   "Pilau ya Kuku",
		Price:  "15000",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 creating menu item, got %d: %s", rec.Code, rec.Body.String())
	}
	var item MenuItemDTO
	decodeBody(t, rec, &item)

	rec = do(t, router, http.MethodPost, "/api/pos/orders", CreateOrderRequest{
		Sector:    "restaurant",
		Intent:    "post_to_room",
		BookingID: booking.Booking.ID,
		Lines:     []OrderLineRequest{{MenuItemID: item.ID, Quantity: 2}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 posting order, got %d: %s", rec.Code, rec.Body.String())
	}
	var order OrderResponse
	decodeBody(t, rec, &order)
	if order.Charge == nil || order.Charge.FolioID != booking.Folio.ID {
		t.Fatalf("Expected the order's charge on folio %s, got %+v", booking.Folio.ID, order.Charge)
	}
	if order.Order.Total != "30000" {
		t.Errorf("Expected order total '30000', got %q", order.Order.Total)
	}

	// Kitchen moves the order forward
	rec = do(t, router, http.MethodPost, "/api/pos/orders/"+order.Order.ID+"/status", UpdateOrderStatusRequest{Status: "preparing"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 updating status, got %d: %s", rec.Code, rec.Body.String())
	}

	// Skipping a step is a conflict
	rec = do(t, router, http.MethodPost, "/api/pos/orders/"+order.Order.ID+"/status", UpdateOrderStatusRequest{Status: "served"})
	if rec.Code != http.StatusBadRequest && rec.Code != http.StatusConflict {
		t.Errorf("Expected 4xx on skipped kitchen step, got %d", rec.Code)
	}

	// Cancelling a posted order requires a reason and writes an offset
	rec = do(t, router, http.MethodPost, "/api/pos/orders/"+order.Order.ID+"/cancel", CancelOrderRequest{Reason: "guest changed mind"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 cancelling with offset, got %d: %s", rec.Code, rec.Body.String())
	}
	var cancelled OrderResponse
	decodeBody(t, rec, &cancelled)
	if cancelled.Charge == nil || cancelled.Charge.OffsetsID != order.Charge.ID {
		t.Errorf("Expected an offset charge against %s, got %+v", order.Charge.ID, cancelled.Charge)
	}
}

func TestAPI_OffsetChargeOnce(t *testing.T) {
	handler := setupTestHandler(t)
	router := NewRouter(handler)
	roomID, guestID := seedFrontDesk(t, router)
	booking := bookStay(t, router, roomID, guestID, 0, 1)

	rec := do(t, router, http.MethodPost, "/api/folios/"+booking.Folio.ID+"/charges", AddChargeRequest{
		Sector:      "bar",
		Description: "Minibar",
		Quantity:    1,
		UnitPrice:   "12000",
	})
	var charge ChargeDTO
	decodeBody(t, rec, &charge)

	rec = do(t, router, http.MethodPost, "/api/charges/"+charge.ID+"/offset", OffsetChargeRequest{Reason: "charged in error"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201 on offset, got %d: %s", rec.Code, rec.Body.String())
	}
	var offset ChargeDTO
	decodeBody(t, rec, &offset)
	if offset.Gross != "-12000" {
		t.Errorf("Expected offset gross '-12000', got %q", offset.Gross)
	}

	// Second offset of the same charge is a conflict
	rec = do(t, router, http.MethodPost, "/api/charges/"+charge.ID+"/offset", OffsetChargeRequest{Reason: "again"})
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 on double offset, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAPI_RevenueReport(t *testing.T) {
	// GIVEN: Charges posted today
	// WHEN: Querying the default revenue window
	// THEN: The summary includes today's lines

	handler := setupTestHandler(t)
	router := NewRouter(handler)
	roomID, guestID := seedFrontDesk(t, router)
	booking := bookStay(t, router, roomID, guestID, 0, 1)

	for i, sector := range []string{"rooms", "bar"} {
		rec := do(t, router, http.MethodPost, "/api/folios/"+booking.Folio.ID+"/charges", AddChargeRequest{
			Sector:      sector,
			Description: fmt.Sprintf("Charge %d", i+1),
			Quantity:    1,
			UnitPrice:   "10000",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("Expected 201 adding charge, got %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec := do(t, router, http.MethodGet, "/api/reports/revenue", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on revenue report, got %d: %s", rec.Code, rec.Body.String())
	}
	var summary RevenueSummaryDTO
	decodeBody(t, rec, &summary)
	if len(summary.Lines) != 2 {
		t.Fatalf("Expected 2 revenue lines, got %d", len(summary.Lines))
	}
	if summary.TotalGross != "20000" {
		t.Errorf("Expected total gross '20000', got %q", summary.TotalGross)
	}

	// Sector filter narrows the lines
	rec = do(t, router, http.MethodGet, "/api/reports/revenue?sector=bar", nil)
	decodeBody(t, rec, &summary)
	if len(summary.Lines) != 1 || summary.Lines[0].Sector != "bar" {
		t.Errorf("Expected a single bar line, got %+v", summary.Lines)
	}
}

func TestAPI_NotFoundStatuses(t *testing.T) {
	handler := setupTestHandler(t)
	router := NewRouter(handler)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/rooms/nope"},
		{http.MethodGet, "/api/guests/nope"},
		{http.MethodGet, "/api/bookings/nope"},
		{http.MethodGet, "/api/folios/nope"},
		{http.MethodGet, "/api/pos/orders/nope"},
	}
	for _, p := range paths {
		rec := do(t, router, p.method, p.path, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s: expected 404, got %d", p.method, p.path, rec.Code)
		}
	}
}
