/*
handlers.go - HTTP API handlers for the hospitality core

PURPOSE:
  Exposes the booking, folio, point-of-sale and reporting engines via
  REST. Handles HTTP request/response, JSON serialization, and delegates
  to domain logic.

REQUEST FLOW:
  1. Decode and validate input (go-playground/validator)
  2. Snapshot the tax configuration where a posting needs it
  3. Call domain logic (manager, ledger, bridge, aggregator)
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (double booking, illegal transition, closed folio)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kalongo/folio-engine/availability"
	"github.com/kalongo/folio-engine/hotel"
	"github.com/kalongo/folio-engine/money"
	"github.com/kalongo/folio-engine/pos"
	"github.com/kalongo/folio-engine/revenue"
	"github.com/kalongo/folio-engine/store/sqlite"
	"github.com/kalongo/folio-engine/tax"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Manager *hotel.Manager
	Ledger  *hotel.Ledger
	Bridge  *pos.Bridge
	Reports *revenue.Aggregator

	validate        *validator.Validate
	currentScenario string
}

// NewHandler wires the handler with its domain collaborators.
func NewHandler(store *sqlite.Store, manager *hotel.Manager, ledger *hotel.Ledger, bridge *pos.Bridge, reports *revenue.Aggregator) *Handler {
	return &Handler{
		Store:    store,
		Manager:  manager,
		Ledger:   ledger,
		Bridge:   bridge,
		Reports:  reports,
		validate: validator.New(),
	}
}

// decode parses the JSON body into dst and runs validation.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return h.validate.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps a domain error to the right status code.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case hotel.IsNotFound(err) || pos.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, availability.ErrRoomUnavailable),
		errors.Is(err, hotel.ErrInvalidTransition),
		errors.Is(err, hotel.ErrNonEmptyFolioCancel),
		errors.Is(err, hotel.ErrFolioClosed),
		errors.Is(err, hotel.ErrAlreadyOffset),
		errors.Is(err, pos.ErrChargePosted):
		writeError(w, http.StatusConflict, message, err)
	case hotel.IsClientError(err) || pos.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// taxSnapshot loads the tax configuration for a posting.
func (h *Handler) taxSnapshot(r *http.Request) (tax.Config, error) {
	return h.Store.TaxConfig(r.Context())
}

// =============================================================================
// ROOM TYPES
// =============================================================================

func (h *Handler) ListRoomTypes(w http.ResponseWriter, r *http.Request) {
	roomTypes, err := h.Store.ListRoomTypes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list room types", err)
		return
	}
	dtos := make([]RoomTypeDTO, 0, len(roomTypes))
	for _, rt := range roomTypes {
		dtos = append(dtos, roomTypeDTO(rt))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateRoomType(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomTypeRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	price, err := money.Parse(req.BasePricePerNight)
	if err != nil || price.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid base_price_per_night", err)
		return
	}

	rt := hotel.RoomType{
		ID:                uuid.NewString(),
		Name:              req.Name,
		BasePricePerNight: price,
		Description:       req.Description,
		Active:            true,
	}
	if err := h.Store.SaveRoomType(r.Context(), rt); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create room type", err)
		return
	}
	writeJSON(w, http.StatusCreated, roomTypeDTO(rt))
}

// =============================================================================
// ROOMS
// =============================================================================

func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Store.ListRooms(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rooms", err)
		return
	}
	dtos := make([]RoomDTO, 0, len(rooms))
	for _, room := range rooms {
		dtos = append(dtos, roomDTO(room))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	roomType, err := h.Store.GetRoomType(r.Context(), req.RoomTypeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up room type", err)
		return
	}
	if roomType == nil {
		writeError(w, http.StatusNotFound, "Room type not found", nil)
		return
	}

	room := hotel.Room{
		ID:         uuid.NewString(),
		RoomTypeID: req.RoomTypeID,
		Number:     req.Number,
		Status:     hotel.RoomVacant,
		Floor:      req.Floor,
		Notes:      req.Notes,
	}
	if err := h.Store.SaveRoom(r.Context(), room); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create room", err)
		return
	}
	writeJSON(w, http.StatusCreated, roomDTO(room))
}

func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.Store.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get room", err)
		return
	}
	if room == nil {
		writeError(w, http.StatusNotFound, "Room not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, roomDTO(*room))
}

func (h *Handler) UpdateRoomStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateRoomStatusRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	err := h.Store.UpdateRoomStatus(r.Context(), chi.URLParam(r, "id"), hotel.RoomStatus(req.Status))
	if err != nil {
		writeDomainError(w, "Failed to update room status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

// =============================================================================
// GUESTS
// =============================================================================

func (h *Handler) ListGuests(w http.ResponseWriter, r *http.Request) {
	guests, err := h.Store.ListGuests(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list guests", err)
		return
	}
	dtos := make([]GuestDTO, 0, len(guests))
	for _, g := range guests {
		dtos = append(dtos, guestDTO(g))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	var req CreateGuestRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	guest := hotel.Guest{
		ID:        uuid.NewString(),
		FullName:  req.FullName,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: time.Now(),
	}
	if err := h.Store.SaveGuest(r.Context(), guest); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create guest", err)
		return
	}
	writeJSON(w, http.StatusCreated, guestDTO(guest))
}

func (h *Handler) GetGuest(w http.ResponseWriter, r *http.Request) {
	guest, err := h.Store.GetGuest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get guest", err)
		return
	}
	if guest == nil {
		writeError(w, http.StatusNotFound, "Guest not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, guestDTO(*guest))
}

// =============================================================================
// BOOKINGS
// =============================================================================

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.Store.ListBookings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bookings", err)
		return
	}
	dtos := make([]BookingDTO, 0, len(bookings))
	for _, b := range bookings {
		dtos = append(dtos, bookingDTO(b))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) bookingInput(req CreateBookingRequest) (hotel.CreateBookingInput, error) {
	checkIn, checkOut, err := parseStayDates(req.CheckIn, req.CheckOut)
	if err != nil {
		return hotel.CreateBookingInput{}, err
	}
	return hotel.CreateBookingInput{
		GuestID:         req.GuestID,
		RoomID:          req.RoomID,
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Source:          hotel.BookingSource(req.Source),
		SpecialRequests: req.SpecialRequests,
	}, nil
}

// CreateBooking books a room and opens the folio: the walk-in path.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	in, err := h.bookingInput(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid dates (use YYYY-MM-DD)", err)
		return
	}

	booking, folio, err := h.Manager.Create(r.Context(), in)
	if err != nil {
		writeDomainError(w, "Failed to create booking", err)
		return
	}
	f := folioDTO(*folio)
	writeJSON(w, http.StatusCreated, BookingResponse{Booking: bookingDTO(*booking), Folio: &f})
}

// CreateBookingHold places a PENDING hold: the online path.
func (h *Handler) CreateBookingHold(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	in, err := h.bookingInput(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid dates (use YYYY-MM-DD)", err)
		return
	}
	if in.Source == "" {
		in.Source = hotel.SourceOnline
	}

	booking, err := h.Manager.CreateHold(r.Context(), in)
	if err != nil {
		writeDomainError(w, "Failed to create hold", err)
		return
	}
	writeJSON(w, http.StatusCreated, BookingResponse{Booking: bookingDTO(*booking)})
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.Store.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get booking", err)
		return
	}
	if booking == nil {
		writeError(w, http.StatusNotFound, "Booking not found", nil)
		return
	}

	resp := BookingResponse{Booking: bookingDTO(*booking)}
	folio, err := h.Store.GetFolioByBooking(r.Context(), booking.ID)
	if err == nil && folio != nil {
		f := folioDTO(*folio)
		resp.Folio = &f
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	folio, err := h.Manager.Confirm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to confirm booking", err)
		return
	}
	writeJSON(w, http.StatusOK, folioDTO(*folio))
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	if err := h.Manager.CheckIn(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to check in", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(hotel.BookingCheckedIn)})
}

func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	result, err := h.Manager.CheckOut(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to check out", err)
		return
	}
	writeJSON(w, http.StatusOK, CheckOutResponse{
		Booking: bookingDTO(*result.Booking),
		Folio:   folioDTO(*result.Folio),
		Totals:  totalsDTO(result.Totals),
	})
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.Manager.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to cancel booking", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(hotel.BookingCancelled)})
}

func (h *Handler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	if err := h.Manager.MarkNoShow(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to mark no-show", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(hotel.BookingNoShow)})
}

// =============================================================================
// FOLIOS
// =============================================================================

func (h *Handler) GetFolio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	folio, err := h.Store.GetFolio(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get folio", err)
		return
	}
	if folio == nil {
		writeError(w, http.StatusNotFound, "Folio not found", nil)
		return
	}

	totals, err := h.Ledger.Totals(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to compute totals", err)
		return
	}
	charges, payments, err := h.Ledger.Entries(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load entries", err)
		return
	}

	resp := FolioDetailResponse{
		Folio:    folioDTO(*folio),
		Totals:   totalsDTO(totals),
		Charges:  make([]ChargeDTO, 0, len(charges)),
		Payments: make([]PaymentDTO, 0, len(payments)),
	}
	for _, c := range charges {
		resp.Charges = append(resp.Charges, chargeDTO(c))
	}
	for _, p := range payments {
		resp.Payments = append(resp.Payments, paymentDTO(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) AddCharge(w http.ResponseWriter, r *http.Request) {
	var req AddChargeRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	unitPrice, err := money.Parse(req.UnitPrice)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid unit_price", err)
		return
	}
	cfg, err := h.taxSnapshot(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load tax configuration", err)
		return
	}

	charge, err := h.Ledger.AddCharge(r.Context(), chi.URLParam(r, "id"), hotel.ChargeInput{
		Sector:      hotel.Sector(req.Sector),
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitPrice:   unitPrice,
	}, cfg)
	if err != nil {
		writeDomainError(w, "Failed to post charge", err)
		return
	}
	writeJSON(w, http.StatusCreated, chargeDTO(*charge))
}

func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	var req AddPaymentRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	folioID := chi.URLParam(r, "id")
	payment, settled, err := h.Ledger.AddPayment(r.Context(), folioID, amount, hotel.PaymentMethod(req.Method), req.Reference)
	if err != nil {
		writeDomainError(w, "Failed to record payment", err)
		return
	}
	receipt, err := h.Ledger.IssueReceipt(r.Context(), *payment)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Payment recorded, receipt failed", err)
		return
	}
	balance, err := h.Ledger.Balance(r.Context(), folioID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute balance", err)
		return
	}

	writeJSON(w, http.StatusCreated, PaymentResponse{
		Payment: paymentDTO(*payment),
		Receipt: receiptDTO(*receipt),
		Settled: settled,
		Balance: balance.String(),
	})
}

func (h *Handler) OffsetCharge(w http.ResponseWriter, r *http.Request) {
	var req OffsetChargeRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	offset, err := h.Ledger.AddOffsetCharge(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to offset charge", err)
		return
	}
	writeJSON(w, http.StatusCreated, chargeDTO(*offset))
}

// =============================================================================
// POINT OF SALE
// =============================================================================

func (h *Handler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	sector := hotel.Sector(r.URL.Query().Get("sector"))
	items, err := h.Store.ListMenuItems(r.Context(), sector)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list menu items", err)
		return
	}
	dtos := make([]MenuItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, menuItemDTO(item))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req CreateMenuItemRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !hotel.ValidSector(hotel.Sector(req.Sector)) {
		writeError(w, http.StatusBadRequest, "Unknown sector", nil)
		return
	}
	price, err := money.Parse(req.Price)
	if err != nil || price.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid price", err)
		return
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}
	item := pos.MenuItem{
		ID:        uuid.NewString(),
		Sector:    hotel.Sector(req.Sector),
		Name:      req.Name,
		Category:  req.Category,
		Price:     price,
		Available: available,
	}
	if err := h.Store.SaveMenuItem(r.Context(), item); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create menu item", err)
		return
	}
	writeJSON(w, http.StatusCreated, menuItemDTO(item))
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	sector := hotel.Sector(r.URL.Query().Get("sector"))
	status := pos.OrderStatus(r.URL.Query().Get("status"))
	orders, err := h.Store.ListOrders(r.Context(), sector, status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list orders", err)
		return
	}
	dtos := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, orderDTO(o))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	cfg, err := h.taxSnapshot(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load tax configuration", err)
		return
	}

	lines := make([]pos.OrderLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, pos.OrderLine{MenuItemID: l.MenuItemID, Quantity: l.Quantity})
	}

	result, err := h.Bridge.PostOrder(r.Context(), pos.OrderInput{
		Sector:    hotel.Sector(req.Sector),
		Intent:    pos.PaymentIntent(req.Intent),
		BookingID: req.BookingID,
		Method:    hotel.PaymentMethod(req.Method),
		Reference: req.Reference,
		Lines:     lines,
	}, cfg)
	if err != nil {
		writeDomainError(w, "Failed to post order", err)
		return
	}

	resp := OrderResponse{Order: orderDTO(*result.Order)}
	if result.Charge != nil {
		c := chargeDTO(*result.Charge)
		resp.Charge = &c
	}
	if result.Payment != nil {
		p := paymentDTO(*result.Payment)
		resp.Payment = &p
	}
	if result.Receipt != nil {
		rc := receiptDTO(*result.Receipt)
		resp.Receipt = &rc
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Store.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get order", err)
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, "Order not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, orderDTO(*order))
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderStatusRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	order, err := h.Bridge.UpdateStatus(r.Context(), chi.URLParam(r, "id"), pos.OrderStatus(req.Status))
	if err != nil {
		writeDomainError(w, "Failed to update order status", err)
		return
	}
	writeJSON(w, http.StatusOK, orderDTO(*order))
}

// CancelOrder voids an order. If the order's charge is already on a
// folio and a reason is supplied, the cancel writes an offsetting entry.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := h.decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	id := chi.URLParam(r, "id")
	if req.Reason != "" {
		order, offset, err := h.Bridge.CancelWithOffset(r.Context(), id, req.Reason)
		if err != nil {
			writeDomainError(w, "Failed to cancel order", err)
			return
		}
		c := chargeDTO(*offset)
		writeJSON(w, http.StatusOK, OrderResponse{Order: orderDTO(*order), Charge: &c})
		return
	}

	order, err := h.Bridge.Cancel(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to cancel order", err)
		return
	}
	writeJSON(w, http.StatusOK, OrderResponse{Order: orderDTO(*order)})
}

// =============================================================================
// REPORTS
// =============================================================================

// reportRange parses ?from=YYYY-MM-DD&to=YYYY-MM-DD. The range is
// half-open: to's day is excluded. Defaults to the last 30 days.
func reportRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now.AddDate(0, 0, 1)

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = t
	}
	return from, to, nil
}

func (h *Handler) RevenueSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := reportRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range (use YYYY-MM-DD)", err)
		return
	}
	sector := hotel.Sector(r.URL.Query().Get("sector"))

	summary, err := h.Reports.Summary(r.Context(), from, to, sector)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summaryDTO(summary))
}

func (h *Handler) RevenueTransactions(w http.ResponseWriter, r *http.Request) {
	from, to, err := reportRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range (use YYYY-MM-DD)", err)
		return
	}
	sector := hotel.Sector(r.URL.Query().Get("sector"))
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	charges, err := h.Reports.Transactions(r.Context(), from, to, sector, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}
	dtos := make([]ChargeDTO, 0, len(charges))
	for _, c := range charges {
		dtos = append(dtos, chargeDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) RefundsOwed(w http.ResponseWriter, r *http.Request) {
	refunds, err := h.Reports.RefundsOwed(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list refunds", err)
		return
	}
	dtos := make([]RefundDTO, 0, len(refunds))
	for _, ref := range refunds {
		dtos = append(dtos, refundDTO(ref))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// =============================================================================
// SETTINGS
// =============================================================================

func (h *Handler) GetTaxConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Store.TaxConfig(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load tax configuration", err)
		return
	}
	writeJSON(w, http.StatusOK, TaxConfigDTO{
		Enabled: cfg.Enabled,
		Rate:    cfg.Rate.String(),
		Mode:    string(cfg.Mode),
	})
}

func (h *Handler) SetTaxConfig(w http.ResponseWriter, r *http.Request) {
	var req SetTaxConfigRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cfg := tax.Config{Enabled: req.Enabled, Mode: tax.Mode(req.Mode)}
	if req.Rate != "" {
		rate, err := decimal.NewFromString(req.Rate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid rate", err)
			return
		}
		cfg.Rate = rate
	}
	if cfg.Enabled {
		if err := cfg.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid tax configuration", err)
			return
		}
	}

	if err := h.Store.SetTaxConfig(r.Context(), cfg); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save tax configuration", err)
		return
	}
	writeJSON(w, http.StatusOK, TaxConfigDTO{
		Enabled: cfg.Enabled,
		Rate:    cfg.Rate.String(),
		Mode:    string(cfg.Mode),
	})
}
