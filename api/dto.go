/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts cross the wire as decimal strings ("59000", "12000.5"), never
  floats. Clients doing arithmetic on them is their own risk.

VALIDATION:
  Request types carry go-playground/validator tags; handlers run the
  validator before touching domain logic.

SEE ALSO:
  - handlers.go: Uses these types
  - server.go: Router setup and middleware
*/
package api

import (
	"time"

	"github.com/kalongo/folio-engine/hotel"
	"github.com/kalongo/folio-engine/pos"
	"github.com/kalongo/folio-engine/revenue"
)

// =============================================================================
// INVENTORY
// =============================================================================

type RoomTypeDTO struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	BasePricePerNight string `json:"base_price_per_night"`
	Description       string `json:"description,omitempty"`
	Active            bool   `json:"active"`
}

type CreateRoomTypeRequest struct {
	Name              string `json:"name" validate:"required"`
	BasePricePerNight string `json:"base_price_per_night" validate:"required"`
	Description       string `json:"description"`
}

type RoomDTO struct {
	ID         string `json:"id"`
	RoomTypeID string `json:"room_type_id"`
	Number     string `json:"number"`
	Status     string `json:"status"`
	Floor      string `json:"floor,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type CreateRoomRequest struct {
	RoomTypeID string `json:"room_type_id" validate:"required"`
	Number     string `json:"number" validate:"required"`
	Floor      string `json:"floor"`
	Notes      string `json:"notes"`
}

type UpdateRoomStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=vacant occupied reserved out_of_service"`
}

type GuestDTO struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"created_at"`
}

type CreateGuestRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
}

// =============================================================================
// BOOKINGS
// =============================================================================

type BookingDTO struct {
	ID              string `json:"id"`
	GuestID         string `json:"guest_id"`
	RoomID          string `json:"room_id"`
	RoomTypeID      string `json:"room_type_id"`
	CheckIn         string `json:"check_in"`
	CheckOut        string `json:"check_out"`
	Nights          int    `json:"nights"`
	Source          string `json:"source"`
	Status          string `json:"status"`
	SpecialRequests string `json:"special_requests,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type CreateBookingRequest struct {
	GuestID         string `json:"guest_id" validate:"required"`
	RoomID          string `json:"room_id" validate:"required"`
	CheckIn         string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut        string `json:"check_out" validate:"required,datetime=2006-01-02"`
	Source          string `json:"source" validate:"omitempty,oneof=walk_in online"`
	SpecialRequests string `json:"special_requests"`
}

type BookingResponse struct {
	Booking BookingDTO `json:"booking"`
	Folio   *FolioDTO  `json:"folio,omitempty"`
}

type CheckOutResponse struct {
	Booking BookingDTO `json:"booking"`
	Folio   FolioDTO   `json:"folio"`
	Totals  TotalsDTO  `json:"totals"`
}

// =============================================================================
// FOLIOS
// =============================================================================

type FolioDTO struct {
	ID        string `json:"id"`
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	ClosedAt  string `json:"closed_at,omitempty"`
	CreatedAt string `json:"created_at"`
}

type TotalsDTO struct {
	TotalCharges  string `json:"total_charges"`
	TotalPayments string `json:"total_payments"`
	Balance       string `json:"balance"`
	RefundOwed    bool   `json:"refund_owed"`
}

type FolioDetailResponse struct {
	Folio    FolioDTO     `json:"folio"`
	Totals   TotalsDTO    `json:"totals"`
	Charges  []ChargeDTO  `json:"charges"`
	Payments []PaymentDTO `json:"payments"`
}

type ChargeDTO struct {
	ID          string `json:"id"`
	FolioID     string `json:"folio_id,omitempty"`
	Sector      string `json:"sector"`
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Net         string `json:"net"`
	VAT         string `json:"vat"`
	Gross       string `json:"gross"`
	POSOrderID  string `json:"pos_order_id,omitempty"`
	OffsetsID   string `json:"offsets_id,omitempty"`
	PostedAt    string `json:"posted_at"`
}

type AddChargeRequest struct {
	Sector      string `json:"sector" validate:"required"`
	Description string `json:"description" validate:"required"`
	Quantity    int64  `json:"quantity" validate:"required,min=1"`
	UnitPrice   string `json:"unit_price" validate:"required"`
}

type OffsetChargeRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type PaymentDTO struct {
	ID          string `json:"id"`
	FolioID     string `json:"folio_id,omitempty"`
	Amount      string `json:"amount"`
	Method      string `json:"method"`
	Reference   string `json:"reference,omitempty"`
	ConfirmedAt string `json:"confirmed_at"`
}

type AddPaymentRequest struct {
	Amount    string `json:"amount" validate:"required"`
	Method    string `json:"method" validate:"required"`
	Reference string `json:"reference"`
}

type PaymentResponse struct {
	Payment PaymentDTO `json:"payment"`
	Receipt ReceiptDTO `json:"receipt"`
	Settled bool       `json:"settled"`
	Balance string     `json:"balance"`
}

type ReceiptDTO struct {
	ID        string `json:"id"`
	Number    string `json:"number"`
	PaymentID string `json:"payment_id"`
	Amount    string `json:"amount"`
	IssuedAt  string `json:"issued_at"`
}

// =============================================================================
// POINT OF SALE
// =============================================================================

type MenuItemDTO struct {
	ID        string `json:"id"`
	Sector    string `json:"sector"`
	Name      string `json:"name"`
	Category  string `json:"category,omitempty"`
	Price     string `json:"price"`
	Available bool   `json:"available"`
}

type CreateMenuItemRequest struct {
	Sector    string `json:"sector" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Category  string `json:"category"`
	Price     string `json:"price" validate:"required"`
	Available *bool  `json:"available"`
}

type OrderItemDTO struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int64  `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	LineTotal  string `json:"line_total"`
}

type OrderDTO struct {
	ID        string         `json:"id"`
	Number    int64          `json:"number"`
	Sector    string         `json:"sector"`
	Status    string         `json:"status"`
	Intent    string         `json:"intent"`
	BookingID string         `json:"booking_id,omitempty"`
	ChargeID  string         `json:"charge_id,omitempty"`
	PaymentID string         `json:"payment_id,omitempty"`
	Items     []OrderItemDTO `json:"items"`
	Total     string         `json:"total"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

type OrderLineRequest struct {
	MenuItemID string `json:"menu_item_id" validate:"required"`
	Quantity   int64  `json:"quantity" validate:"required,min=1"`
}

type CreateOrderRequest struct {
	Sector    string             `json:"sector" validate:"required"`
	Intent    string             `json:"intent" validate:"required,oneof=pay_now post_to_room"`
	BookingID string             `json:"booking_id" validate:"required_if=Intent post_to_room"`
	Method    string             `json:"method" validate:"required_if=Intent pay_now"`
	Reference string             `json:"reference"`
	Lines     []OrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type OrderResponse struct {
	Order   OrderDTO    `json:"order"`
	Charge  *ChargeDTO  `json:"charge,omitempty"`
	Payment *PaymentDTO `json:"payment,omitempty"`
	Receipt *ReceiptDTO `json:"receipt,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=preparing ready served"`
}

type CancelOrderRequest struct {
	// Reason is required when the order's charge is already posted and
	// the cancel needs an offsetting entry.
	Reason string `json:"reason"`
}

// =============================================================================
// REPORTS
// =============================================================================

type RevenueLineDTO struct {
	Date   string `json:"date"`
	Sector string `json:"sector"`
	Count  int    `json:"count"`
	Net    string `json:"net"`
	VAT    string `json:"vat"`
	Gross  string `json:"gross"`
}

type RevenueSummaryDTO struct {
	From       string           `json:"from"`
	To         string           `json:"to"`
	Lines      []RevenueLineDTO `json:"lines"`
	TotalNet   string           `json:"total_net"`
	TotalVAT   string           `json:"total_vat"`
	TotalGross string           `json:"total_gross"`
}

type RefundDTO struct {
	FolioID   string `json:"folio_id"`
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
}

// =============================================================================
// SETTINGS
// =============================================================================

type TaxConfigDTO struct {
	Enabled bool   `json:"enabled"`
	Rate    string `json:"rate"`
	Mode    string `json:"mode"`
}

type SetTaxConfigRequest struct {
	Enabled bool   `json:"enabled"`
	Rate    string `json:"rate" validate:"required_if=Enabled true"`
	Mode    string `json:"mode" validate:"required_if=Enabled true,omitempty,oneof=exclusive inclusive"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ScenarioDTO describes a loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
}

// =============================================================================
// MAPPERS
// =============================================================================

func roomTypeDTO(rt hotel.RoomType) RoomTypeDTO {
	return RoomTypeDTO{
		ID:                rt.ID,
		Name:              rt.Name,
		BasePricePerNight: rt.BasePricePerNight.String(),
		Description:       rt.Description,
		Active:            rt.Active,
	}
}

func roomDTO(r hotel.Room) RoomDTO {
	return RoomDTO{
		ID:         r.ID,
		RoomTypeID: r.RoomTypeID,
		Number:     r.Number,
		Status:     string(r.Status),
		Floor:      r.Floor,
		Notes:      r.Notes,
	}
}

func guestDTO(g hotel.Guest) GuestDTO {
	return GuestDTO{
		ID:        g.ID,
		FullName:  g.FullName,
		Email:     g.Email,
		Phone:     g.Phone,
		CreatedAt: g.CreatedAt.Format(time.RFC3339),
	}
}

func bookingDTO(b hotel.Booking) BookingDTO {
	return BookingDTO{
		ID:              b.ID,
		GuestID:         b.GuestID,
		RoomID:          b.RoomID,
		RoomTypeID:      b.RoomTypeID,
		CheckIn:         b.Stay.CheckIn.Format("2006-01-02"),
		CheckOut:        b.Stay.CheckOut.Format("2006-01-02"),
		Nights:          b.Stay.Nights(),
		Source:          string(b.Source),
		Status:          string(b.Status),
		SpecialRequests: b.SpecialRequests,
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       b.UpdatedAt.Format(time.RFC3339),
	}
}

func folioDTO(f hotel.Folio) FolioDTO {
	dto := FolioDTO{
		ID:        f.ID,
		BookingID: f.BookingID,
		Status:    string(f.Status),
		CreatedAt: f.CreatedAt.Format(time.RFC3339),
	}
	if f.ClosedAt != nil {
		dto.ClosedAt = f.ClosedAt.Format(time.RFC3339)
	}
	return dto
}

func totalsDTO(t hotel.Totals) TotalsDTO {
	return TotalsDTO{
		TotalCharges:  t.TotalCharges.String(),
		TotalPayments: t.TotalPayments.String(),
		Balance:       t.Balance.String(),
		RefundOwed:    t.RefundOwed(),
	}
}

func chargeDTO(c hotel.Charge) ChargeDTO {
	return ChargeDTO{
		ID:          c.ID,
		FolioID:     c.FolioID,
		Sector:      string(c.Sector),
		Description: c.Description,
		Quantity:    c.Quantity,
		UnitPrice:   c.UnitPrice.String(),
		Net:         c.Net.String(),
		VAT:         c.VAT.String(),
		Gross:       c.Gross.String(),
		POSOrderID:  c.POSOrderID,
		OffsetsID:   c.OffsetsID,
		PostedAt:    c.PostedAt.Format(time.RFC3339),
	}
}

func paymentDTO(p hotel.Payment) PaymentDTO {
	return PaymentDTO{
		ID:          p.ID,
		FolioID:     p.FolioID,
		Amount:      p.Amount.String(),
		Method:      string(p.Method),
		Reference:   p.Reference,
		ConfirmedAt: p.ConfirmedAt.Format(time.RFC3339),
	}
}

func receiptDTO(r hotel.Receipt) ReceiptDTO {
	return ReceiptDTO{
		ID:        r.ID,
		Number:    r.Number,
		PaymentID: r.PaymentID,
		Amount:    r.Amount.String(),
		IssuedAt:  r.IssuedAt.Format(time.RFC3339),
	}
}

func menuItemDTO(m pos.MenuItem) MenuItemDTO {
	return MenuItemDTO{
		ID:        m.ID,
		Sector:    string(m.Sector),
		Name:      m.Name,
		Category:  m.Category,
		Price:     m.Price.String(),
		Available: m.Available,
	}
}

func orderDTO(o pos.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			MenuItemID: item.MenuItemID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice.String(),
			LineTotal:  item.LineTotal().String(),
		})
	}
	return OrderDTO{
		ID:        o.ID,
		Number:    o.Number,
		Sector:    string(o.Sector),
		Status:    string(o.Status),
		Intent:    string(o.Intent),
		BookingID: o.BookingID,
		ChargeID:  o.ChargeID,
		PaymentID: o.PaymentID,
		Items:     items,
		Total:     o.Total().String(),
		CreatedAt: o.CreatedAt.Format(time.RFC3339),
		UpdatedAt: o.UpdatedAt.Format(time.RFC3339),
	}
}

func summaryDTO(s *revenue.Summary) RevenueSummaryDTO {
	lines := make([]RevenueLineDTO, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, RevenueLineDTO{
			Date:   l.Date,
			Sector: string(l.Sector),
			Count:  l.Count,
			Net:    l.Net.String(),
			VAT:    l.VAT.String(),
			Gross:  l.Gross.String(),
		})
	}
	return RevenueSummaryDTO{
		From:       s.From.Format("2006-01-02"),
		To:         s.To.Format("2006-01-02"),
		Lines:      lines,
		TotalNet:   s.TotalNet.String(),
		TotalVAT:   s.TotalVAT.String(),
		TotalGross: s.TotalGross.String(),
	}
}

func refundDTO(r revenue.Refund) RefundDTO {
	return RefundDTO{
		FolioID:   r.FolioID,
		BookingID: r.BookingID,
		Status:    string(r.Status),
		Amount:    r.Amount.String(),
	}
}

// parseStayDates parses the YYYY-MM-DD pair from a booking request.
func parseStayDates(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := time.Parse("2006-01-02", checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	out, err := time.Parse("2006-01-02", checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return in, out, nil
}
