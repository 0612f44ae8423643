/*
Package hotel owns the booking lifecycle and the folio ledger.

PURPOSE:
  A booking reserves a room for a half-open date range and opens a folio:
  the running account of the stay. Charges (room nights, bar, restaurant)
  and payments accumulate on the folio append-only; the balance is always
  recomputed from the entries, never stored.

KEY TYPES (this file):
  Room, RoomType, Guest  - property inventory and guest profiles
  Booking                - lifecycle state machine (see booking.go)
  Folio, Charge, Payment - the ledger (see folio.go)

INVARIANTS:
  1. Bookings are never deleted, only moved to a terminal state.
  2. Charges and payments are immutable; corrections are offsetting
     charges, never edits.
  3. balance == sum(charge.Gross) - sum(payment.Amount), exactly, in
     decimal arithmetic.
*/
package hotel

import (
	"time"

	"github.com/kalongo/folio-engine/availability"
	"github.com/kalongo/folio-engine/money"
)

// Sector is the revenue center a charge originates from.
type Sector string

const (
	SectorRooms        Sector = "rooms"
	SectorRestaurant   Sector = "restaurant"
	SectorBar          Sector = "bar"
	SectorHousekeeping Sector = "housekeeping"
	SectorActivities   Sector = "activities"
)

func ValidSector(s Sector) bool {
	switch s {
	case SectorRooms, SectorRestaurant, SectorBar, SectorHousekeeping, SectorActivities:
		return true
	}
	return false
}

// =============================================================================
// INVENTORY
// =============================================================================

type RoomType struct {
	ID                string
	Name              string
	BasePricePerNight money.Amount
	Description       string
	Active            bool
}

type RoomStatus string

const (
	RoomVacant       RoomStatus = "vacant"
	RoomOccupied     RoomStatus = "occupied"
	RoomReserved     RoomStatus = "reserved"
	RoomOutOfService RoomStatus = "out_of_service"
)

type Room struct {
	ID         string
	RoomTypeID string
	Number     string
	Status     RoomStatus
	Floor      string
	Notes      string
}

type Guest struct {
	ID        string
	FullName  string
	Email     string
	Phone     string
	CreatedAt time.Time
}

// =============================================================================
// BOOKING
// =============================================================================

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingCheckedIn  BookingStatus = "checked_in"
	BookingCheckedOut BookingStatus = "checked_out"
	BookingCancelled  BookingStatus = "cancelled"
	BookingNoShow     BookingStatus = "no_show"
)

// Terminal reports whether no further transition is legal.
func (s BookingStatus) Terminal() bool {
	return s == BookingCheckedOut || s == BookingCancelled || s == BookingNoShow
}

type BookingSource string

const (
	SourceWalkIn BookingSource = "walk_in"
	SourceOnline BookingSource = "online"
)

type Booking struct {
	ID              string
	GuestID         string
	RoomID          string
	RoomTypeID      string // room type at time of booking
	Stay            availability.Stay
	Source          BookingSource
	Status          BookingStatus
	SpecialRequests string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// =============================================================================
// FOLIO
// =============================================================================

type FolioStatus string

const (
	// FolioOpen accepts charges and payments.
	FolioOpen FolioStatus = "open"
	// FolioClosed no longer accepts charges; payments may still land
	// until the balance settles.
	FolioClosed FolioStatus = "closed"
	// FolioSettled is final: balance reached exactly zero.
	FolioSettled FolioStatus = "settled"
)

type Folio struct {
	ID        string
	BookingID string
	Status    FolioStatus
	ClosedAt  *time.Time
	CreatedAt time.Time
}

// Totals is the derived view of a folio. Computed from the charge and
// payment rows on every read; nothing here is stored.
type Totals struct {
	TotalCharges  money.Amount
	TotalPayments money.Amount
	Balance       money.Amount
}

// RefundOwed reports an overpaid folio.
func (t Totals) RefundOwed() bool { return t.Balance.IsNegative() }

// =============================================================================
// CHARGE - Immutable debit
// =============================================================================

type Charge struct {
	ID          string
	FolioID     string // empty for standalone POS receipts
	Sector      Sector
	Description string
	Quantity    int64
	UnitPrice   money.Amount
	Net         money.Amount
	VAT         money.Amount
	Gross       money.Amount
	POSOrderID  string // backlink for charges posted by the POS bridge
	OffsetsID   string // set on correction charges: the charge being negated
	PostedAt    time.Time
}

// =============================================================================
// PAYMENT - Immutable credit
// =============================================================================

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "cash"
	MethodMPesa        PaymentMethod = "mpesa"
	MethodAirtelMoney  PaymentMethod = "airtel_money"
	MethodTigoPesa     PaymentMethod = "tigo_pesa"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCard         PaymentMethod = "card"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCash, MethodMPesa, MethodAirtelMoney, MethodTigoPesa, MethodBankTransfer, MethodCard:
		return true
	}
	return false
}

type Payment struct {
	ID          string
	FolioID     string // empty for standalone POS receipts
	Amount      money.Amount
	Method      PaymentMethod
	Reference   string
	ConfirmedAt time.Time
}

// Receipt is issued when a payment is confirmed.
type Receipt struct {
	ID        string
	Number    string
	PaymentID string
	Amount    money.Amount
	IssuedAt  time.Time
}
