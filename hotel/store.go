/*
store.go - Persistence interface for the booking and folio core

APPEND-ONLY CONTRACT:
  Charges and payments have Append and Load operations only. No Update,
  no Delete, ever. Corrections are offsetting charges.

TRANSACTIONS:
  TxStore.WithTx runs a function against a transaction-scoped Store.
  Booking create uses it to commit reservation + booking + folio as a
  unit; AddPayment uses it so the "did this payment zero the balance"
  check reads inside the same transaction as the write.

IMPLEMENTATIONS:
  - store/sqlite: production store, WAL mode, migrate-on-open
*/
package hotel

import (
	"context"
	"time"

	"github.com/kalongo/folio-engine/availability"
)

// Store is the persistence surface consumed by the booking manager and
// the folio ledger. It embeds the reservation store so availability
// checks commit with the rest of a booking create.
type Store interface {
	availability.ReservationStore

	// Rooms
	SaveRoom(ctx context.Context, r Room) error
	GetRoom(ctx context.Context, id string) (*Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	UpdateRoomStatus(ctx context.Context, id string, status RoomStatus) error

	// Room types
	SaveRoomType(ctx context.Context, rt RoomType) error
	GetRoomType(ctx context.Context, id string) (*RoomType, error)
	ListRoomTypes(ctx context.Context) ([]RoomType, error)

	// Guests
	SaveGuest(ctx context.Context, g Guest) error
	GetGuest(ctx context.Context, id string) (*Guest, error)
	ListGuests(ctx context.Context) ([]Guest, error)

	// Bookings - never deleted, only transitioned
	SaveBooking(ctx context.Context, b Booking) error
	GetBooking(ctx context.Context, id string) (*Booking, error)
	ListBookings(ctx context.Context) ([]Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, status BookingStatus, at time.Time) error

	// Folios
	CreateFolio(ctx context.Context, f Folio) error
	GetFolio(ctx context.Context, id string) (*Folio, error)
	GetFolioByBooking(ctx context.Context, bookingID string) (*Folio, error)
	UpdateFolioStatus(ctx context.Context, id string, status FolioStatus, closedAt *time.Time) error

	// Charges - append-only ledger entries
	AppendCharge(ctx context.Context, c Charge) error
	LoadCharges(ctx context.Context, folioID string) ([]Charge, error)
	GetCharge(ctx context.Context, id string) (*Charge, error)

	// Payments - append-only ledger entries
	AppendPayment(ctx context.Context, p Payment) error
	LoadPayments(ctx context.Context, folioID string) ([]Payment, error)

	// Receipts
	SaveReceipt(ctx context.Context, r Receipt) error
}

// TxStore wraps Store with transaction support. If fn returns an error
// the transaction is rolled back; otherwise it commits.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
}
