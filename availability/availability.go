/*
Package availability tracks which room is reserved over which date range.

PURPOSE:
  The one place in the system where a naive read-then-write race produces a
  real business defect: two concurrent bookings both observing "free" and
  both reserving. Reserve is therefore check-then-insert under a per-room
  lock, with the insert running inside the caller's store transaction so a
  failed booking create rolls the reservation back too.

INTERVAL SEMANTICS:
  Stays are half-open [checkIn, checkOut): a guest leaving on the 3rd and
  one arriving on the 3rd do not conflict. Only non-released reservations
  block; cancelled and no-show bookings free their interval.

SEE ALSO:
  - hotel/booking.go: holds the room lock across its create transaction
  - store/sqlite: persistent ReservationStore implementation
*/
package availability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrRoomUnavailable is returned when a requested stay overlaps an active
// reservation for the same room.
var ErrRoomUnavailable = errors.New("room unavailable for requested dates")

// ErrInvalidStay is returned when check-out is not after check-in.
var ErrInvalidStay = errors.New("invalid stay: check-out must be after check-in")

// =============================================================================
// STAY - Half-open date interval [CheckIn, CheckOut)
// =============================================================================

// Stay is a guest stay as a half-open interval of nights.
// Both dates are calendar dates at midnight UTC.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// NewStay normalizes both dates to day granularity and validates the
// check-in < check-out invariant.
func NewStay(checkIn, checkOut time.Time) (Stay, error) {
	s := Stay{CheckIn: DateOf(checkIn), CheckOut: DateOf(checkOut)}
	if !s.CheckIn.Before(s.CheckOut) {
		return Stay{}, ErrInvalidStay
	}
	return s, nil
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Overlaps reports whether two stays share at least one night.
func (s Stay) Overlaps(o Stay) bool {
	return s.CheckIn.Before(o.CheckOut) && o.CheckIn.Before(s.CheckOut)
}

// Nights is the number of room nights in the stay.
func (s Stay) Nights() int {
	return int(s.CheckOut.Sub(s.CheckIn).Hours() / 24)
}

func (s Stay) String() string {
	return fmt.Sprintf("[%s, %s)", s.CheckIn.Format("2006-01-02"), s.CheckOut.Format("2006-01-02"))
}

// =============================================================================
// RESERVATION
// =============================================================================

// Reservation is one booking's claim on a room interval. Released
// reservations (cancel, no-show) stay on record but no longer block.
type Reservation struct {
	BookingID  string
	RoomID     string
	Stay       Stay
	ReleasedAt *time.Time
}

func (r Reservation) Active() bool { return r.ReleasedAt == nil }

// ReservationStore persists reservations. The sqlite store implements this;
// Reserve may be handed a transaction-scoped store.
type ReservationStore interface {
	// ReservationsForRoom returns all reservations for a room, released
	// ones included.
	ReservationsForRoom(ctx context.Context, roomID string) ([]Reservation, error)

	// AddReservation inserts a reservation.
	AddReservation(ctx context.Context, r Reservation) error

	// ReleaseReservation marks a booking's reservation released.
	ReleaseReservation(ctx context.Context, roomID, bookingID string) error
}

// =============================================================================
// CONFLICT ERROR
// =============================================================================

// ConflictError reports which existing booking blocks a requested stay.
type ConflictError struct {
	RoomID            string
	Requested         Stay
	ExistingBookingID string
	ExistingStay      Stay
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("room %s: stay %s conflicts with booking %s %s",
		e.RoomID, e.Requested, e.ExistingBookingID, e.ExistingStay)
}

func (e *ConflictError) Unwrap() error { return ErrRoomUnavailable }

// =============================================================================
// INDEX - Per-room serialized reserve/release
// =============================================================================

// Index serializes reservation checks per room. It owns no data itself;
// the store (or a transaction view of it) is passed into each call so the
// check and insert commit atomically with the caller's other writes.
type Index struct {
	mu    sync.Mutex
	rooms map[string]*sync.Mutex
}

func NewIndex() *Index {
	return &Index{rooms: make(map[string]*sync.Mutex)}
}

// Lock acquires the room's mutex and returns the unlock function. Callers
// that need the reservation to commit with other writes (booking create)
// hold the lock across their whole transaction.
func (ix *Index) Lock(roomID string) func() {
	ix.mu.Lock()
	m, ok := ix.rooms[roomID]
	if !ok {
		m = &sync.Mutex{}
		ix.rooms[roomID] = m
	}
	ix.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Reserve checks the requested stay against all active reservations for the
// room and inserts it if free. The caller must hold Lock(roomID).
func (ix *Index) Reserve(ctx context.Context, store ReservationStore, res Reservation) error {
	existing, err := store.ReservationsForRoom(ctx, res.RoomID)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if !e.Active() {
			continue
		}
		if e.Stay.Overlaps(res.Stay) {
			return &ConflictError{
				RoomID:            res.RoomID,
				Requested:         res.Stay,
				ExistingBookingID: e.BookingID,
				ExistingStay:      e.Stay,
			}
		}
	}
	return store.AddReservation(ctx, res)
}

// Release frees a booking's interval so new reservations can claim it.
func (ix *Index) Release(ctx context.Context, store ReservationStore, roomID, bookingID string) error {
	return store.ReleaseReservation(ctx, roomID, bookingID)
}
