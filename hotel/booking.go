/*
booking.go - Booking lifecycle state machine

STATE MACHINE:
  PENDING -> CONFIRMED -> CHECKED_IN -> CHECKED_OUT
  PENDING/CONFIRMED -> CANCELLED
  CONFIRMED -> NO_SHOW

  Terminal: CHECKED_OUT, CANCELLED, NO_SHOW. Bookings are never deleted.

ATOMICITY:
  Create holds the room's lock from the availability index across a
  single store transaction that writes reservation + booking + folio.
  Either all three commit or none do: a create that reserves the room
  but fails to open the folio leaves nothing behind.

CHECKOUT POLICY:
  Checkout with a non-zero balance is allowed (billed later): the folio
  is CLOSED, not SETTLED, and a folio-closed event goes out so
  reconciliation can chase the balance. A zero balance settles on the
  spot.
*/
package hotel

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/kalongo/folio-engine/availability"
	"github.com/kalongo/folio-engine/notify"
)

// Manager owns booking lifecycle transitions.
type Manager struct {
	store  TxStore
	avail  *availability.Index
	events notify.Publisher
	now    func() time.Time
}

func NewManager(store TxStore, avail *availability.Index, events notify.Publisher) *Manager {
	if events == nil {
		events = notify.Nop{}
	}
	return &Manager{store: store, avail: avail, events: events, now: time.Now}
}

// WithClock overrides the manager's clock. Tests only.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// CreateBookingInput carries everything a reservation needs.
type CreateBookingInput struct {
	GuestID         string
	RoomID          string
	CheckIn         time.Time
	CheckOut        time.Time
	Source          BookingSource
	SpecialRequests string
}

// =============================================================================
// CREATE
// =============================================================================

// Create validates and reserves, then writes the CONFIRMED booking and
// its OPEN folio in one transaction. Returns both.
func (m *Manager) Create(ctx context.Context, in CreateBookingInput) (*Booking, *Folio, error) {
	booking, err := m.prepare(ctx, in, BookingConfirmed)
	if err != nil {
		return nil, nil, err
	}

	folio := &Folio{
		ID:        uuid.NewString(),
		BookingID: booking.ID,
		Status:    FolioOpen,
		CreatedAt: m.now(),
	}

	unlock := m.avail.Lock(in.RoomID)
	defer unlock()

	err = m.store.WithTx(ctx, func(s Store) error {
		if err := m.reserveAndSave(ctx, s, booking); err != nil {
			return err
		}
		return s.CreateFolio(ctx, *folio)
	})
	if err != nil {
		return nil, nil, err
	}
	return booking, folio, nil
}

// CreateHold places a PENDING booking: the room interval is reserved but
// no folio opens until Confirm. Online bookings arrive this way.
func (m *Manager) CreateHold(ctx context.Context, in CreateBookingInput) (*Booking, error) {
	booking, err := m.prepare(ctx, in, BookingPending)
	if err != nil {
		return nil, err
	}

	unlock := m.avail.Lock(in.RoomID)
	defer unlock()

	err = m.store.WithTx(ctx, func(s Store) error {
		return m.reserveAndSave(ctx, s, booking)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// Confirm moves a PENDING booking to CONFIRMED and opens its folio.
func (m *Manager) Confirm(ctx context.Context, bookingID string) (*Folio, error) {
	folio := &Folio{
		ID:        uuid.NewString(),
		Status:    FolioOpen,
		CreatedAt: m.now(),
	}

	err := m.store.WithTx(ctx, func(s Store) error {
		booking, err := m.getBooking(ctx, s, bookingID)
		if err != nil {
			return err
		}
		if booking.Status != BookingPending {
			return &TransitionError{BookingID: bookingID, From: booking.Status, Attempted: "confirm"}
		}
		folio.BookingID = bookingID
		if err := s.UpdateBookingStatus(ctx, bookingID, BookingConfirmed, m.now()); err != nil {
			return err
		}
		return s.CreateFolio(ctx, *folio)
	})
	if err != nil {
		return nil, err
	}
	return folio, nil
}

func (m *Manager) prepare(ctx context.Context, in CreateBookingInput, status BookingStatus) (*Booking, error) {
	stay, err := availability.NewStay(in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}
	today := availability.DateOf(m.now())
	if stay.CheckIn.Before(today) {
		return nil, fmt.Errorf("%w: %s", ErrPastCheckIn, stay.CheckIn.Format("2006-01-02"))
	}
	if in.Source != SourceWalkIn && in.Source != SourceOnline {
		in.Source = SourceWalkIn
	}

	room, err := m.store.GetRoom(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if room.Status == RoomOutOfService {
		return nil, &availability.ConflictError{RoomID: in.RoomID, Requested: stay}
	}
	guest, err := m.store.GetGuest(ctx, in.GuestID)
	if err != nil {
		return nil, err
	}
	if guest == nil {
		return nil, ErrGuestNotFound
	}

	now := m.now()
	return &Booking{
		ID:              uuid.NewString(),
		GuestID:         in.GuestID,
		RoomID:          in.RoomID,
		RoomTypeID:      room.RoomTypeID,
		Stay:            stay,
		Source:          in.Source,
		Status:          status,
		SpecialRequests: in.SpecialRequests,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (m *Manager) reserveAndSave(ctx context.Context, s Store, b *Booking) error {
	err := m.avail.Reserve(ctx, s, availability.Reservation{
		BookingID: b.ID,
		RoomID:    b.RoomID,
		Stay:      b.Stay,
	})
	if err != nil {
		return err
	}
	if err := s.SaveBooking(ctx, *b); err != nil {
		return err
	}
	return s.UpdateRoomStatus(ctx, b.RoomID, RoomReserved)
}

// =============================================================================
// CHECK-IN / CHECK-OUT
// =============================================================================

// CheckIn is legal only from CONFIRMED. The room becomes occupied and
// housekeeping is notified.
func (m *Manager) CheckIn(ctx context.Context, bookingID string) error {
	var booking *Booking
	err := m.store.WithTx(ctx, func(s Store) error {
		b, err := m.getBooking(ctx, s, bookingID)
		if err != nil {
			return err
		}
		if b.Status != BookingConfirmed {
			return &TransitionError{BookingID: bookingID, From: b.Status, Attempted: "check in"}
		}
		booking = b
		if err := s.UpdateBookingStatus(ctx, bookingID, BookingCheckedIn, m.now()); err != nil {
			return err
		}
		return s.UpdateRoomStatus(ctx, b.RoomID, RoomOccupied)
	})
	if err != nil {
		return err
	}

	m.publishRoomStatus(ctx, booking, RoomOccupied)
	return nil
}

// CheckOutResult reports the final state of the stay's folio.
type CheckOutResult struct {
	Booking *Booking
	Folio   *Folio
	Totals  Totals
}

// CheckOut is legal only from CHECKED_IN. A zero-balance folio settles;
// a non-zero balance closes the folio and emits a folio-closed event.
// The room returns to vacant (cleaning is housekeeping's problem).
func (m *Manager) CheckOut(ctx context.Context, bookingID string) (*CheckOutResult, error) {
	result := &CheckOutResult{}
	err := m.store.WithTx(ctx, func(s Store) error {
		b, err := m.getBooking(ctx, s, bookingID)
		if err != nil {
			return err
		}
		if b.Status != BookingCheckedIn {
			return &TransitionError{BookingID: bookingID, From: b.Status, Attempted: "check out"}
		}

		folio, err := s.GetFolioByBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if folio == nil {
			return ErrFolioNotFound
		}

		totals, err := computeTotals(ctx, s, folio.ID)
		if err != nil {
			return err
		}

		closedAt := m.now()
		status := FolioClosed
		if totals.Balance.IsZero() {
			status = FolioSettled
		}
		if folio.Status == FolioOpen || folio.Status == FolioClosed {
			if err := s.UpdateFolioStatus(ctx, folio.ID, status, &closedAt); err != nil {
				return err
			}
			folio.Status = status
			folio.ClosedAt = &closedAt
		}

		if err := s.UpdateBookingStatus(ctx, bookingID, BookingCheckedOut, m.now()); err != nil {
			return err
		}
		if err := s.UpdateRoomStatus(ctx, b.RoomID, RoomVacant); err != nil {
			return err
		}

		b.Status = BookingCheckedOut
		result.Booking = b
		result.Folio = folio
		result.Totals = totals
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.publishRoomStatus(ctx, result.Booking, RoomVacant)
	if !result.Totals.Balance.IsZero() {
		m.publish(ctx, notify.FolioClosed{
			FolioID:    result.Folio.ID,
			BookingID:  bookingID,
			Balance:    result.Totals.Balance.String(),
			RefundOwed: result.Totals.RefundOwed(),
			OccurredAt: m.now(),
		})
	}
	return result, nil
}

// =============================================================================
// CANCEL / NO-SHOW
// =============================================================================

// Cancel is legal from PENDING or CONFIRMED. It fails if the folio
// already carries charges: cancellation must not discard billed work.
// The reservation is released and the room interval freed.
func (m *Manager) Cancel(ctx context.Context, bookingID string) error {
	return m.terminate(ctx, bookingID, BookingCancelled, "cancel",
		[]BookingStatus{BookingPending, BookingConfirmed})
}

// MarkNoShow is legal only from CONFIRMED.
func (m *Manager) MarkNoShow(ctx context.Context, bookingID string) error {
	return m.terminate(ctx, bookingID, BookingNoShow, "mark no-show",
		[]BookingStatus{BookingConfirmed})
}

func (m *Manager) terminate(ctx context.Context, bookingID string, to BookingStatus, verb string, from []BookingStatus) error {
	return m.store.WithTx(ctx, func(s Store) error {
		b, err := m.getBooking(ctx, s, bookingID)
		if err != nil {
			return err
		}
		legal := false
		for _, st := range from {
			if b.Status == st {
				legal = true
			}
		}
		if !legal {
			return &TransitionError{BookingID: bookingID, From: b.Status, Attempted: verb}
		}

		folio, err := s.GetFolioByBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if folio != nil {
			charges, err := s.LoadCharges(ctx, folio.ID)
			if err != nil {
				return err
			}
			if len(charges) > 0 {
				totals, err := computeTotals(ctx, s, folio.ID)
				if err != nil {
					return err
				}
				return &NonEmptyFolioError{
					BookingID:    bookingID,
					FolioID:      folio.ID,
					ChargeCount:  len(charges),
					TotalCharges: totals.TotalCharges,
				}
			}
			closedAt := m.now()
			if err := s.UpdateFolioStatus(ctx, folio.ID, FolioClosed, &closedAt); err != nil {
				return err
			}
		}

		if err := m.avail.Release(ctx, s, b.RoomID, bookingID); err != nil {
			return err
		}
		if err := s.UpdateBookingStatus(ctx, bookingID, to, m.now()); err != nil {
			return err
		}

		room, err := s.GetRoom(ctx, b.RoomID)
		if err != nil {
			return err
		}
		if room != nil && room.Status == RoomReserved {
			return s.UpdateRoomStatus(ctx, b.RoomID, RoomVacant)
		}
		return nil
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Manager) getBooking(ctx context.Context, s Store, id string) (*Booking, error) {
	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func (m *Manager) publishRoomStatus(ctx context.Context, b *Booking, status RoomStatus) {
	room, err := m.store.GetRoom(ctx, b.RoomID)
	number := ""
	if err == nil && room != nil {
		number = room.Number
	}
	m.publish(ctx, notify.RoomStatusChanged{
		RoomID:     b.RoomID,
		RoomNumber: number,
		Status:     string(status),
		BookingID:  b.ID,
		OccurredAt: m.now(),
	})
}

func (m *Manager) publish(ctx context.Context, e notify.Event) {
	if err := m.events.Publish(ctx, e); err != nil {
		log.Printf("event publish failed (%s): %v", e.EventType(), err)
	}
}
