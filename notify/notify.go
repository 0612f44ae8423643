/*
Package notify carries outbound domain events to external collaborators.

Housekeeping listens for room status changes on check-in/check-out; the
notifications service listens for folios closed with an outstanding
balance. The core only publishes; delivery, retries and rendering belong
to the consumers.
*/
package notify

import (
	"context"
	"time"
)

// Event is anything the core announces to the outside world.
type Event interface {
	// EventType is the routing key suffix, e.g. "room.status_changed".
	EventType() string
}

// RoomStatusChanged is emitted when check-in/check-out flips a room's
// status. Housekeeping consumes it.
type RoomStatusChanged struct {
	RoomID     string    `json:"room_id"`
	RoomNumber string    `json:"room_number"`
	Status     string    `json:"status"`
	BookingID  string    `json:"booking_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (RoomStatusChanged) EventType() string { return "room.status_changed" }

// FolioClosed is emitted at checkout when a folio closes with a non-zero
// balance, so reconciliation can chase it (or refund it).
type FolioClosed struct {
	FolioID    string    `json:"folio_id"`
	BookingID  string    `json:"booking_id"`
	Balance    string    `json:"balance"`
	RefundOwed bool      `json:"refund_owed"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (FolioClosed) EventType() string { return "folio.closed" }

// Publisher delivers events. Publishing failures must not fail the
// business operation that produced the event; callers log and move on.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards all events. Used when no broker is configured and in tests.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
