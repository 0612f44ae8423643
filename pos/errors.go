package pos

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound - no order with that ID.
	ErrOrderNotFound = errors.New("order not found")

	// ErrMenuItemNotFound - no menu item with that ID.
	ErrMenuItemNotFound = errors.New("menu item not found")

	// ErrMenuItemUnavailable - item exists but is off the menu today.
	ErrMenuItemUnavailable = errors.New("menu item unavailable")

	// ErrEmptyOrder - an order needs at least one item.
	ErrEmptyOrder = errors.New("order has no items")

	// ErrInvalidOrder - malformed order input (sector, intent, quantity).
	ErrInvalidOrder = errors.New("invalid order")

	// ErrChargePosted - the order's charge is already on a ledger;
	// cancel via CancelWithOffset instead.
	ErrChargePosted = errors.New("order charge already posted")

	// ErrMissingBooking - post_to_room requires a booking ID.
	ErrMissingBooking = errors.New("post_to_room order requires a booking")

	// ErrSectorMismatch - ordered item belongs to a different sector.
	ErrSectorMismatch = errors.New("menu item belongs to another sector")
)

// StatusError reports an illegal kitchen-flow transition.
type StatusError struct {
	OrderID   string
	From      OrderStatus
	Attempted OrderStatus
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("order %s: cannot move from %s to %s", e.OrderID, e.From, e.Attempted)
}

// IsClientError reports whether the error is the caller's fault.
func IsClientError(err error) bool {
	var statusErr *StatusError
	return errors.Is(err, ErrMenuItemUnavailable) ||
		errors.Is(err, ErrEmptyOrder) ||
		errors.Is(err, ErrInvalidOrder) ||
		errors.Is(err, ErrChargePosted) ||
		errors.Is(err, ErrMissingBooking) ||
		errors.Is(err, ErrSectorMismatch) ||
		errors.As(err, &statusErr)
}

// IsNotFound reports a missing order or menu item.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) || errors.Is(err, ErrMenuItemNotFound)
}
