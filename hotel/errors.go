/*
errors.go - Centralized error types for booking and folio operations

All validation errors are business-rule violations returned synchronously;
none are retried. Structured variants carry enough context to render a
user-facing message and Unwrap to the sentinels for errors.Is checks.
*/
package hotel

import (
	"errors"
	"fmt"

	"github.com/kalongo/folio-engine/availability"
	"github.com/kalongo/folio-engine/money"
	"github.com/kalongo/folio-engine/tax"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidTransition is returned for an illegal booking state change.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNonEmptyFolioCancel is returned when cancelling a booking whose
	// folio already carries charges. Cancellation must not silently
	// discard billed charges.
	ErrNonEmptyFolioCancel = errors.New("cannot cancel booking with charged folio")

	// ErrFolioClosed is returned when posting a charge to a folio that is
	// no longer open.
	ErrFolioClosed = errors.New("folio not open for charges")

	// ErrFolioNotFound is returned when a referenced folio doesn't exist.
	ErrFolioNotFound = errors.New("folio not found")

	// ErrInvalidAmount is returned for negative or zero monetary input
	// where a positive amount is required.
	ErrInvalidAmount = errors.New("invalid amount")

	ErrBookingNotFound = errors.New("booking not found")
	ErrRoomNotFound    = errors.New("room not found")
	ErrGuestNotFound   = errors.New("guest not found")
	ErrChargeNotFound  = errors.New("charge not found")

	// ErrPastCheckIn is returned when a booking's check-in lies in the past.
	ErrPastCheckIn = errors.New("check-in date is in the past")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// TransitionError reports which transition was attempted and from where.
type TransitionError struct {
	BookingID string
	From      BookingStatus
	Attempted string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("booking %s: cannot %s from %s", e.BookingID, e.Attempted, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// FolioStateError reports the folio state that rejected an operation.
type FolioStateError struct {
	FolioID string
	Status  FolioStatus
	Op      string
}

func (e *FolioStateError) Error() string {
	return fmt.Sprintf("folio %s: cannot %s while %s", e.FolioID, e.Op, e.Status)
}

func (e *FolioStateError) Unwrap() error { return ErrFolioClosed }

// NonEmptyFolioError carries the charge total blocking a cancellation.
type NonEmptyFolioError struct {
	BookingID    string
	FolioID      string
	ChargeCount  int
	TotalCharges money.Amount
}

func (e *NonEmptyFolioError) Error() string {
	return fmt.Sprintf("booking %s: folio %s has %d charge(s) totalling %s",
		e.BookingID, e.FolioID, e.ChargeCount, e.TotalCharges)
}

func (e *NonEmptyFolioError) Unwrap() error { return ErrNonEmptyFolioCancel }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is the caller's fault (HTTP 4xx).
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrNonEmptyFolioCancel) ||
		errors.Is(err, ErrFolioClosed) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrPastCheckIn) ||
		errors.Is(err, availability.ErrRoomUnavailable) ||
		errors.Is(err, availability.ErrInvalidStay) ||
		errors.Is(err, tax.ErrConfigMissing)
}

// IsNotFound reports whether the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFolioNotFound) ||
		errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrRoomNotFound) ||
		errors.Is(err, ErrGuestNotFound) ||
		errors.Is(err, ErrChargeNotFound)
}
