/*
Package pos is the point-of-sale side of the house: restaurant, bar and
activity orders, and the bridge that turns a served order into money on
a ledger.

PURPOSE:
  An order collects menu items for a sector. Payment happens one of two
  ways:
    pay_now      - guest pays at the till; a standalone charge, payment
                   and receipt are written (no folio involved)
    post_to_room - the order lands as a single charge on the guest's
                   open folio and is settled at checkout

KITCHEN FLOW:
  new -> preparing -> ready -> served. Strictly forward; a served order
  cannot go back to preparing. Cancellation is legal until the order's
  charge is posted.

SEE ALSO:
  - bridge.go: posting logic and folio integration
  - hotel/folio.go: the folio ledger charges land on
*/
package pos

import (
	"time"

	"github.com/kalongo/folio-engine/hotel"
	"github.com/kalongo/folio-engine/money"
)

// MenuItem is a sellable item in one sector's menu.
type MenuItem struct {
	ID        string
	Sector    hotel.Sector
	Name      string
	Category  string
	Price     money.Amount
	Available bool
}

// OrderStatus tracks the kitchen flow.
type OrderStatus string

const (
	OrderNew       OrderStatus = "new"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderServed    OrderStatus = "served"
	OrderCancelled OrderStatus = "cancelled"
)

// next returns the only legal forward transition, or "" from a terminal
// status.
func (s OrderStatus) next() OrderStatus {
	switch s {
	case OrderNew:
		return OrderPreparing
	case OrderPreparing:
		return OrderReady
	case OrderReady:
		return OrderServed
	}
	return ""
}

// PaymentIntent decides where the order's money goes.
type PaymentIntent string

const (
	IntentPayNow     PaymentIntent = "pay_now"
	IntentPostToRoom PaymentIntent = "post_to_room"
)

// OrderItem snapshots the menu item at order time. Menu price changes
// never rewrite past orders.
type OrderItem struct {
	MenuItemID string
	Name       string
	Quantity   int64
	UnitPrice  money.Amount
}

func (i OrderItem) LineTotal() money.Amount {
	return i.UnitPrice.MulInt(i.Quantity)
}

// Order is a sector order with its kitchen status and payment outcome.
type Order struct {
	ID     string
	Number int64 // human-facing sequential number
	Sector hotel.Sector
	Items  []OrderItem
	Status OrderStatus
	Intent PaymentIntent

	// BookingID is set for post_to_room orders.
	BookingID string
	// ChargeID backlinks the ledger charge once posted. An order with a
	// ChargeID can no longer be cancelled outright.
	ChargeID string
	// PaymentID backlinks the standalone payment for pay_now orders.
	PaymentID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Total sums the line totals. Derived, never stored.
func (o Order) Total() money.Amount {
	total := money.Zero()
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Posted reports whether the order's charge has been written to a ledger.
func (o Order) Posted() bool { return o.ChargeID != "" }
