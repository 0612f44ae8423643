/*
bridge.go - Order posting and the folio bridge

POSTING RULES:
  pay_now:
    order + standalone charge + payment + receipt commit in one
    transaction. Standalone rows carry an empty folio ID so the revenue
    aggregator scans a single charge table for both kinds of sale.
  post_to_room:
    exactly one charge lands on the booking's OPEN folio, described as
    "POS Order #N (Sector)". Order and charge backlink each other. A
    closed folio rejects the order with the folio's state error.

CANCELLATION:
  Cancel works while the order's charge is unposted. Once posted, the
  only way out is CancelWithOffset: the folio charge gets an offsetting
  negation and the order is marked cancelled, in one transaction.
*/
package pos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kalongo/folio-engine/hotel"
	"github.com/kalongo/folio-engine/tax"
)

// Store adds point-of-sale persistence on top of the core store.
type Store interface {
	hotel.Store

	SaveMenuItem(ctx context.Context, m MenuItem) error
	GetMenuItem(ctx context.Context, id string) (*MenuItem, error)
	// ListMenuItems filters by sector; empty sector means all.
	ListMenuItems(ctx context.Context, sector hotel.Sector) ([]MenuItem, error)

	SaveOrder(ctx context.Context, o Order) error
	GetOrder(ctx context.Context, id string) (*Order, error)
	// ListOrders filters by sector and status; zero values mean all.
	ListOrders(ctx context.Context, sector hotel.Sector, status OrderStatus) ([]Order, error)
	// NextOrderNumber hands out the next human-facing order number.
	NextOrderNumber(ctx context.Context) (int64, error)
}

// TxStore shares the core store's transaction shape. The transaction
// scoped store handed to fn must also implement Store; the bridge
// upgrades it with a type assertion.
type TxStore interface {
	Store
	WithTx(ctx context.Context, fn func(hotel.Store) error) error
}

func upgrade(s hotel.Store) (Store, error) {
	ps, ok := s.(Store)
	if !ok {
		return nil, errors.New("store does not support point-of-sale")
	}
	return ps, nil
}

// Bridge creates orders and posts their money to the right ledger.
type Bridge struct {
	store TxStore
	now   func() time.Time
}

func NewBridge(store TxStore) *Bridge {
	return &Bridge{store: store, now: time.Now}
}

// WithClock overrides the bridge's clock. Tests only.
func (b *Bridge) WithClock(now func() time.Time) *Bridge {
	b.now = now
	return b
}

// OrderLine references a menu item and a quantity.
type OrderLine struct {
	MenuItemID string
	Quantity   int64
}

// OrderInput describes a new order.
type OrderInput struct {
	Sector hotel.Sector
	Intent PaymentIntent
	Lines  []OrderLine

	// BookingID is required for post_to_room.
	BookingID string
	// Method and Reference apply to pay_now.
	Method    hotel.PaymentMethod
	Reference string
}

// PostResult is everything PostOrder wrote.
type PostResult struct {
	Order   *Order
	Charge  *hotel.Charge
	Payment *hotel.Payment // pay_now only
	Receipt *hotel.Receipt // pay_now only
}

// =============================================================================
// POST ORDER
// =============================================================================

// PostOrder creates the order and posts its charge in one transaction.
// cfg is the tax configuration snapshot at this moment.
func (b *Bridge) PostOrder(ctx context.Context, in OrderInput, cfg tax.Config) (*PostResult, error) {
	if !hotel.ValidSector(in.Sector) {
		return nil, fmt.Errorf("%w: unknown sector %q", ErrInvalidOrder, in.Sector)
	}
	if len(in.Lines) == 0 {
		return nil, ErrEmptyOrder
	}
	switch in.Intent {
	case IntentPayNow:
		if !hotel.ValidPaymentMethod(in.Method) {
			return nil, fmt.Errorf("%w: unknown payment method %q", ErrInvalidOrder, in.Method)
		}
	case IntentPostToRoom:
		if in.BookingID == "" {
			return nil, ErrMissingBooking
		}
	default:
		return nil, fmt.Errorf("%w: unknown payment intent %q", ErrInvalidOrder, in.Intent)
	}
	if cfg.Enabled {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	result := &PostResult{}
	err := b.store.WithTx(ctx, func(txs hotel.Store) error {
		s, err := upgrade(txs)
		if err != nil {
			return err
		}

		items, err := b.resolveLines(ctx, s, in)
		if err != nil {
			return err
		}

		number, err := s.NextOrderNumber(ctx)
		if err != nil {
			return err
		}

		now := b.now()
		order := &Order{
			ID:        uuid.NewString(),
			Number:    number,
			Sector:    in.Sector,
			Items:     items,
			Status:    OrderNew,
			Intent:    in.Intent,
			BookingID: in.BookingID,
			CreatedAt: now,
			UpdatedAt: now,
		}

		breakdown := tax.Compute(order.Total(), cfg)
		charge := &hotel.Charge{
			ID:          uuid.NewString(),
			Sector:      in.Sector,
			Description: orderDescription(order),
			Quantity:    1,
			UnitPrice:   order.Total(),
			Net:         breakdown.Net,
			VAT:         breakdown.VAT,
			Gross:       breakdown.Gross,
			POSOrderID:  order.ID,
			PostedAt:    now,
		}

		switch in.Intent {
		case IntentPayNow:
			payment := &hotel.Payment{
				ID:          uuid.NewString(),
				Amount:      breakdown.Gross,
				Method:      in.Method,
				Reference:   in.Reference,
				ConfirmedAt: now,
			}
			receipt := &hotel.Receipt{
				ID:        uuid.NewString(),
				Number:    hotel.ReceiptNumber(payment.ID, now),
				PaymentID: payment.ID,
				Amount:    payment.Amount,
				IssuedAt:  now,
			}
			if err := s.AppendCharge(ctx, *charge); err != nil {
				return err
			}
			if err := s.AppendPayment(ctx, *payment); err != nil {
				return err
			}
			if err := s.SaveReceipt(ctx, *receipt); err != nil {
				return err
			}
			order.ChargeID = charge.ID
			order.PaymentID = payment.ID
			result.Payment = payment
			result.Receipt = receipt

		case IntentPostToRoom:
			folio, err := s.GetFolioByBooking(ctx, in.BookingID)
			if err != nil {
				return err
			}
			if folio == nil {
				return hotel.ErrFolioNotFound
			}
			if folio.Status != hotel.FolioOpen {
				return &hotel.FolioStateError{FolioID: folio.ID, Status: folio.Status, Op: "post order"}
			}
			charge.FolioID = folio.ID
			if err := s.AppendCharge(ctx, *charge); err != nil {
				return err
			}
			order.ChargeID = charge.ID
		}

		if err := s.SaveOrder(ctx, *order); err != nil {
			return err
		}
		result.Order = order
		result.Charge = charge
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (b *Bridge) resolveLines(ctx context.Context, s Store, in OrderInput) ([]OrderItem, error) {
	items := make([]OrderItem, 0, len(in.Lines))
	for _, line := range in.Lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity %d for item %s", ErrInvalidOrder, line.Quantity, line.MenuItemID)
		}
		item, err := s.GetMenuItem(ctx, line.MenuItemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, fmt.Errorf("%w: %s", ErrMenuItemNotFound, line.MenuItemID)
		}
		if !item.Available {
			return nil, fmt.Errorf("%w: %s", ErrMenuItemUnavailable, item.Name)
		}
		if item.Sector != in.Sector {
			return nil, fmt.Errorf("%w: %s is on the %s menu", ErrSectorMismatch, item.Name, item.Sector)
		}
		items = append(items, OrderItem{
			MenuItemID: item.ID,
			Name:       item.Name,
			Quantity:   line.Quantity,
			UnitPrice:  item.Price,
		})
	}
	return items, nil
}

func orderDescription(o *Order) string {
	return fmt.Sprintf("POS Order #%d (%s)", o.Number, sectorLabel(o.Sector))
}

func sectorLabel(s hotel.Sector) string {
	switch s {
	case hotel.SectorRooms:
		return "Rooms"
	case hotel.SectorRestaurant:
		return "Restaurant"
	case hotel.SectorBar:
		return "Bar"
	case hotel.SectorHousekeeping:
		return "Housekeeping"
	case hotel.SectorActivities:
		return "Activities"
	}
	return string(s)
}

// =============================================================================
// KITCHEN FLOW
// =============================================================================

// UpdateStatus advances the kitchen flow one step. Only the immediate
// next status is legal; skipping ahead or moving backwards is rejected.
func (b *Bridge) UpdateStatus(ctx context.Context, orderID string, to OrderStatus) (*Order, error) {
	var updated *Order
	err := b.store.WithTx(ctx, func(txs hotel.Store) error {
		s, err := upgrade(txs)
		if err != nil {
			return err
		}
		order, err := s.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.Status.next() != to {
			return &StatusError{OrderID: orderID, From: order.Status, Attempted: to}
		}
		order.Status = to
		order.UpdatedAt = b.now()
		if err := s.SaveOrder(ctx, *order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// =============================================================================
// CANCELLATION
// =============================================================================

// Cancel voids an order whose charge has not been posted. Posted orders
// must go through CancelWithOffset so the ledger stays balanced.
func (b *Bridge) Cancel(ctx context.Context, orderID string) (*Order, error) {
	var updated *Order
	err := b.store.WithTx(ctx, func(txs hotel.Store) error {
		s, err := upgrade(txs)
		if err != nil {
			return err
		}
		order, err := s.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.Posted() {
			return ErrChargePosted
		}
		if order.Status == OrderServed || order.Status == OrderCancelled {
			return &StatusError{OrderID: orderID, From: order.Status, Attempted: OrderCancelled}
		}
		order.Status = OrderCancelled
		order.UpdatedAt = b.now()
		if err := s.SaveOrder(ctx, *order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CancelWithOffset voids a posted post_to_room order: the folio charge
// gets an offsetting negation and the order is cancelled, atomically.
// pay_now orders are refunded at the till, not here.
func (b *Bridge) CancelWithOffset(ctx context.Context, orderID, reason string) (*Order, *hotel.Charge, error) {
	var (
		updated *Order
		offset  hotel.Charge
	)
	err := b.store.WithTx(ctx, func(txs hotel.Store) error {
		s, err := upgrade(txs)
		if err != nil {
			return err
		}
		order, err := s.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if !order.Posted() {
			return errors.New("order charge not posted, use Cancel")
		}
		if order.Intent != IntentPostToRoom {
			return fmt.Errorf("%w: pay_now orders are refunded at the till", ErrChargePosted)
		}
		if order.Status == OrderCancelled {
			return &StatusError{OrderID: orderID, From: order.Status, Attempted: OrderCancelled}
		}

		offset, err = hotel.AppendOffset(ctx, s, order.ChargeID, reason, b.now())
		if err != nil {
			return err
		}

		order.Status = OrderCancelled
		order.UpdatedAt = b.now()
		if err := s.SaveOrder(ctx, *order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, &offset, nil
}
