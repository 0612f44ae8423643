package pos_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalongo/folio-engine/hotel"
	"github.com/kalongo/folio-engine/money"
	"github.com/kalongo/folio-engine/pos"
	"github.com/kalongo/folio-engine/store/sqlite"
	"github.com/kalongo/folio-engine/tax"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestBridge(t *testing.T) (*pos.Bridge, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return pos.NewBridge(store), store
}

func seedMenu(t *testing.T, store *sqlite.Store) {
	t.Helper()
	ctx := context.Background()

	items := []pos.MenuItem{
		{ID: "mi-ugali", Sector: hotel.SectorRestaurant, Name: "Ugali na Samaki", Category: "Mains", Price: money.FromInt(12000), Available: true},
		{ID: "mi-pilau", Sector: hotel.SectorRestaurant, Name: "Pilau", Category: "Mains", Price: money.FromInt(10000), Available: true},
		{ID: "mi-soda", Sector: hotel.SectorBar, Name: "Soda", Category: "Soft Drinks", Price: money.FromInt(2000), Available: true},
		{ID: "mi-offmenu", Sector: hotel.SectorRestaurant, Name: "Seasonal Special", Category: "Mains", Price: money.FromInt(15000), Available: false},
	}
	for _, item := range items {
		require.NoError(t, store.SaveMenuItem(ctx, item))
	}
}

func openFolioForBooking(t *testing.T, store *sqlite.Store, folioID, bookingID string) {
	t.Helper()
	require.NoError(t, store.CreateFolio(context.Background(), hotel.Folio{
		ID:        folioID,
		BookingID: bookingID,
		Status:    hotel.FolioOpen,
		CreatedAt: time.Now(),
	}))
}

func noTax() tax.Config { return tax.Config{} }

func vat18() tax.Config {
	return tax.Config{
		Enabled: true,
		Rate:    decimal.RequireFromString("0.18"),
		Mode:    tax.ModeExclusive,
	}
}

func restaurantOrder(intent pos.PaymentIntent) pos.OrderInput {
	in := pos.OrderInput{
		Sector: hotel.SectorRestaurant,
		Intent: intent,
		Lines: []pos.OrderLine{
			{MenuItemID: "mi-ugali", Quantity: 2},
			{MenuItemID: "mi-pilau", Quantity: 1},
		},
	}
	if intent == pos.IntentPayNow {
		in.Method = hotel.MethodCash
	}
	return in
}

// =============================================================================
// PAY NOW
// =============================================================================

func TestBridge_PostOrder_PayNow_WritesChargePaymentReceipt(t *testing.T) {
	// GIVEN: A restaurant order paid at the till, 18% exclusive VAT
	// WHEN: Posting it
	// THEN: Standalone charge + payment + receipt, no folio involved

	bridge, store := newTestBridge(t)
	seedMenu(t, store)
	ctx := context.Background()

	result, err := bridge.PostOrder(ctx, restaurantOrder(pos.IntentPayNow), vat18())
	require.NoError(t, err)

	// 2*12000 + 1*10000 = 34000 net, 6120 VAT, 40120 gross
	assert.Equal(t, "34000", result.Charge.Net.String())
	assert.Equal(t, "6120", result.Charge.VAT.String())
	assert.Equal(t, "40120", result.Charge.Gross.String())
	assert.Empty(t, result.Charge.FolioID, "pay_now charge is standalone")
	assert.Equal(t, result.Order.ID, result.Charge.POSOrderID)

	require.NotNil(t, result.Payment)
	assert.Equal(t, "40120", result.Payment.Amount.String())
	assert.Equal(t, hotel.MethodCash, result.Payment.Method)

	require.NotNil(t, result.Receipt)
	assert.Contains(t, result.Receipt.Number, "RCP-")
	assert.Equal(t, result.Payment.ID, result.Receipt.PaymentID)

	assert.Equal(t, result.Charge.ID, result.Order.ChargeID)
	assert.Equal(t, result.Payment.ID, result.Order.PaymentID)
}

func TestBridge_PostOrder_NumbersAreSequential(t *testing.T) {
	bridge, store := newTestBridge(t)
	seedMenu(t, store)
	ctx := context.Background()

	first, err := bridge.PostOrder(ctx, restaurantOrder(pos.IntentPayNow), noTax())
	require.NoError(t, err)
	second, err := bridge.PostOrder(ctx, restaurantOrder(pos.IntentPayNow), noTax())
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Order.Number)
	assert.Equal(t, int64(2), second.Order.Number)
}

func TestBridge_PostOrder_SnapshotsMenuPrices(t *testing.T) {
	// Changing the menu price after posting must not change the order.

	bridge, store := newTestBridge(t)
	seedMenu(t, store)
	ctx := context.Background()

	result, err := bridge.PostOrder(ctx, restaurantOrder(pos.IntentPayNow), noTax())
	require.NoError(t, err)

	require.NoError(t, store.SaveMenuItem(ctx, pos.MenuItem{
		ID: "mi-ugali", Sector: hotel.SectorRestaurant, Name: "Ugali na Samaki",
		Category: "Mains", Price: money.FromInt(99000), Available: true,
	}))

	stored, err := store.GetOrder(ctx, result.Order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "12000", stored.Items[0].UnitPrice.String())
	assert.Equal(t, "34000", stored.Total().String())
}

// =============================================================================
// POST TO ROOM
// =============================================================================

func TestBridge_PostOrder_PostToRoom_LandsOnFolio(t *testing.T) {
	// GIVEN: A guest with an open folio
	// WHEN: Posting a restaurant order to the room
	// THEN: One charge on the folio, described "POS Order #N (Restaurant)"

	bridge, store := newTestBridge(t)
	seedMenu(t, store)
	openFolioForBooking(t, store, "folio-1", "booking-1")
	ctx := context.Background()

	in := restaurantOrder(pos.IntentPostToRoom)
	in.BookingID = "booking-1"
	result, err := bridge.PostOrder(ctx, in, noTax())
	require.NoError(t, err)

	assert.Equal(t, "folio-1", result.Charge.FolioID)
	assert.Equal(t, fmt.Sprintf("POS Order #%d (Restaurant)", result.Order.Number), result.Charge.Description)
	assert.Nil(t, result.Payment, "post_to_room pays at checkout")
	assert.Nil(t, result.Receipt)

	charges, err := store.LoadCharges(ctx, "folio-1")
	require.NoError(t, err)
	require.Len(t, charges, 1)
	assert.Equal(t, result.Order.ID, charges[0].POSOrderID)
	assert.Equal(t, "34000", charges[0].Gross.String())
}

func TestBridge_PostOrder_PostToRoom_NoFolio_Rejected(t *testing.T) {
	bridge, store := newTestBridge(t)
	seedMenu(t, store)
	ctx := context.Background()

	in := restaurantOrder(pos.IntentPostToRoom)
	in.BookingID = "booking-unknown"
	_, err := bridge.PostOrder(ctx, in, noTax())

	assert.ErrorIs(t, err, hotel.ErrFolioNotFound)

	orders, listErr := store.ListOrders(ctx, "", "")
	require.NoError(t, listErr)
	assert.Empty(t, orders, "failed posting must leave no order behind")
}

func TestBridge_PostOrder_PostToRoom_ClosedFolio_Rejected(t *testing.T) {
	bridge, store := newTestBridge(t)
	seedMenu(t, store)
	openFolioForBooking(t, store, "folio-1", "booking-1")
	ctx := context.Background()
	closedAt := time.Now()
	require.NoError(t, store.UpdateFolioStatus(ctx, "folio-1", hotel.FolioClosed, &closedAt))

	in := restaurantOrder(pos.IntentPostToRoom)
	in.BookingID = "booking-1"
	_, err := bridge.PostOrder(ctx, in, noTax())

	assert.ErrorIs(t, err, hotel.ErrFolioClosed)
}

// =============================================================================
// INPUT VALIDATION
// =============================================================================

func TestBridge_PostOrder_Validation(t *testing.T) {
	bridge, store := newTestBridge(t)
	seedMenu(t, store)
	ctx := context.Background()

	t.Run("empty order", func(t *testing.T) {
		in := restaurantOrder(pos.IntentPayNow)
		in.Lines = nil
		_, err := bridge.PostOrder(ctx, in, noTax())
		assert.ErrorIs(t, err, pos.ErrEmptyOrder)
	})

	t.Run("unknown item", func(t *testing.T) {
		in := restaurantOrder(pos.IntentPayNow)
		in.Lines = []pos.OrderLine{{MenuItemID: "mi-nope", Quantity: 1}}
		_, err := bridge.PostOrder(ctx, in, noTax())
		assert.ErrorIs(t, err, pos.ErrMenuItemNotFound)
	})

	t.Run("unavailable item", func(t *testing.T) {
		in := restaurantOrder(pos.IntentPayNow)
		in.Lines = []pos.OrderLine{{MenuItemID: "mi-offmenu", Quantity: 1}}
		_, err := bridge.PostOrder(ctx, in, noTax())
		assert.ErrorIs(t, err, pos.ErrMenuItemUnavailable)
	})

	t.Run("wrong sector", func(t *testing.T) {
		in := restaurantOrder(pos.IntentPayNow)
		in.Lines = []pos.OrderLine{{MenuItemID: "mi-soda", Quantity: 1}}
		_, err := bridge.PostOrder(ctx, in, noTax())
		assert.ErrorIs(t, err, pos.ErrSectorMismatch)
	})

	t.Run("zero quantity", func(t *testing.T) {
		in := restaurantOrder(pos.IntentPayNow)
		in.Lines[0].Quantity = 0
		_, err := bridge.PostOrder(ctx, in, noTax())
		assert.ErrorIs(t, err, pos.ErrInvalidOrder)
	})

	t.Run("missing booking", func(t *testing.T) {
		in := restaurantOrder(pos.IntentPostToRoom)
		_, err := bridge.PostOrder(ctx, in, noTax())
		assert.ErrorIs(t, err, pos.ErrMissingBooking)
	})

	t.Run("bad method for pay_now", func(t *testing.T) {
		in := restaurantOrder(pos.IntentPayNow)
		in.Method = "goat"
		_, err := bridge.PostOrder(ctx, in, noTax())
		assert.ErrorIs(t, err, pos.ErrInvalidOrder)
	})
}

// =============================================================================
// KITCHEN FLOW
// =============================================================================

func TestBridge_UpdateStatus_ForwardOnly(t *testing.T) {
	// new -> preparing -> ready -> served, one step at a time.

	bridge, store := newTestBridge(t)
	seedMenu(t, store)
	ctx := context.Background()

	result, err := bridge.PostOrder(ctx, restaurantOrder(pos.IntentPayNow), noTax())
	require.NoError(t, err)
	orderID := result.Order.ID

	for _, next := range []pos.OrderStatus{pos.OrderPreparing, pos.OrderReady, pos.OrderServed} {
		order, err := bridge.UpdateStatus(ctx, orderID, next)
		require.NoError(t, err)
		assert.Equal(t, next, order.Status)
	}

	// Served is terminal.
	_, err = bridge.UpdateStatus(ctx, orderID, pos.OrderPreparing)
	var statusErr *pos.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, pos.OrderServed, statusErr.From)
}

func TestBridge_UpdateStatus_NoSkipping(t *testing.T) {
	bridge, store := newTestBridge(t)
	seedMenu(t, store)
	ctx := context.Background()

	result, err := bridge.PostOrder(ctx, restaurantOrder(pos.IntentPayNow), noTax())
	require.NoError(t, err)

	_, err = bridge.UpdateStatus(ctx, result.Order.ID, pos.OrderServed)
	var statusErr *pos.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, pos.OrderNew, statusErr.From)
	assert.True(t, pos.IsClientError(err))
}

// =============================================================================
// CANCELLATION
// =============================================================================

func TestBridge_Cancel_PostedOrder_Rejected(t *testing.T) {
	// A pay_now order has its charge the moment it posts; plain Cancel
	// must refuse.

	bridge, store := newTestBridge(t)
	seedMenu(t, store)
	ctx := context.Background()

	result, err := bridge.PostOrder(ctx, restaurantOrder(pos.IntentPayNow), noTax())
	require.NoError(t, err)

	_, err = bridge.Cancel(ctx, result.Order.ID)
	assert.ErrorIs(t, err, pos.ErrChargePosted)
}

func TestBridge_CancelWithOffset_ReversesFolioCharge(t *testing.T) {
	// GIVEN: A post_to_room order whose charge is on the folio
	// WHEN: Cancelling with an offset
	// THEN: The folio gains a negated charge and the order is cancelled

	bridge, store := newTestBridge(t)
	seedMenu(t, store)
	openFolioForBooking(t, store, "folio-1", "booking-1")
	ctx := context.Background()

	in := restaurantOrder(pos.IntentPostToRoom)
	in.BookingID = "booking-1"
	result, err := bridge.PostOrder(ctx, in, noTax())
	require.NoError(t, err)

	order, offset, err := bridge.CancelWithOffset(ctx, result.Order.ID, "kitchen out of fish")
	require.NoError(t, err)

	assert.Equal(t, pos.OrderCancelled, order.Status)
	assert.Equal(t, result.Charge.ID, offset.OffsetsID)
	assert.Equal(t, "-34000", offset.Gross.String())

	charges, err := store.LoadCharges(ctx, "folio-1")
	require.NoError(t, err)
	assert.Len(t, charges, 2)

	total := money.Zero()
	for _, c := range charges {
		total = total.Add(c.Gross)
	}
	assert.True(t, total.IsZero(), "offset must zero the folio impact")
}

func TestBridge_CancelWithOffset_Twice_Rejected(t *testing.T) {
	bridge, store := newTestBridge(t)
	seedMenu(t, store)
	openFolioForBooking(t, store, "folio-1", "booking-1")
	ctx := context.Background()

	in := restaurantOrder(pos.IntentPostToRoom)
	in.BookingID = "booking-1"
	result, err := bridge.PostOrder(ctx, in, noTax())
	require.NoError(t, err)

	_, _, err = bridge.CancelWithOffset(ctx, result.Order.ID, "first")
	require.NoError(t, err)

	_, _, err = bridge.CancelWithOffset(ctx, result.Order.ID, "second")
	assert.Error(t, err)
}

func TestBridge_Cancel_UnpostedOrder_Allowed(t *testing.T) {
	// Regression-style check on the unposted path: force an order into
	// the store without a charge and cancel it.

	bridge, store := newTestBridge(t)
	seedMenu(t, store)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, store.SaveOrder(ctx, pos.Order{
		ID: "order-draft", Number: 99, Sector: hotel.SectorBar,
		Status: pos.OrderNew, Intent: pos.IntentPayNow,
		Items:     []pos.OrderItem{{MenuItemID: "mi-soda", Name: "Soda", Quantity: 1, UnitPrice: money.FromInt(2000)}},
		CreatedAt: now, UpdatedAt: now,
	}))

	order, err := bridge.Cancel(ctx, "order-draft")
	require.NoError(t, err)
	assert.Equal(t, pos.OrderCancelled, order.Status)
}
