package order

import (
	"testing"

	"github.com/example/storefront/internal/domain/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	number, err := NewNumber()
	require.NoError(t, err)

	o, err := New("store-1", "customer-1", number, money.MustParse("10.00", "USD"), Delivery{
		Address: Address{Line1: "1-2-3 Chuo", City: "Osaka", PostalCode: "541-0001", Country: "JP"},
	}, PaymentBankTransfer, "leave at the door")
	require.NoError(t, err)
	return o
}

// ============================================
// Item Mutation Tests
// ============================================

func TestOrder_AddItem_RecomputesPricing(t *testing.T) {
	o := newTestOrder(t)

	require.NoError(t, o.AddItem("prod-1", "", "Tea Set", money.MustParse("50.00", "USD"), 2))
	require.NoError(t, o.AddItem("prod-2", "", "Cup", money.MustParse("20.00", "USD"), 1))

	assert.True(t, o.Pricing.Subtotal.Equal(money.MustParse("120.00", "USD")))
	assert.True(t, o.Pricing.Total.Equal(money.MustParse("130.00", "USD")))
}

func TestOrder_AddItem_MergesByProduct(t *testing.T) {
	o := newTestOrder(t)

	require.NoError(t, o.AddItem("prod-1", "", "Tea Set", money.MustParse("50.00", "USD"), 2))
	require.NoError(t, o.AddItem("prod-1", "", "Tea Set", money.MustParse("50.00", "USD"), 3))

	require.Len(t, o.Items, 1)
	assert.Equal(t, 5, o.Items[0].Quantity)
	assert.True(t, o.Pricing.Subtotal.Equal(money.MustParse("250.00", "USD")))
}

func TestOrder_AddItem_DistinctVariantsKeptApart(t *testing.T) {
	o := newTestOrder(t)

	require.NoError(t, o.AddItem("prod-1", "var-red", "Tea Set (Red)", money.MustParse("50.00", "USD"), 1))
	require.NoError(t, o.AddItem("prod-1", "var-blue", "Tea Set (Blue)", money.MustParse("50.00", "USD"), 1))

	assert.Len(t, o.Items, 2)
}

func TestOrder_AddItem_ZeroQuantity(t *testing.T) {
	o := newTestOrder(t)

	err := o.AddItem("prod-1", "", "Tea Set", money.MustParse("50.00", "USD"), 0)

	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Empty(t, o.Items)
}

func TestOrder_AddItem_AfterConfirm(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.AddItem("prod-1", "", "Tea Set", money.MustParse("50.00", "USD"), 1))
	require.NoError(t, o.Confirm("customer-1"))

	err := o.AddItem("prod-2", "", "Cup", money.MustParse("20.00", "USD"), 1)

	assert.ErrorIs(t, err, ErrOrderNotModifiable)
	assert.Len(t, o.Items, 1)
}

func TestOrder_RemoveItem_RecomputesPricing(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.AddItem("prod-1", "", "Tea Set", money.MustParse("50.00", "USD"), 2))
	require.NoError(t, o.AddItem("prod-2", "", "Cup", money.MustParse("20.00", "USD"), 1))

	require.NoError(t, o.RemoveItem("prod-1", ""))

	assert.Len(t, o.Items, 1)
	assert.True(t, o.Pricing.Total.Equal(money.MustParse("30.00", "USD")))
}

func TestOrder_RemoveItem_NotFound(t *testing.T) {
	o := newTestOrder(t)

	err := o.RemoveItem("prod-404", "")

	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestOrder_UpdateItemQuantity(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.AddItem("prod-1", "", "Tea Set", money.MustParse("50.00", "USD"), 2))

	require.NoError(t, o.UpdateItemQuantity("prod-1", "", 4))

	assert.Equal(t, 4, o.Items[0].Quantity)
	assert.True(t, o.Pricing.Total.Equal(money.MustParse("210.00", "USD")))
}

func TestOrder_UpdateItemQuantity_Zero(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.AddItem("prod-1", "", "Tea Set", money.MustParse("50.00", "USD"), 2))

	err := o.UpdateItemQuantity("prod-1", "", 0)

	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, 2, o.Items[0].Quantity)
}

// ============================================
// State Machine Tests
// ============================================

func TestOrder_Confirm_EmptyOrder(t *testing.T) {
	o := newTestOrder(t)

	err := o.Confirm("customer-1")

	assert.ErrorIs(t, err, ErrEmptyOrder)
	assert.Equal(t, StatusPending, o.Status)
	assert.Empty(t, o.PullEvents())
}

func TestOrder_Confirm_RecordsPlacedEvent(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.AddItem("prod-1", "", "Tea Set", money.MustParse("50.00", "USD"), 2))
	require.NoError(t, o.AddItem("prod-2", "var-1", "Cup", money.MustParse("20.00", "USD"), 1))

	require.NoError(t, o.Confirm("customer-1"))

	assert.Equal(t, StatusConfirmed, o.Status)
	events := o.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventOrderPlaced, events[0].EventType)

	placed := events[0].Data.(OrderPlaced)
	assert.Equal(t, o.ID, placed.OrderID)
	assert.Equal(t, []PlacedItem{
		{ProductID: "prod-1", Quantity: 2},
		{ProductID: "prod-2", VariantID: "var-1", Quantity: 1},
	}, placed.Items)
	assert.True(t, placed.Total.Equal(money.MustParse("130.00", "USD")))
}

func TestOrder_FullLifecycle(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.AddItem("prod-1", "", "Tea Set", money.MustParse("50.00", "USD"), 1))

	require.NoError(t, o.Confirm("customer-1"))
	require.NoError(t, o.Process("merchant-1"))
	o.MarkPaid("txn-1")
	require.NoError(t, o.Ship("merchant-1"))
	require.NoError(t, o.Deliver("merchant-1"))

	assert.Equal(t, StatusDelivered, o.Status)
	require.Len(t, o.History, 4)
	assert.Equal(t, StatusPending, o.History[0].From)
	assert.Equal(t, StatusConfirmed, o.History[0].To)
	assert.Equal(t, StatusDelivered, o.History[3].To)
}

func TestOrder_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		attempt func(o *Order) error
	}{
		{"process pending", StatusPending, func(o *Order) error { return o.Process("m") }},
		{"ship pending", StatusPending, func(o *Order) error { return o.Ship("m") }},
		{"deliver confirmed", StatusConfirmed, func(o *Order) error { return o.Deliver("m") }},
		{"confirm shipped", StatusShipped, func(o *Order) error { return o.Confirm("m") }},
		{"deliver delivered", StatusDelivered, func(o *Order) error { return o.Deliver("m") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrder(t)
			require.NoError(t, o.AddItem("prod-1", "", "Tea Set", money.MustParse("50.00", "USD"), 1))
			o.Status = tt.from

			err := tt.attempt(o)

			assert.ErrorIs(t, err, ErrInvalidStatusTransition)
			assert.Equal(t, tt.from, o.Status)
		})
	}
}

func TestOrder_Ship_RequiresPayment(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.AddItem("prod-1", "", "Tea Set", money.MustParse("50.00", "USD"), 1))
	require.NoError(t, o.Confirm("customer-1"))
	require.NoError(t, o.Process("merchant-1"))

	err := o.Ship("merchant-1")

	assert.ErrorIs(t, err, ErrOrderNotPaid)
	assert.Equal(t, StatusProcessing, o.Status)
}

func TestOrder_Ship_CashOnDeliverySkipsPaymentCheck(t *testing.T) {
	o := newTestOrder(t)
	o.Payment.Method = PaymentCashOnDelivery
	require.NoError(t, o.AddItem("prod-1", "", "Tea Set", money.MustParse("50.00", "USD"), 1))
	require.NoError(t, o.Confirm("customer-1"))
	require.NoError(t, o.Process("merchant-1"))

	require.NoError(t, o.Ship("merchant-1"))

	assert.Equal(t, StatusShipped, o.Status)
}

func TestOrder_Cancel_RecordsCancelledEvent(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.AddItem("prod-1", "", "Tea Set", money.MustParse("50.00", "USD"), 1))
	require.NoError(t, o.Confirm("customer-1"))
	o.PullEvents()

	require.NoError(t, o.Cancel("out of stock at warehouse", "merchant-1"))

	assert.Equal(t, StatusCancelled, o.Status)
	events := o.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventOrderCancelled, events[0].EventType)
	assert.Equal(t, "out of stock at warehouse", events[0].Data.(OrderCancelled).Reason)
}

func TestOrder_Cancel_PendingOrderAllowed(t *testing.T) {
	o := newTestOrder(t)

	require.NoError(t, o.Cancel("changed my mind", "customer-1"))

	assert.Equal(t, StatusCancelled, o.Status)
}

func TestOrder_Cancel_TerminalStates(t *testing.T) {
	o := newTestOrder(t)
	o.Status = StatusDelivered
	assert.ErrorIs(t, o.Cancel("too late", "m"), ErrOrderDelivered)

	o.Status = StatusCancelled
	assert.ErrorIs(t, o.Cancel("again", "m"), ErrOrderCancelled)
}

// ============================================
// Notes and Events Tests
// ============================================

func TestOrder_AddMerchantNote_AppendOnly(t *testing.T) {
	o := newTestOrder(t)

	o.AddMerchantNote("called the customer")
	o.AddMerchantNote("confirmed the address")

	assert.Equal(t, "called the customer\nconfirmed the address", o.MerchantNoteLog())
}

func TestOrder_PullEvents_ClearsList(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.AddItem("prod-1", "", "Tea Set", money.MustParse("50.00", "USD"), 1))
	require.NoError(t, o.Confirm("customer-1"))

	first := o.PullEvents()
	second := o.PullEvents()

	assert.Len(t, first, 1)
	assert.Empty(t, second)
}
