package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/domain/inventory"
	"github.com/example/storefront/internal/domain/money"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/otp"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/store"
	"github.com/example/storefront/internal/event"
	"github.com/example/storefront/internal/infrastructure/memory"
	"github.com/example/storefront/internal/repository"
)

type sentOtp struct {
	to     string
	number order.Number
	code   string
}

type fakeMailer struct {
	sent []sentOtp
	err  error
}

func (m *fakeMailer) SendOrderOtp(to string, number order.Number, code string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentOtp{to: to, number: number, code: code})
	return nil
}

type testEnv struct {
	handler   *Handler
	orders    *memory.OrderRepository
	otps      *memory.OtpRepository
	products  *memory.ProductRepository
	stores    *memory.StoreRepository
	customers *memory.CustomerRepository
	movements *memory.MovementLog
	bus       *event.Bus
	mailer    *fakeMailer
	published []event.Event

	clock time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		orders:    memory.NewOrderRepository(),
		otps:      memory.NewOtpRepository(),
		products:  memory.NewProductRepository(),
		stores:    memory.NewStoreRepository(),
		customers: memory.NewCustomerRepository(),
		movements: memory.NewMovementLog(),
		mailer:    &fakeMailer{},
		clock:     time.Now(),
	}
	env.bus = event.NewBus(zerolog.Nop())
	env.bus.Subscribe(func(_ context.Context, evt event.Event) error {
		env.published = append(env.published, evt)
		return nil
	})

	tx := memory.NewInventoryTx(env.products, env.movements, zerolog.Nop())
	env.handler = NewHandler(env.orders, env.otps, env.products, env.stores, env.customers, tx, env.bus, env.mailer, zerolog.Nop())
	env.handler.now = func() time.Time { return env.clock }

	require.NoError(t, env.stores.Save(context.Background(), &store.Store{
		ID:            "store-1",
		Name:          "Cedar & Sage",
		Currency:      "USD",
		DeliveryFee:   money.MustParse("10.00", "USD"),
		RequireOtp:    true,
		MerchantEmail: "owner@cedarsage.example",
	}))
	require.NoError(t, env.stores.Save(context.Background(), &store.Store{
		ID:          "store-2",
		Name:        "No-Verify Goods",
		Currency:    "USD",
		DeliveryFee: money.Zero("USD"),
		RequireOtp:  false,
	}))
	require.NoError(t, env.products.Save(context.Background(), &product.Product{
		ID:       "prod-1",
		StoreID:  "store-1",
		Name:     "Ceramic Mug",
		Price:    money.MustParse("12.00", "USD"),
		Quantity: 100,
	}))
	require.NoError(t, env.products.Save(context.Background(), &product.Product{
		ID:       "prod-2",
		StoreID:  "store-1",
		Name:     "Tea Towel",
		Price:    money.MustParse("8.50", "USD"),
		Quantity: 40,
	}))

	return env
}

func validPlaceOrder() PlaceOrder {
	return PlaceOrder{
		StoreID:       "store-1",
		CustomerName:  "Asha Rao",
		CustomerEmail: "asha@example.com",
		CustomerPhone: "+1 555-0101",
		Items: []OrderItemInput{
			{ProductID: "prod-1", Quantity: 2},
		},
		Address: AddressInput{
			Line1:      "12 Elm Street",
			City:       "Springfield",
			PostalCode: "12345",
			Country:    "US",
		},
		PaymentMethod: "cash_on_delivery",
	}
}

func (env *testEnv) placedOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := env.handler.PlaceOrder(context.Background(), validPlaceOrder())
	require.NoError(t, err)
	return o
}

func (env *testEnv) confirmedOrder(t *testing.T) *order.Order {
	t.Helper()
	o := env.placedOrder(t)
	require.NoError(t, env.handler.SendOrderOtp(context.Background(), SendOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number)}))
	code, err := env.otps.ActiveByOrder(context.Background(), o.ID)
	require.NoError(t, err)
	confirmed, err := env.handler.VerifyOrderOtp(context.Background(), VerifyOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number), Code: code.Code})
	require.NoError(t, err)
	return confirmed
}

func (env *testEnv) eventTypes() []string {
	var types []string
	for _, evt := range env.published {
		types = append(types, evt.EventType)
	}
	return types
}

// ============================================
// PlaceOrder
// ============================================

func TestPlaceOrder_Success(t *testing.T) {
	env := newTestEnv(t)

	cmd := validPlaceOrder()
	cmd.Items = append(cmd.Items, OrderItemInput{ProductID: "prod-2", Quantity: 1})
	o, err := env.handler.PlaceOrder(context.Background(), cmd)

	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Len(t, o.Items, 2)

	// 2 x 12.00 + 1 x 8.50 = 32.50, plus the store's 10.00 delivery fee
	assert.Equal(t, "32.50 USD", o.Pricing.Subtotal.String())
	assert.Equal(t, "42.50 USD", o.Pricing.Total.String())

	_, err = order.ParseNumber(string(o.Number))
	assert.NoError(t, err)

	// customer was created for the store
	cust, err := env.customers.GetByEmail(context.Background(), "store-1", "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", cust.Name)
	assert.Equal(t, cust.ID, o.CustomerID)

	// placing alone publishes nothing and touches no stock
	assert.Empty(t, env.published)
	assert.Empty(t, env.movements.All())
	level, _ := env.products.Get(context.Background(), "prod-1", "")
	assert.Equal(t, 100, level.Quantity)
}

func TestPlaceOrder_SnapshotsPriceAtPlacement(t *testing.T) {
	env := newTestEnv(t)

	o := env.placedOrder(t)

	p, err := env.products.GetByID(context.Background(), "prod-1")
	require.NoError(t, err)
	p.Price = money.MustParse("99.00", "USD")
	require.NoError(t, env.products.Save(context.Background(), p))

	reloaded, err := env.orders.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, "12.00 USD", reloaded.Items[0].UnitPrice.String())
}

func TestPlaceOrder_ReturningCustomerReused(t *testing.T) {
	env := newTestEnv(t)

	first := env.placedOrder(t)

	cmd := validPlaceOrder()
	cmd.CustomerName = "Asha K. Rao"
	second, err := env.handler.PlaceOrder(context.Background(), cmd)
	require.NoError(t, err)

	assert.Equal(t, first.CustomerID, second.CustomerID)
	cust, err := env.customers.GetByID(context.Background(), second.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, "Asha K. Rao", cust.Name)
}

func TestPlaceOrder_ValidationFailures(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		mutate  func(*PlaceOrder)
		wantErr error
	}{
		{"missing name", func(c *PlaceOrder) { c.CustomerName = "" }, ErrMissingName},
		{"bad email", func(c *PlaceOrder) { c.CustomerEmail = "not-an-email" }, ErrInvalidEmail},
		{"bad phone", func(c *PlaceOrder) { c.CustomerPhone = "abc" }, ErrInvalidPhone},
		{"no items", func(c *PlaceOrder) { c.Items = nil }, order.ErrEmptyOrder},
		{"zero quantity", func(c *PlaceOrder) { c.Items[0].Quantity = 0 }, order.ErrInvalidQuantity},
		{"missing address", func(c *PlaceOrder) { c.Address.City = "" }, ErrMissingAddress},
		{"bad payment method", func(c *PlaceOrder) { c.PaymentMethod = "iou" }, order.ErrInvalidPaymentMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := validPlaceOrder()
			tt.mutate(&cmd)
			_, err := env.handler.PlaceOrder(context.Background(), cmd)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPlaceOrder_UnknownStore(t *testing.T) {
	env := newTestEnv(t)

	cmd := validPlaceOrder()
	cmd.StoreID = "store-missing"
	_, err := env.handler.PlaceOrder(context.Background(), cmd)

	assert.ErrorIs(t, err, store.ErrStoreNotFound)
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	cmd := validPlaceOrder()
	cmd.Items[0].ProductID = "prod-missing"
	_, err := env.handler.PlaceOrder(context.Background(), cmd)

	assert.ErrorIs(t, err, product.ErrProductNotFound)
}

func TestPlaceOrder_RetriesOnNumberCollision(t *testing.T) {
	env := newTestEnv(t)

	existing := env.placedOrder(t)

	// always draw the taken number first, then a free one
	draws := []order.Number{existing.Number, "ORD-777777"}
	env.handler.allocator.generate = func() (order.Number, error) {
		n := draws[0]
		if len(draws) > 1 {
			draws = draws[1:]
		}
		return n, nil
	}

	o, err := env.handler.PlaceOrder(context.Background(), validPlaceOrder())
	require.NoError(t, err)
	assert.Equal(t, order.Number("ORD-777777"), o.Number)
}

// ============================================
// SendOrderOtp
// ============================================

func TestSendOrderOtp_EmailsActiveCode(t *testing.T) {
	env := newTestEnv(t)
	o := env.placedOrder(t)

	err := env.handler.SendOrderOtp(context.Background(), SendOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number)})

	require.NoError(t, err)
	require.Len(t, env.mailer.sent, 1)
	assert.Equal(t, "asha@example.com", env.mailer.sent[0].to)
	assert.Equal(t, o.Number, env.mailer.sent[0].number)

	active, err := env.otps.ActiveByOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, env.mailer.sent[0].code, active.Code)
	assert.Len(t, active.Code, 6)
}

func TestSendOrderOtp_KeyedByStoreAndNumber(t *testing.T) {
	env := newTestEnv(t)
	o := env.placedOrder(t)

	// The right number under the wrong store resolves nothing.
	err := env.handler.SendOrderOtp(context.Background(), SendOrderOtp{StoreID: "store-2", OrderNumber: string(o.Number)})
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	// A malformed number is rejected before any lookup.
	err = env.handler.SendOrderOtp(context.Background(), SendOrderOtp{StoreID: o.StoreID, OrderNumber: "not-a-number"})
	assert.ErrorIs(t, err, order.ErrInvalidNumber)

	assert.Empty(t, env.mailer.sent)

	_, err = env.handler.VerifyOrderOtp(context.Background(), VerifyOrderOtp{StoreID: "store-2", OrderNumber: string(o.Number), Code: "123456"})
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestSendOrderOtp_ResendThrottled(t *testing.T) {
	env := newTestEnv(t)
	o := env.placedOrder(t)

	require.NoError(t, env.handler.SendOrderOtp(context.Background(), SendOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number)}))
	err := env.handler.SendOrderOtp(context.Background(), SendOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number)})

	assert.ErrorIs(t, err, otp.ErrResendTooSoon)
	assert.Len(t, env.mailer.sent, 1)
}

func TestSendOrderOtp_ResendAfterCooldownInvalidatesPrior(t *testing.T) {
	env := newTestEnv(t)
	o := env.placedOrder(t)

	require.NoError(t, env.handler.SendOrderOtp(context.Background(), SendOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number)}))
	first, err := env.otps.ActiveByOrder(context.Background(), o.ID)
	require.NoError(t, err)

	env.clock = env.clock.Add(otp.ResendCooldown + time.Second)
	require.NoError(t, env.handler.SendOrderOtp(context.Background(), SendOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number)}))

	active, err := env.otps.ActiveByOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, active.ID, "a fresh code replaces the old one")

	// the first code is dead now
	_, err = env.handler.VerifyOrderOtp(context.Background(), VerifyOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number), Code: first.Code})
	if first.Code != active.Code {
		assert.Error(t, err)
	}
}

func TestSendOrderOtp_RejectsNonPendingOrder(t *testing.T) {
	env := newTestEnv(t)
	o := env.confirmedOrder(t)

	err := env.handler.SendOrderOtp(context.Background(), SendOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number)})

	assert.ErrorIs(t, err, ErrOrderNotPending)
}

func TestSendOrderOtp_MailerFailureSurfaces(t *testing.T) {
	env := newTestEnv(t)
	o := env.placedOrder(t)
	env.mailer.err = errors.New("smtp down")

	err := env.handler.SendOrderOtp(context.Background(), SendOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number)})

	assert.Error(t, err)
}

// ============================================
// VerifyOrderOtp
// ============================================

func TestVerifyOrderOtp_ConfirmsAndPublishes(t *testing.T) {
	env := newTestEnv(t)
	o := env.placedOrder(t)
	require.NoError(t, env.handler.SendOrderOtp(context.Background(), SendOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number)}))
	code, err := env.otps.ActiveByOrder(context.Background(), o.ID)
	require.NoError(t, err)

	confirmed, err := env.handler.VerifyOrderOtp(context.Background(), VerifyOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number), Code: code.Code})

	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, confirmed.Status)
	assert.Equal(t, []string{order.EventOrderPlaced}, env.eventTypes())
	require.Len(t, env.published, 1)
	assert.Equal(t, o.ID, env.published[0].AggregateID)
	assert.Equal(t, order.AggregateType, env.published[0].AggregateType)

	used, err := env.otps.LatestByOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, used.IsUsed)
}

func TestVerifyOrderOtp_WrongCodePersistsAttempt(t *testing.T) {
	env := newTestEnv(t)
	o := env.placedOrder(t)
	require.NoError(t, env.handler.SendOrderOtp(context.Background(), SendOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number)}))

	_, err := env.handler.VerifyOrderOtp(context.Background(), VerifyOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number), Code: "000000"})

	assert.ErrorIs(t, err, otp.ErrInvalidCode)
	active, err := env.otps.ActiveByOrder(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, active.AttemptCount)
	assert.Empty(t, env.published, "a failed verification must not confirm")
}

func TestVerifyOrderOtp_MaxAttemptsThenCorrectCodeFails(t *testing.T) {
	env := newTestEnv(t)
	o := env.placedOrder(t)
	require.NoError(t, env.handler.SendOrderOtp(context.Background(), SendOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number)}))
	code, err := env.otps.ActiveByOrder(context.Background(), o.ID)
	require.NoError(t, err)
	wrong := "000000"
	if code.Code == wrong {
		wrong = "000001"
	}

	for i := 0; i < otp.MaxAttempts-1; i++ {
		_, err := env.handler.VerifyOrderOtp(context.Background(), VerifyOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number), Code: wrong})
		assert.ErrorIs(t, err, otp.ErrInvalidCode)
	}
	_, err = env.handler.VerifyOrderOtp(context.Background(), VerifyOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number), Code: wrong})
	assert.ErrorIs(t, err, otp.ErrMaxAttemptsReached)

	// even the correct code is dead after five failures
	_, err = env.handler.VerifyOrderOtp(context.Background(), VerifyOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number), Code: code.Code})
	assert.ErrorIs(t, err, otp.ErrMaxAttemptsReached)

	reloaded, err := env.orders.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, reloaded.Status)
}

func TestVerifyOrderOtp_ExpiredCode(t *testing.T) {
	env := newTestEnv(t)
	o := env.placedOrder(t)
	require.NoError(t, env.handler.SendOrderOtp(context.Background(), SendOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number)}))
	code, err := env.otps.ActiveByOrder(context.Background(), o.ID)
	require.NoError(t, err)

	env.clock = env.clock.Add(otp.TTL + time.Minute)
	_, err = env.handler.VerifyOrderOtp(context.Background(), VerifyOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number), Code: code.Code})

	assert.ErrorIs(t, err, otp.ErrExpired)
	// expiry consumed the code; there is no active one left
	_, err = env.otps.ActiveByOrder(context.Background(), o.ID)
	assert.ErrorIs(t, err, otp.ErrNotFound)
}

func TestVerifyOrderOtp_NoActiveCode(t *testing.T) {
	env := newTestEnv(t)
	o := env.placedOrder(t)

	_, err := env.handler.VerifyOrderOtp(context.Background(), VerifyOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number), Code: "123456"})

	assert.ErrorIs(t, err, otp.ErrNotFound)
}

// ============================================
// ConfirmOrder
// ============================================

func TestConfirmOrder_AllowedWhenStoreSkipsOtp(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.products.Save(context.Background(), &product.Product{
		ID:       "prod-3",
		StoreID:  "store-2",
		Name:     "Candle",
		Price:    money.MustParse("6.00", "USD"),
		Quantity: 10,
	}))

	cmd := validPlaceOrder()
	cmd.StoreID = "store-2"
	cmd.Items = []OrderItemInput{{ProductID: "prod-3", Quantity: 1}}
	o, err := env.handler.PlaceOrder(context.Background(), cmd)
	require.NoError(t, err)

	confirmed, err := env.handler.ConfirmOrder(context.Background(), ConfirmOrder{OrderID: o.ID})

	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, confirmed.Status)
	assert.Equal(t, []string{order.EventOrderPlaced}, env.eventTypes())
}

func TestConfirmOrder_BlockedWhenStoreRequiresOtp(t *testing.T) {
	env := newTestEnv(t)
	o := env.placedOrder(t)

	_, err := env.handler.ConfirmOrder(context.Background(), ConfirmOrder{OrderID: o.ID})

	assert.ErrorIs(t, err, ErrOtpRequired)
}

// ============================================
// Lifecycle transitions
// ============================================

func TestLifecycle_FullHappyPath(t *testing.T) {
	env := newTestEnv(t)
	o := env.confirmedOrder(t)

	require.NoError(t, env.handler.ProcessOrder(context.Background(), ProcessOrder{OrderID: o.ID}))
	require.NoError(t, env.handler.ShipOrder(context.Background(), ShipOrder{OrderID: o.ID}))
	require.NoError(t, env.handler.DeliverOrder(context.Background(), DeliverOrder{OrderID: o.ID}))

	final, err := env.orders.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, final.Status)
	assert.Equal(t, []string{order.EventOrderPlaced, order.EventOrderShipped, order.EventOrderDelivered}, env.eventTypes())

	// full audit trail: pending -> confirmed -> processing -> shipped -> delivered
	require.Len(t, final.History, 4)
	assert.Equal(t, order.StatusPending, final.History[0].From)
	assert.Equal(t, order.StatusDelivered, final.History[3].To)
}

func TestShipOrder_BlockedWhenUnpaid(t *testing.T) {
	env := newTestEnv(t)

	cmd := validPlaceOrder()
	cmd.PaymentMethod = "bank_transfer"
	o, err := env.handler.PlaceOrder(context.Background(), cmd)
	require.NoError(t, err)
	require.NoError(t, env.handler.SendOrderOtp(context.Background(), SendOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number)}))
	code, err := env.otps.ActiveByOrder(context.Background(), o.ID)
	require.NoError(t, err)
	_, err = env.handler.VerifyOrderOtp(context.Background(), VerifyOrderOtp{StoreID: o.StoreID, OrderNumber: string(o.Number), Code: code.Code})
	require.NoError(t, err)
	require.NoError(t, env.handler.ProcessOrder(context.Background(), ProcessOrder{OrderID: o.ID}))

	err = env.handler.ShipOrder(context.Background(), ShipOrder{OrderID: o.ID})
	assert.ErrorIs(t, err, order.ErrOrderNotPaid)

	require.NoError(t, env.handler.MarkOrderPaid(context.Background(), MarkOrderPaid{OrderID: o.ID, TransactionID: "txn-1"}))
	assert.NoError(t, env.handler.ShipOrder(context.Background(), ShipOrder{OrderID: o.ID}))
}

func TestCancelOrder_PublishesCancellation(t *testing.T) {
	env := newTestEnv(t)
	o := env.confirmedOrder(t)

	err := env.handler.CancelOrder(context.Background(), CancelOrder{OrderID: o.ID, Reason: "out of stock", Actor: "merchant"})

	require.NoError(t, err)
	final, err := env.orders.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, final.Status)
	assert.Equal(t, []string{order.EventOrderPlaced, order.EventOrderCancelled}, env.eventTypes())
}

func TestCancelOrder_DeliveredIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	o := env.confirmedOrder(t)
	require.NoError(t, env.handler.ProcessOrder(context.Background(), ProcessOrder{OrderID: o.ID}))
	require.NoError(t, env.handler.ShipOrder(context.Background(), ShipOrder{OrderID: o.ID}))
	require.NoError(t, env.handler.DeliverOrder(context.Background(), DeliverOrder{OrderID: o.ID}))

	err := env.handler.CancelOrder(context.Background(), CancelOrder{OrderID: o.ID, Reason: "too late"})

	assert.Error(t, err)
}

func TestAddMerchantNote_Appends(t *testing.T) {
	env := newTestEnv(t)
	o := env.placedOrder(t)

	require.NoError(t, env.handler.AddMerchantNote(context.Background(), AddMerchantNote{OrderID: o.ID, Note: "called customer"}))
	require.NoError(t, env.handler.AddMerchantNote(context.Background(), AddMerchantNote{OrderID: o.ID, Note: "confirmed address"}))

	final, err := env.orders.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"called customer", "confirmed address"}, final.MerchantNotes)
}

// ============================================
// AdjustStock
// ============================================

func TestAdjustStock_AppliesDeltaWithMovement(t *testing.T) {
	env := newTestEnv(t)

	err := env.handler.AdjustStock(context.Background(), AdjustStock{ProductID: "prod-1", Delta: -5, Reason: "damage"})

	require.NoError(t, err)
	level, err := env.products.Get(context.Background(), "prod-1", "")
	require.NoError(t, err)
	assert.Equal(t, 95, level.Quantity)

	moves := env.movements.All()
	require.Len(t, moves, 1)
	assert.Equal(t, inventory.ReasonDamage, moves[0].Reason)
	assert.Equal(t, -5, moves[0].Delta)
}

func TestAdjustStock_RejectsInvalidReason(t *testing.T) {
	env := newTestEnv(t)

	err := env.handler.AdjustStock(context.Background(), AdjustStock{ProductID: "prod-1", Delta: 1, Reason: "because"})
	assert.ErrorIs(t, err, ErrInvalidReason)

	// sale is reserved for the order flow
	err = env.handler.AdjustStock(context.Background(), AdjustStock{ProductID: "prod-1", Delta: -1, Reason: "sale"})
	assert.ErrorIs(t, err, ErrInvalidReason)
}

func TestAdjustStock_RejectsNegativeResult(t *testing.T) {
	env := newTestEnv(t)

	err := env.handler.AdjustStock(context.Background(), AdjustStock{ProductID: "prod-2", Delta: -41, Reason: "damage"})

	assert.ErrorIs(t, err, inventory.ErrNegativeStock)
	level, _ := env.products.Get(context.Background(), "prod-2", "")
	assert.Equal(t, 40, level.Quantity)
}

func TestAdjustStock_UnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	err := env.handler.AdjustStock(context.Background(), AdjustStock{ProductID: "prod-missing", Delta: 1, Reason: "purchase"})

	assert.ErrorIs(t, err, product.ErrProductNotFound)
}

// ============================================
// Allocator
// ============================================

func TestAllocator_SkipsTakenNumbers(t *testing.T) {
	env := newTestEnv(t)
	existing := env.placedOrder(t)

	alloc := NewAllocator(env.orders)
	draws := []order.Number{existing.Number, existing.Number, "ORD-424242"}
	alloc.generate = func() (order.Number, error) {
		n := draws[0]
		draws = draws[1:]
		return n, nil
	}

	n, err := alloc.Allocate(context.Background(), "store-1")
	require.NoError(t, err)
	assert.Equal(t, order.Number("ORD-424242"), n)
}

func TestAllocator_GivesUpAfterMaxAttempts(t *testing.T) {
	env := newTestEnv(t)
	existing := env.placedOrder(t)

	alloc := NewAllocator(env.orders)
	alloc.generate = func() (order.Number, error) { return existing.Number, nil }

	_, err := alloc.Allocate(context.Background(), "store-1")
	assert.ErrorIs(t, err, ErrNumberSpaceExhausted)
}

// Guard against a repository implementation forgetting the sentinel.
var _ repository.OrderRepository = (*memory.OrderRepository)(nil)
