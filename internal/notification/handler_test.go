package notification

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/domain/customer"
	"github.com/example/storefront/internal/domain/money"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/event"
	"github.com/example/storefront/internal/infrastructure/memory"
)

type recordedSend struct {
	kind string
	to   string
}

type fakeMailer struct {
	sent []recordedSend
}

func (m *fakeMailer) SendOrderConfirmation(to string, _ *order.Order) error {
	m.sent = append(m.sent, recordedSend{kind: "confirmation", to: to})
	return nil
}

func (m *fakeMailer) SendOrderShipped(to string, _ *order.Order) error {
	m.sent = append(m.sent, recordedSend{kind: "shipped", to: to})
	return nil
}

func envelope(t *testing.T, eventType string, payload any) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	value, err := json.Marshal(event.Event{
		ID:            "evt-1",
		AggregateID:   "order-1",
		AggregateType: order.AggregateType,
		EventType:     eventType,
		Data:          data,
		Timestamp:     time.Now(),
	})
	require.NoError(t, err)
	return value
}

func seedOrder(t *testing.T, orders *memory.OrderRepository, customers *memory.CustomerRepository) *order.Order {
	t.Helper()

	cust := customer.New("store-1", "Asha Rao", "asha@example.com", "")
	require.NoError(t, customers.Save(context.Background(), cust))

	o, err := order.New("store-1", cust.ID, "ORD-111111", money.Zero("USD"), order.Delivery{}, order.PaymentCashOnDelivery, "")
	require.NoError(t, err)
	require.NoError(t, o.AddItem("prod-1", "", "Mug", money.MustParse("12.00", "USD"), 1))
	require.NoError(t, orders.Save(context.Background(), o))
	return o
}

func TestHandleMessage_OrderPlacedSendsConfirmation(t *testing.T) {
	orders := memory.NewOrderRepository()
	customers := memory.NewCustomerRepository()
	mailer := &fakeMailer{}
	h := NewHandler(mailer, orders, customers, zerolog.Nop())
	o := seedOrder(t, orders, customers)

	value := envelope(t, order.EventOrderPlaced, order.OrderPlaced{OrderID: o.ID})
	err := h.HandleMessage(context.Background(), []byte(o.ID), value)

	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "confirmation", mailer.sent[0].kind)
	assert.Equal(t, "asha@example.com", mailer.sent[0].to)
}

func TestHandleMessage_OrderShippedSendsNotice(t *testing.T) {
	orders := memory.NewOrderRepository()
	customers := memory.NewCustomerRepository()
	mailer := &fakeMailer{}
	h := NewHandler(mailer, orders, customers, zerolog.Nop())
	o := seedOrder(t, orders, customers)

	value := envelope(t, order.EventOrderShipped, order.OrderShipped{OrderID: o.ID})
	err := h.HandleMessage(context.Background(), []byte(o.ID), value)

	require.NoError(t, err)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "shipped", mailer.sent[0].kind)
}

func TestHandleMessage_UnknownOrderSkipped(t *testing.T) {
	mailer := &fakeMailer{}
	h := NewHandler(mailer, memory.NewOrderRepository(), memory.NewCustomerRepository(), zerolog.Nop())

	value := envelope(t, order.EventOrderPlaced, order.OrderPlaced{OrderID: "order-missing"})
	err := h.HandleMessage(context.Background(), []byte("order-missing"), value)

	assert.NoError(t, err, "a vanished order is logged, not retried")
	assert.Empty(t, mailer.sent)
}

func TestHandleMessage_IgnoresOtherEvents(t *testing.T) {
	mailer := &fakeMailer{}
	h := NewHandler(mailer, memory.NewOrderRepository(), memory.NewCustomerRepository(), zerolog.Nop())

	value := envelope(t, order.EventOrderCancelled, order.OrderCancelled{OrderID: "order-1"})
	err := h.HandleMessage(context.Background(), []byte("order-1"), value)

	require.NoError(t, err)
	assert.Empty(t, mailer.sent)
}

func TestHandleMessage_MalformedEnvelope(t *testing.T) {
	h := NewHandler(&fakeMailer{}, memory.NewOrderRepository(), memory.NewCustomerRepository(), zerolog.Nop())

	err := h.HandleMessage(context.Background(), nil, []byte("{not json"))

	assert.Error(t, err)
}
