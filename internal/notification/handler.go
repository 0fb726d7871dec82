package notification

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/example/storefront/internal/domain/customer"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/event"
	"github.com/example/storefront/internal/repository"
)

// Mailer is the slice of the email service the notifier needs.
type Mailer interface {
	SendOrderConfirmation(to string, o *order.Order) error
	SendOrderShipped(to string, o *order.Order) error
}

// Handler turns order lifecycle events into customer emails. It consumes the
// Kafka mirror of the bus, so notification delivery survives API restarts.
type Handler struct {
	mailer    Mailer
	orders    repository.OrderRepository
	customers repository.CustomerRepository
	logger    zerolog.Logger
}

func NewHandler(mailer Mailer, orders repository.OrderRepository, customers repository.CustomerRepository, logger zerolog.Logger) *Handler {
	return &Handler{
		mailer:    mailer,
		orders:    orders,
		customers: customers,
		logger:    logger.With().Str("component", "notifier").Logger(),
	}
}

// HandleMessage processes one Kafka record carrying an event envelope.
func (h *Handler) HandleMessage(ctx context.Context, key, value []byte) error {
	var evt event.Event
	if err := json.Unmarshal(value, &evt); err != nil {
		h.logger.Error().Err(err).Msg("failed to unmarshal event")
		return err
	}

	switch evt.EventType {
	case order.EventOrderPlaced:
		return h.handleOrderPlaced(ctx, evt)
	case order.EventOrderShipped:
		return h.handleOrderShipped(ctx, evt)
	default:
		return nil
	}
}

func (h *Handler) handleOrderPlaced(ctx context.Context, evt event.Event) error {
	var placed order.OrderPlaced
	if err := json.Unmarshal(evt.Data, &placed); err != nil {
		h.logger.Error().Err(err).Msg("failed to unmarshal OrderPlaced")
		return err
	}

	o, cust, err := h.load(ctx, placed.OrderID)
	if err != nil {
		// the order or customer vanished; nothing to retry
		h.logger.Error().Err(err).Str("order_id", placed.OrderID).Msg("skipping confirmation email")
		return nil
	}

	if err := h.mailer.SendOrderConfirmation(cust.Email, o); err != nil {
		h.logger.Error().Err(err).Str("order_id", o.ID).Msg("failed to send confirmation email")
		return err
	}

	h.logger.Info().
		Str("order_id", o.ID).
		Str("order_number", string(o.Number)).
		Msg("confirmation email sent")
	return nil
}

func (h *Handler) handleOrderShipped(ctx context.Context, evt event.Event) error {
	var shipped order.OrderShipped
	if err := json.Unmarshal(evt.Data, &shipped); err != nil {
		h.logger.Error().Err(err).Msg("failed to unmarshal OrderShipped")
		return err
	}

	o, cust, err := h.load(ctx, shipped.OrderID)
	if err != nil {
		h.logger.Error().Err(err).Str("order_id", shipped.OrderID).Msg("skipping shipping email")
		return nil
	}

	if err := h.mailer.SendOrderShipped(cust.Email, o); err != nil {
		h.logger.Error().Err(err).Str("order_id", o.ID).Msg("failed to send shipping email")
		return err
	}

	h.logger.Info().
		Str("order_id", o.ID).
		Str("order_number", string(o.Number)).
		Msg("shipping email sent")
	return nil
}

func (h *Handler) load(ctx context.Context, orderID string) (*order.Order, *customer.Customer, error) {
	o, err := h.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	cust, err := h.customers.GetByID(ctx, o.CustomerID)
	if err != nil {
		return nil, nil, err
	}
	return o, cust, nil
}
