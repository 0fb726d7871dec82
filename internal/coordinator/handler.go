package coordinator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/example/storefront/internal/domain/inventory"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/event"
	"github.com/example/storefront/internal/repository"
)

// InventoryTx opens one unit of work for stock mutations and runs the
// callback against a ledger bound to it.
type InventoryTx interface {
	WithinTx(ctx context.Context, fn func(*inventory.Ledger) error) error
}

// Handler keeps stock consistent with order lifecycle events. OrderPlaced is
// the only trigger for reservation; OrderCancelled is the only trigger for
// restoration. Nothing else mutates stock on behalf of an order.
type Handler struct {
	tx     InventoryTx
	orders repository.OrderRepository
	logger zerolog.Logger
}

func NewHandler(tx InventoryTx, orders repository.OrderRepository, logger zerolog.Logger) *Handler {
	return &Handler{
		tx:     tx,
		orders: orders,
		logger: logger.With().Str("component", "coordinator").Logger(),
	}
}

// HandleEvent is subscribed to the in-process bus.
func (h *Handler) HandleEvent(ctx context.Context, evt event.Event) error {
	switch evt.EventType {
	case order.EventOrderPlaced:
		return h.handleOrderPlaced(ctx, evt.Data)
	case order.EventOrderCancelled:
		return h.handleOrderCancelled(ctx, evt.Data)
	default:
		return nil
	}
}

// handleOrderPlaced reserves stock for every item snapshot carried by the
// event. Items are independent: one short product does not block the others,
// it is logged and skipped. All reservations for one event share a single
// unit of work.
func (h *Handler) handleOrderPlaced(ctx context.Context, data json.RawMessage) error {
	var placed order.OrderPlaced
	if err := json.Unmarshal(data, &placed); err != nil {
		return fmt.Errorf("failed to unmarshal OrderPlaced: %w", err)
	}

	h.logger.Info().
		Str("order_id", placed.OrderID).
		Str("order_number", placed.OrderNumber).
		Int("items", len(placed.Items)).
		Msg("reserving stock")

	return h.tx.WithinTx(ctx, func(ledger *inventory.Ledger) error {
		for _, item := range placed.Items {
			if err := ledger.Reserve(ctx, item.ProductID, item.VariantID, placed.OrderID, item.Quantity); err != nil {
				h.logger.Error().
					Err(err).
					Str("order_id", placed.OrderID).
					Str("product_id", item.ProductID).
					Str("variant_id", item.VariantID).
					Int("quantity", item.Quantity).
					Msg("failed to reserve stock for item")
			}
		}
		return nil
	})
}

// handleOrderCancelled restores stock for every item on the cancelled order.
// The event carries no item snapshot, so the current order record is the
// source of quantities. Restoration is unconditional: it does not verify that
// a matching reservation succeeded.
func (h *Handler) handleOrderCancelled(ctx context.Context, data json.RawMessage) error {
	var cancelled order.OrderCancelled
	if err := json.Unmarshal(data, &cancelled); err != nil {
		return fmt.Errorf("failed to unmarshal OrderCancelled: %w", err)
	}

	o, err := h.orders.GetByID(ctx, cancelled.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load cancelled order %s: %w", cancelled.OrderID, err)
	}

	h.logger.Info().
		Str("order_id", o.ID).
		Str("order_number", string(o.Number)).
		Int("items", len(o.Items)).
		Msg("restoring stock")

	return h.tx.WithinTx(ctx, func(ledger *inventory.Ledger) error {
		for _, item := range o.Items {
			if err := ledger.Restore(ctx, item.ProductID, item.VariantID, o.ID, item.Quantity); err != nil {
				h.logger.Error().
					Err(err).
					Str("order_id", o.ID).
					Str("product_id", item.ProductID).
					Str("variant_id", item.VariantID).
					Msg("failed to restore stock for item")
			}
		}
		return nil
	})
}
