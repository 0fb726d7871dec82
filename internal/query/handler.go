package query

import (
	"context"

	"github.com/example/storefront/internal/domain/inventory"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/repository"
)

// Handler serves reads straight from the repositories. Writes and reads share
// one store, so there is no projection lag to reason about.
type Handler struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	movements repository.MovementRepository
}

func NewHandler(orders repository.OrderRepository, products repository.ProductRepository, movements repository.MovementRepository) *Handler {
	return &Handler{orders: orders, products: products, movements: movements}
}

// Orders

func (h *Handler) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	return h.orders.GetByID(ctx, id)
}

func (h *Handler) ListStoreOrders(ctx context.Context, storeID string) ([]*order.Order, error) {
	return h.orders.ListByStore(ctx, storeID)
}

// TrackOrder is the public lookup: order number in, redacted view out.
func (h *Handler) TrackOrder(ctx context.Context, storeID, rawNumber string) (*TrackingView, error) {
	number, err := order.ParseNumber(rawNumber)
	if err != nil {
		return nil, err
	}
	o, err := h.orders.GetByNumber(ctx, storeID, number)
	if err != nil {
		return nil, err
	}
	return newTrackingView(o), nil
}

// Products

func (h *Handler) GetProduct(ctx context.Context, id string) (*product.Product, error) {
	return h.products.GetByID(ctx, id)
}

func (h *Handler) ListStoreProducts(ctx context.Context, storeID string) ([]*product.Product, error) {
	return h.products.ListByStore(ctx, storeID)
}

// Inventory

func (h *Handler) ListProductMovements(ctx context.Context, productID string) ([]inventory.Movement, error) {
	return h.movements.ListByProduct(ctx, productID)
}
