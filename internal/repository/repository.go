// Package repository defines the storage contracts the engine depends on.
// Implementations live under internal/infrastructure.
package repository

import (
	"context"
	"errors"

	"github.com/example/storefront/internal/domain/customer"
	"github.com/example/storefront/internal/domain/inventory"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/otp"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/store"
)

// ErrDuplicateNumber is returned by OrderRepository.Save when another order
// in the same store already holds the number. Storage enforces uniqueness;
// the command layer retries with a fresh number.
var ErrDuplicateNumber = errors.New("order number already taken")

type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*order.Order, error)
	GetByNumber(ctx context.Context, storeID string, number order.Number) (*order.Order, error)
	ListByStore(ctx context.Context, storeID string) ([]*order.Order, error)
	// Save persists the order with its items, status history and notes.
	Save(ctx context.Context, o *order.Order) error
}

// OtpRepository persists passcodes independently of the order's own
// transaction boundary. Rows accumulate per order as a resend history.
type OtpRepository interface {
	Save(ctx context.Context, o *otp.OrderOtp) error
	// LatestByOrder returns the most recent row regardless of use.
	LatestByOrder(ctx context.Context, orderID string) (*otp.OrderOtp, error)
	// ActiveByOrder returns the most recent unused row.
	ActiveByOrder(ctx context.Context, orderID string) (*otp.OrderOtp, error)
}

type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
	ListByStore(ctx context.Context, storeID string) ([]*product.Product, error)
	Save(ctx context.Context, p *product.Product) error
}

type StoreRepository interface {
	GetByID(ctx context.Context, id string) (*store.Store, error)
	GetByMerchantEmail(ctx context.Context, email string) (*store.Store, error)
}

type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*customer.Customer, error)
	GetByEmail(ctx context.Context, storeID, email string) (*customer.Customer, error)
	Save(ctx context.Context, c *customer.Customer) error
}

// MovementRepository is the readable side of the movement log. The write side
// is inventory.MovementStore, satisfied by the same implementations.
type MovementRepository interface {
	Append(ctx context.Context, m inventory.Movement) error
	ListByProduct(ctx context.Context, productID string) ([]inventory.Movement, error)
}
