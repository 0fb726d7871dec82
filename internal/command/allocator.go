package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/repository"
)

// maxNumberAttempts bounds the random draw. The space is small on purpose
// (numbers are read over the phone), so collisions are expected under load.
const maxNumberAttempts = 10

var ErrNumberSpaceExhausted = errors.New("could not allocate a free order number")

// NumberGenerator draws a candidate order number. Swapped for a deterministic
// one in tests.
type NumberGenerator func() (order.Number, error)

// Allocator hands out order numbers that are free at draw time. The unique
// index on (store_id, number) remains the real guarantee; callers retry the
// save on repository.ErrDuplicateNumber.
type Allocator struct {
	orders   repository.OrderRepository
	generate NumberGenerator
}

func NewAllocator(orders repository.OrderRepository) *Allocator {
	return &Allocator{orders: orders, generate: order.NewNumber}
}

func (a *Allocator) Allocate(ctx context.Context, storeID string) (order.Number, error) {
	for i := 0; i < maxNumberAttempts; i++ {
		number, err := a.generate()
		if err != nil {
			return "", fmt.Errorf("failed to generate order number: %w", err)
		}

		_, err = a.orders.GetByNumber(ctx, storeID, number)
		if errors.Is(err, order.ErrOrderNotFound) {
			return number, nil
		}
		if err != nil {
			return "", err
		}
		// taken, draw again
	}
	return "", ErrNumberSpaceExhausted
}
