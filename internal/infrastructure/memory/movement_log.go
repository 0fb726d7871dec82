package memory

import (
	"context"
	"sync"

	"github.com/example/storefront/internal/domain/inventory"
)

// MovementLog is an append-only slice of stock movements. Rows are never
// updated or removed once appended.
type MovementLog struct {
	mu   sync.RWMutex
	rows []inventory.Movement
}

func NewMovementLog() *MovementLog {
	return &MovementLog{}
}

func (l *MovementLog) Append(ctx context.Context, m inventory.Movement) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, m)
	return nil
}

func (l *MovementLog) ListByProduct(ctx context.Context, productID string) ([]inventory.Movement, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []inventory.Movement
	for _, m := range l.rows {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

// All returns every movement in append order.
func (l *MovementLog) All() []inventory.Movement {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]inventory.Movement(nil), l.rows...)
}
