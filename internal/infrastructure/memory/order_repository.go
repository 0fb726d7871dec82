package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/repository"
)

type OrderRepository struct {
	mu      sync.RWMutex
	orders  map[string]*order.Order
	numbers map[string]string // storeID + "/" + number -> order ID
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:  make(map[string]*order.Order),
		numbers: make(map[string]string),
	}
}

func numberKey(storeID string, number order.Number) string {
	return storeID + "/" + string(number)
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

func (r *OrderRepository) GetByNumber(ctx context.Context, storeID string, number order.Number) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.numbers[numberKey(storeID, number)]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return r.orders[id], nil
}

func (r *OrderRepository) ListByStore(ctx context.Context, storeID string) ([]*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*order.Order
	for _, o := range r.orders {
		if o.StoreID == storeID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := numberKey(o.StoreID, o.Number)
	if existing, ok := r.numbers[key]; ok && existing != o.ID {
		return repository.ErrDuplicateNumber
	}
	r.orders[o.ID] = o
	r.numbers[key] = o.ID
	return nil
}
