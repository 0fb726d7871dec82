package memory

import (
	"context"
	"sync"

	"github.com/example/storefront/internal/domain/store"
)

type StoreRepository struct {
	mu     sync.RWMutex
	stores map[string]*store.Store
}

func NewStoreRepository() *StoreRepository {
	return &StoreRepository{stores: make(map[string]*store.Store)}
}

func (r *StoreRepository) GetByID(ctx context.Context, id string) (*store.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.stores[id]
	if !ok {
		return nil, store.ErrStoreNotFound
	}
	return s, nil
}

func (r *StoreRepository) GetByMerchantEmail(ctx context.Context, email string) (*store.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.stores {
		if s.MerchantEmail == email {
			return s, nil
		}
	}
	return nil, store.ErrStoreNotFound
}

func (r *StoreRepository) Save(ctx context.Context, s *store.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[s.ID] = s
	return nil
}
