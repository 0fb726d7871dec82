package memory

import (
	"context"
	"sync"

	"github.com/example/storefront/internal/domain/inventory"
	"github.com/example/storefront/internal/domain/product"
)

// ProductRepository keeps products in memory. It doubles as the ledger's
// StockStore: the same records back both catalog reads and stock mutations.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*product.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[string]*product.Product)}
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return p, nil
}

func (r *ProductRepository) ListByStore(ctx context.Context, storeID string) ([]*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*product.Product
	for _, p := range r.products {
		if p.StoreID == storeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ProductRepository) Save(ctx context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p
	return nil
}

// stock resolves the quantity cell and backorder flag for a product or
// variant key. Callers must hold the lock.
func (r *ProductRepository) stock(productID, variantID string) (*int, bool, error) {
	p, ok := r.products[productID]
	if !ok {
		return nil, false, product.ErrProductNotFound
	}
	if variantID == "" {
		return &p.Quantity, p.AllowBackorder, nil
	}
	v, err := p.Variant(variantID)
	if err != nil {
		return nil, false, err
	}
	return &v.Quantity, v.AllowBackorder, nil
}

func (r *ProductRepository) Get(ctx context.Context, productID, variantID string) (inventory.StockLevel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	qty, backorder, err := r.stock(productID, variantID)
	if err != nil {
		return inventory.StockLevel{}, err
	}
	return inventory.StockLevel{Quantity: *qty, AllowBackorder: backorder}, nil
}

func (r *ProductRepository) DecrementIfAvailable(ctx context.Context, productID, variantID string, qty int) (int, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cell, _, err := r.stock(productID, variantID)
	if err != nil {
		return 0, false, err
	}
	if *cell < qty {
		return *cell, false, nil
	}
	*cell -= qty
	return *cell, true, nil
}

func (r *ProductRepository) Decrement(ctx context.Context, productID, variantID string, qty int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cell, _, err := r.stock(productID, variantID)
	if err != nil {
		return 0, err
	}
	*cell -= qty
	return *cell, nil
}

func (r *ProductRepository) Increment(ctx context.Context, productID, variantID string, qty int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cell, _, err := r.stock(productID, variantID)
	if err != nil {
		return 0, err
	}
	*cell += qty
	return *cell, nil
}
