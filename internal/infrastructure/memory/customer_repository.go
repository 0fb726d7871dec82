package memory

import (
	"context"
	"sync"

	"github.com/example/storefront/internal/domain/customer"
)

type CustomerRepository struct {
	mu        sync.RWMutex
	customers map[string]*customer.Customer
	byEmail   map[string]string // storeID + "/" + email -> customer ID
}

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{
		customers: make(map[string]*customer.Customer),
		byEmail:   make(map[string]string),
	}
}

func emailKey(storeID, email string) string {
	return storeID + "/" + email
}

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.customers[id]
	if !ok {
		return nil, customer.ErrCustomerNotFound
	}
	return c, nil
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, storeID, email string) (*customer.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey(storeID, email)]
	if !ok {
		return nil, customer.ErrCustomerNotFound
	}
	return r.customers[id], nil
}

func (r *CustomerRepository) Save(ctx context.Context, c *customer.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.customers[c.ID] = c
	r.byEmail[emailKey(c.StoreID, c.Email)] = c.ID
	return nil
}
