package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/storefront/internal/domain/customer"
)

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Save(ctx context.Context, c *customer.Customer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO customers (id, store_id, name, email, phone, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name,
		     phone = EXCLUDED.phone`,
		c.ID, c.StoreID, c.Name, c.Email, c.Phone, c.CreatedAt,
	)
	return err
}

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*customer.Customer, error) {
	return r.getOne(ctx,
		`SELECT id, store_id, name, email, phone, created_at
		 FROM customers WHERE id = $1`, id)
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, storeID, email string) (*customer.Customer, error) {
	return r.getOne(ctx,
		`SELECT id, store_id, name, email, phone, created_at
		 FROM customers WHERE store_id = $1 AND email = $2`, storeID, email)
}

func (r *CustomerRepository) getOne(ctx context.Context, query string, args ...any) (*customer.Customer, error) {
	var c customer.Customer
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&c.ID, &c.StoreID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customer.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
