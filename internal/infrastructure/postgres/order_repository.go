package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/lib/pq"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/repository"
)

// uniqueViolation is the PostgreSQL error code for a unique index hit.
const uniqueViolation = "23505"

// OrderRepository stores orders as one row per order with the item list,
// payment record, delivery details and status history in JSONB columns. The
// history columns are written whole on every save but rows are never deleted,
// so the audit trail only grows.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// orderRow mirrors the JSONB payload. The aggregate's unexported event list
// never hits storage.
type orderRow struct {
	Items         []order.Item         `json:"items"`
	Pricing       order.Pricing        `json:"pricing"`
	Payment       order.Payment        `json:"payment"`
	Delivery      order.Delivery       `json:"delivery"`
	MerchantNotes []string             `json:"merchant_notes"`
	History       []order.StatusChange `json:"history"`
}

func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	body, err := json.Marshal(orderRow{
		Items:         o.Items,
		Pricing:       o.Pricing,
		Payment:       o.Payment,
		Delivery:      o.Delivery,
		MerchantNotes: o.MerchantNotes,
		History:       o.History,
	})
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO orders (id, store_id, customer_id, number, status, customer_note, body, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE
		 SET status = EXCLUDED.status,
		     customer_note = EXCLUDED.customer_note,
		     body = EXCLUDED.body,
		     updated_at = EXCLUDED.updated_at`,
		o.ID, o.StoreID, o.CustomerID, string(o.Number), string(o.Status),
		o.CustomerNote, body, o.CreatedAt, o.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return repository.ErrDuplicateNumber
	}
	return err
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	return r.getOne(ctx,
		`SELECT id, store_id, customer_id, number, status, customer_note, body, created_at, updated_at
		 FROM orders WHERE id = $1`, id)
}

func (r *OrderRepository) GetByNumber(ctx context.Context, storeID string, number order.Number) (*order.Order, error) {
	return r.getOne(ctx,
		`SELECT id, store_id, customer_id, number, status, customer_note, body, created_at, updated_at
		 FROM orders WHERE store_id = $1 AND number = $2`, storeID, string(number))
}

func (r *OrderRepository) ListByStore(ctx context.Context, storeID string) ([]*order.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, store_id, customer_id, number, status, customer_note, body, created_at, updated_at
		 FROM orders WHERE store_id = $1
		 ORDER BY created_at DESC`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) getOne(ctx context.Context, query string, args ...any) (*order.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var (
		o      order.Order
		number string
		status string
		body   []byte
	)
	if err := row.Scan(&o.ID, &o.StoreID, &o.CustomerID, &number, &status, &o.CustomerNote, &body, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}

	var stored orderRow
	if err := json.Unmarshal(body, &stored); err != nil {
		return nil, err
	}

	o.Number = order.Number(number)
	o.Status = order.Status(status)
	o.Items = stored.Items
	o.Pricing = stored.Pricing
	o.Payment = stored.Payment
	o.Delivery = stored.Delivery
	o.MerchantNotes = stored.MerchantNotes
	o.History = stored.History
	return &o, nil
}
