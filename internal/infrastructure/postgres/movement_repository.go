package postgres

import (
	"context"
	"database/sql"

	"github.com/example/storefront/internal/domain/inventory"
)

// MovementRepository reads and appends stock_movements rows outside a ledger
// transaction. There is no update or delete path; the table is append-only.
type MovementRepository struct {
	db *sql.DB
}

func NewMovementRepository(db *sql.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

func (r *MovementRepository) Append(ctx context.Context, m inventory.Movement) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stock_movements (id, product_id, variant_id, delta, resulting, reason, order_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.ProductID, m.VariantID, m.Delta, m.Resulting, string(m.Reason), m.OrderID, m.CreatedAt,
	)
	return err
}

func (r *MovementRepository) ListByProduct(ctx context.Context, productID string) ([]inventory.Movement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, product_id, variant_id, delta, resulting, reason, order_id, created_at
		 FROM stock_movements WHERE product_id = $1
		 ORDER BY created_at ASC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []inventory.Movement
	for rows.Next() {
		var (
			m      inventory.Movement
			reason string
		)
		if err := rows.Scan(&m.ID, &m.ProductID, &m.VariantID, &m.Delta, &m.Resulting, &reason, &m.OrderID, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Reason = inventory.Reason(reason)
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
