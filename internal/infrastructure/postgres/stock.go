package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"

	"github.com/example/storefront/internal/domain/inventory"
	"github.com/example/storefront/internal/domain/product"
)

// Archiver receives movements after their transaction commits. Postgres is
// the system of record; archive failures are logged, never surfaced.
type Archiver interface {
	Archive(ctx context.Context, m inventory.Movement) error
}

// InventoryTx runs ledger work inside one database transaction: the stock
// updates and their movement rows commit or roll back together.
type InventoryTx struct {
	db     *sql.DB
	logger zerolog.Logger

	// OnLowStock is installed on every ledger handed to the callback.
	OnLowStock inventory.LowStockFunc

	// Archiver is optional; nil disables post-commit archiving.
	Archiver Archiver
}

func NewInventoryTx(db *sql.DB, logger zerolog.Logger) *InventoryTx {
	return &InventoryTx{db: db, logger: logger}
}

func (t *InventoryTx) WithinTx(ctx context.Context, fn func(*inventory.Ledger) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	movements := &txMovementStore{tx: tx}
	ledger := inventory.NewLedger(&txStockStore{tx: tx}, movements, t.logger)
	ledger.OnLowStock = t.OnLowStock
	if err := fn(ledger); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if t.Archiver != nil {
		for _, m := range movements.appended {
			if err := t.Archiver.Archive(ctx, m); err != nil {
				t.logger.Error().Err(err).Str("movement_id", m.ID).Msg("failed to archive movement")
			}
		}
	}
	return nil
}

// txStockStore mutates stock_levels rows inside the open transaction. The
// conditional decrement is a single guarded UPDATE, so two concurrent
// reservations can never both take the last unit.
type txStockStore struct {
	tx *sql.Tx
}

func (s *txStockStore) Get(ctx context.Context, productID, variantID string) (inventory.StockLevel, error) {
	var level inventory.StockLevel
	err := s.tx.QueryRowContext(ctx,
		`SELECT quantity, allow_backorder FROM stock_levels
		 WHERE product_id = $1 AND variant_id = $2`,
		productID, variantID,
	).Scan(&level.Quantity, &level.AllowBackorder)
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.StockLevel{}, stockNotFound(variantID)
	}
	if err != nil {
		return inventory.StockLevel{}, err
	}
	return level, nil
}

func (s *txStockStore) DecrementIfAvailable(ctx context.Context, productID, variantID string, qty int) (int, bool, error) {
	var newQty int
	err := s.tx.QueryRowContext(ctx,
		`UPDATE stock_levels SET quantity = quantity - $3
		 WHERE product_id = $1 AND variant_id = $2 AND quantity >= $3
		 RETURNING quantity`,
		productID, variantID, qty,
	).Scan(&newQty)
	if errors.Is(err, sql.ErrNoRows) {
		// either short or missing; Get disambiguates
		level, err := s.Get(ctx, productID, variantID)
		if err != nil {
			return 0, false, err
		}
		return level.Quantity, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return newQty, true, nil
}

func (s *txStockStore) Decrement(ctx context.Context, productID, variantID string, qty int) (int, error) {
	return s.apply(ctx, productID, variantID, -qty)
}

func (s *txStockStore) Increment(ctx context.Context, productID, variantID string, qty int) (int, error) {
	return s.apply(ctx, productID, variantID, qty)
}

func (s *txStockStore) apply(ctx context.Context, productID, variantID string, delta int) (int, error) {
	var newQty int
	err := s.tx.QueryRowContext(ctx,
		`UPDATE stock_levels SET quantity = quantity + $3
		 WHERE product_id = $1 AND variant_id = $2
		 RETURNING quantity`,
		productID, variantID, delta,
	).Scan(&newQty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, stockNotFound(variantID)
	}
	if err != nil {
		return 0, err
	}
	return newQty, nil
}

func stockNotFound(variantID string) error {
	if variantID != "" {
		return product.ErrVariantNotFound
	}
	return product.ErrProductNotFound
}

// txMovementStore appends movement rows inside the open transaction and
// remembers them so the archiver can replay them after commit.
type txMovementStore struct {
	tx       *sql.Tx
	appended []inventory.Movement
}

func (s *txMovementStore) Append(ctx context.Context, m inventory.Movement) error {
	_, err := s.tx.ExecContext(ctx,
		`INSERT INTO stock_movements (id, product_id, variant_id, delta, resulting, reason, order_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.ProductID, m.VariantID, m.Delta, m.Resulting, string(m.Reason), m.OrderID, m.CreatedAt,
	)
	if err != nil {
		return err
	}
	s.appended = append(s.appended, m)
	return nil
}
