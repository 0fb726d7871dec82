package memory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/example/storefront/internal/domain/inventory"
)

// InventoryTx runs ledger work against the in-memory stores. There is no real
// transaction to open: per-key atomicity comes from the locked conditional
// decrement, and the callback runs directly against the live maps.
type InventoryTx struct {
	products  *ProductRepository
	movements *MovementLog
	logger    zerolog.Logger

	// OnLowStock is installed on every ledger handed to the callback.
	OnLowStock inventory.LowStockFunc
}

func NewInventoryTx(products *ProductRepository, movements *MovementLog, logger zerolog.Logger) *InventoryTx {
	return &InventoryTx{products: products, movements: movements, logger: logger}
}

func (t *InventoryTx) WithinTx(ctx context.Context, fn func(*inventory.Ledger) error) error {
	ledger := inventory.NewLedger(t.products, t.movements, t.logger)
	ledger.OnLowStock = t.OnLowStock
	return fn(ledger)
}
