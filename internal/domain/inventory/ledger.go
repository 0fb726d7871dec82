package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// LowStockThreshold is the advisory level: dropping below it after a
// reservation signals the merchant, it never blocks the reservation.
const LowStockThreshold = 10

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrNegativeStock     = errors.New("adjustment would drive stock negative")
	ErrZeroDelta         = errors.New("adjustment delta must not be zero")
)

// StockLevel is the cached quantity on a product or variant record.
type StockLevel struct {
	Quantity       int
	AllowBackorder bool
}

// StockStore is the storage contract for cached stock quantities. An empty
// variant id addresses product-level stock.
type StockStore interface {
	Get(ctx context.Context, productID, variantID string) (StockLevel, error)

	// DecrementIfAvailable performs "check available, then decrement" as a
	// single atomic storage step (a conditional update). It reports false,
	// without mutating, when fewer than qty units are available. This
	// atomicity is what prevents overselling under concurrent reservations.
	DecrementIfAvailable(ctx context.Context, productID, variantID string, qty int) (newQty int, ok bool, err error)

	// Decrement always applies, even below zero. Only the backorder path
	// uses it.
	Decrement(ctx context.Context, productID, variantID string, qty int) (newQty int, err error)

	// Increment always applies; restoring stock has no upper bound.
	Increment(ctx context.Context, productID, variantID string, qty int) (newQty int, err error)
}

// MovementStore appends to the immutable movement log.
type MovementStore interface {
	Append(ctx context.Context, m Movement) error
}

// LowStockFunc receives the advisory signal after a reservation leaves fewer
// than LowStockThreshold units of a non-backorder product.
type LowStockFunc func(productID, variantID string, remaining int)

// Ledger owns stock mutations: every quantity change goes through it and
// leaves exactly one movement record.
type Ledger struct {
	stock     StockStore
	movements MovementStore
	logger    zerolog.Logger

	// OnLowStock is optional; nil disables the advisory signal.
	OnLowStock LowStockFunc
}

func NewLedger(stock StockStore, movements MovementStore, logger zerolog.Logger) *Ledger {
	return &Ledger{
		stock:     stock,
		movements: movements,
		logger:    logger.With().Str("component", "inventory").Logger(),
	}
}

// Reserve decrements available stock for a confirmed order and appends a Sale
// movement. Without backorder, a short product fails with
// ErrInsufficientStock and nothing is mutated.
func (l *Ledger) Reserve(ctx context.Context, productID, variantID, orderID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	newQty, ok, err := l.stock.DecrementIfAvailable(ctx, productID, variantID, qty)
	if err != nil {
		return err
	}
	if !ok {
		level, err := l.stock.Get(ctx, productID, variantID)
		if err != nil {
			return err
		}
		if !level.AllowBackorder {
			return fmt.Errorf("%w: product %s has %d, need %d", ErrInsufficientStock, productID, level.Quantity, qty)
		}
		newQty, err = l.stock.Decrement(ctx, productID, variantID, qty)
		if err != nil {
			return err
		}
	}

	if err := l.movements.Append(ctx, newMovement(productID, variantID, -qty, newQty, ReasonSale, orderID)); err != nil {
		return err
	}

	l.maybeSignalLowStock(ctx, productID, variantID, newQty)
	return nil
}

// Restore credits stock back after a cancellation and appends a Return
// movement. It is a pure credit, not a reversal lookup: it must succeed even
// when no matching reservation ever happened.
func (l *Ledger) Restore(ctx context.Context, productID, variantID, orderID string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	newQty, err := l.stock.Increment(ctx, productID, variantID, qty)
	if err != nil {
		return err
	}
	return l.movements.Append(ctx, newMovement(productID, variantID, qty, newQty, ReasonReturn, orderID))
}

// Adjust applies a generic signed delta with the given reason. A negative
// delta that would drive quantity below zero is rejected without mutation.
func (l *Ledger) Adjust(ctx context.Context, productID, variantID string, delta int, reason Reason) error {
	if delta == 0 {
		return ErrZeroDelta
	}

	var (
		newQty int
		err    error
	)
	if delta > 0 {
		newQty, err = l.stock.Increment(ctx, productID, variantID, delta)
		if err != nil {
			return err
		}
	} else {
		var ok bool
		newQty, ok, err = l.stock.DecrementIfAvailable(ctx, productID, variantID, -delta)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: product %s, delta %d", ErrNegativeStock, productID, delta)
		}
	}

	return l.movements.Append(ctx, newMovement(productID, variantID, delta, newQty, reason, ""))
}

func (l *Ledger) maybeSignalLowStock(ctx context.Context, productID, variantID string, remaining int) {
	if remaining >= LowStockThreshold {
		return
	}
	level, err := l.stock.Get(ctx, productID, variantID)
	if err != nil || level.AllowBackorder {
		return
	}

	l.logger.Warn().
		Str("product_id", productID).
		Str("variant_id", variantID).
		Int("remaining", remaining).
		Msg("stock below threshold")
	if l.OnLowStock != nil {
		l.OnLowStock(productID, variantID, remaining)
	}
}
