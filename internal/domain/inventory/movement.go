package inventory

import (
	"time"

	"github.com/google/uuid"
)

type Reason string

const (
	ReasonInitial    Reason = "initial"
	ReasonPurchase   Reason = "purchase"
	ReasonSale       Reason = "sale"
	ReasonAdjustment Reason = "adjustment"
	ReasonReturn     Reason = "return"
	ReasonDamage     Reason = "damage"
	ReasonTransfer   Reason = "transfer"
)

// Movement is one immutable ledger entry: a signed quantity change, the
// quantity after applying it, and why it happened. Movements are never
// updated or deleted; current quantity is the fold over them, cached on the
// product record for fast reads.
type Movement struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	VariantID string    `json:"variant_id,omitempty"`
	Delta     int       `json:"delta"`
	Resulting int       `json:"resulting"`
	Reason    Reason    `json:"reason"`
	OrderID   string    `json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func newMovement(productID, variantID string, delta, resulting int, reason Reason, orderID string) Movement {
	return Movement{
		ID:        uuid.New().String(),
		ProductID: productID,
		VariantID: variantID,
		Delta:     delta,
		Resulting: resulting,
		Reason:    reason,
		OrderID:   orderID,
		CreatedAt: time.Now(),
	}
}
