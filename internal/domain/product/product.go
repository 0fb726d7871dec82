package product

import (
	"errors"
	"time"

	"github.com/example/storefront/internal/domain/money"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("product variant not found")
)

// Product carries the stock fields the order/inventory engine needs. Catalog
// editing beyond stock quantity happens elsewhere.
type Product struct {
	ID             string      `json:"id"`
	StoreID        string      `json:"store_id"`
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	Price          money.Money `json:"price"`
	Quantity       int         `json:"quantity"`
	AllowBackorder bool        `json:"allow_backorder"`
	Variants       []Variant   `json:"variants,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Variant mirrors product-level stock, keyed by variant id in addition to
// product id.
type Variant struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Price          money.Money `json:"price"`
	Quantity       int         `json:"quantity"`
	AllowBackorder bool        `json:"allow_backorder"`
}

// Variant returns the variant with the given id.
func (p *Product) Variant(variantID string) (*Variant, error) {
	for i := range p.Variants {
		if p.Variants[i].ID == variantID {
			return &p.Variants[i], nil
		}
	}
	return nil, ErrVariantNotFound
}

// UnitPrice resolves the price an order item snapshots: the variant price when
// a variant is addressed, the product price otherwise.
func (p *Product) UnitPrice(variantID string) (money.Money, error) {
	if variantID == "" {
		return p.Price, nil
	}
	v, err := p.Variant(variantID)
	if err != nil {
		return money.Money{}, err
	}
	return v.Price, nil
}

// DisplayName is the name an order item snapshots.
func (p *Product) DisplayName(variantID string) (string, error) {
	if variantID == "" {
		return p.Name, nil
	}
	v, err := p.Variant(variantID)
	if err != nil {
		return "", err
	}
	return p.Name + " / " + v.Name, nil
}
