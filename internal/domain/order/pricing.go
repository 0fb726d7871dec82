package order

import "github.com/example/storefront/internal/domain/money"

// Pricing is derived from the current items and the store's delivery fee.
// It is recomputed on every item mutation and never set directly.
type Pricing struct {
	Subtotal    money.Money `json:"subtotal"`
	DeliveryFee money.Money `json:"delivery_fee"`
	Total       money.Money `json:"total"`
}

// CalculatePricing is the pure pricing function:
// subtotal = sum(unit price * quantity), total = subtotal + delivery fee.
func CalculatePricing(items []Item, deliveryFee money.Money) (Pricing, error) {
	subtotal := money.Zero(deliveryFee.Currency)
	for _, item := range items {
		line, err := item.Total()
		if err != nil {
			return Pricing{}, err
		}
		subtotal, err = subtotal.Add(line)
		if err != nil {
			return Pricing{}, err
		}
	}

	total, err := subtotal.Add(deliveryFee)
	if err != nil {
		return Pricing{}, err
	}

	return Pricing{
		Subtotal:    subtotal,
		DeliveryFee: deliveryFee,
		Total:       total,
	}, nil
}
