package query

import (
	"time"

	"github.com/example/storefront/internal/domain/order"
)

// TrackingView is the customer-facing order view, addressed by order number.
// It hides merchant-only fields (notes, customer contact).
type TrackingView struct {
	OrderNumber string              `json:"order_number"`
	Status      order.Status        `json:"status"`
	Total       string              `json:"total"`
	Items       []TrackingItemView  `json:"items"`
	History     []TrackingEventView `json:"history"`
	PlacedAt    time.Time           `json:"placed_at"`
}

type TrackingItemView struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type TrackingEventView struct {
	Status    order.Status `json:"status"`
	ChangedAt time.Time    `json:"changed_at"`
}

func newTrackingView(o *order.Order) *TrackingView {
	items := make([]TrackingItemView, len(o.Items))
	for i, item := range o.Items {
		items[i] = TrackingItemView{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.String(),
		}
	}
	history := make([]TrackingEventView, len(o.History))
	for i, change := range o.History {
		history[i] = TrackingEventView{Status: change.To, ChangedAt: change.ChangedAt}
	}
	return &TrackingView{
		OrderNumber: o.Number.String(),
		Status:      o.Status,
		Total:       o.Pricing.Total.String(),
		Items:       items,
		History:     history,
		PlacedAt:    o.CreatedAt,
	}
}
