package order

import (
	"time"

	"github.com/example/storefront/internal/domain/money"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderCancelled = "OrderCancelled"
	EventOrderShipped   = "OrderShipped"
	EventOrderDelivered = "OrderDelivered"
)

// Recorded is a domain event recorded by the aggregate. It is pulled by the
// caller after a successful save and published on the event bus.
type Recorded struct {
	EventType string
	Data      any
}

// PlacedItem is the per-item snapshot carried by OrderPlaced. It is the sole
// input the stock coordinator works from when reserving.
type PlacedItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

type OrderPlaced struct {
	OrderID     string       `json:"order_id"`
	OrderNumber string       `json:"order_number"`
	StoreID     string       `json:"store_id"`
	CustomerID  string       `json:"customer_id"`
	Items       []PlacedItem `json:"items"`
	Total       money.Money  `json:"total"`
	PlacedAt    time.Time    `json:"placed_at"`
}

type OrderCancelled struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	StoreID     string    `json:"store_id"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type OrderShipped struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	StoreID     string    `json:"store_id"`
	ShippedAt   time.Time `json:"shipped_at"`
}

type OrderDelivered struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	StoreID     string    `json:"store_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}
