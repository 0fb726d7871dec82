package command

// Order Commands
type OrderItemInput struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

type AddressInput struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type PlaceOrder struct {
	StoreID       string           `json:"store_id"`
	CustomerName  string           `json:"customer_name"`
	CustomerEmail string           `json:"customer_email"`
	CustomerPhone string           `json:"customer_phone"`
	Items         []OrderItemInput `json:"items"`
	Address       AddressInput     `json:"address"`
	Instructions  string           `json:"instructions,omitempty"`
	PaymentMethod string           `json:"payment_method"`
	CustomerNote  string           `json:"customer_note,omitempty"`
}

// The passcode commands are keyed by store and order number: they are issued
// by the customer, who only ever sees the number.
type SendOrderOtp struct {
	StoreID     string `json:"store_id"`
	OrderNumber string `json:"order_number"`
}

type VerifyOrderOtp struct {
	StoreID     string `json:"store_id"`
	OrderNumber string `json:"order_number"`
	Code        string `json:"code"`
}

type ConfirmOrder struct {
	OrderID string `json:"order_id"`
}

type ProcessOrder struct {
	OrderID string `json:"order_id"`
}

type ShipOrder struct {
	OrderID string `json:"order_id"`
}

type DeliverOrder struct {
	OrderID string `json:"order_id"`
}

type CancelOrder struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
	Actor   string `json:"actor"`
}

type MarkOrderPaid struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
}

type AddMerchantNote struct {
	OrderID string `json:"order_id"`
	Note    string `json:"note"`
}

// Inventory Commands
type AdjustStock struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
}
