package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/storefront/internal/domain/money"
	"github.com/google/uuid"
)

const AggregateType = "Order"

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrEmptyOrder              = errors.New("order must have at least one item")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrOrderNotModifiable      = errors.New("items can only be changed while the order is pending")
	ErrInvalidQuantity         = errors.New("quantity must be positive")
	ErrItemNotFound            = errors.New("order item not found")
	ErrOrderNotPaid            = errors.New("order must be paid before shipping")
	ErrOrderDelivered          = errors.New("order is already delivered")
	ErrOrderCancelled          = errors.New("order is already cancelled")
	ErrInvalidPaymentMethod    = errors.New("invalid payment method")
)

// validTransitions defines allowed state transitions
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {}, // terminal state
	StatusCancelled:  {}, // terminal state
}

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentBankTransfer   PaymentMethod = "bank_transfer"
	PaymentCreditCard     PaymentMethod = "credit_card"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentCashOnDelivery, PaymentBankTransfer, PaymentCreditCard:
		return PaymentMethod(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, s)
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Payment tracks payment state for the order. Gateway integration is external;
// this record only reflects what the gateway reported.
type Payment struct {
	Method        PaymentMethod `json:"method"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transaction_id,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	FailureReason string        `json:"failure_reason,omitempty"`
}

type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Delivery is immutable after order creation.
type Delivery struct {
	Address      Address `json:"address"`
	Instructions string  `json:"instructions,omitempty"`
}

// StatusChange is one append-only audit row. History is never edited.
type StatusChange struct {
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
	Actor     string    `json:"actor"`
	Note      string    `json:"note,omitempty"`
}

// Item snapshots the product name and unit price at add time. Later catalog
// edits never affect existing orders.
type Item struct {
	ID        string      `json:"id"`
	ProductID string      `json:"product_id"`
	VariantID string      `json:"variant_id,omitempty"`
	Name      string      `json:"name"`
	UnitPrice money.Money `json:"unit_price"`
	Quantity  int         `json:"quantity"`
}

// Total is the derived line total.
func (i Item) Total() (money.Money, error) {
	return i.UnitPrice.MulInt(i.Quantity)
}

type Order struct {
	ID            string         `json:"id"`
	StoreID       string         `json:"store_id"`
	CustomerID    string         `json:"customer_id"`
	Number        Number         `json:"number"`
	Status        Status         `json:"status"`
	Items         []Item         `json:"items"`
	Pricing       Pricing        `json:"pricing"`
	Payment       Payment        `json:"payment"`
	Delivery      Delivery       `json:"delivery"`
	CustomerNote  string         `json:"customer_note,omitempty"`
	MerchantNotes []string       `json:"merchant_notes,omitempty"`
	History       []StatusChange `json:"status_history"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	events []Recorded
}

// New creates a pending order with no items yet. The delivery fee fixes the
// order's currency.
func New(storeID, customerID string, number Number, deliveryFee money.Money, delivery Delivery, method PaymentMethod, customerNote string) (*Order, error) {
	pricing, err := CalculatePricing(nil, deliveryFee)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Order{
		ID:           uuid.New().String(),
		StoreID:      storeID,
		CustomerID:   customerID,
		Number:       number,
		Status:       StatusPending,
		Pricing:      pricing,
		Payment:      Payment{Method: method, Status: PaymentPending},
		Delivery:     delivery,
		CustomerNote: customerNote,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CanTransitionTo checks if the order can transition to the target status
func (o *Order) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[o.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// transitionError returns an appropriate error for an invalid transition
func (o *Order) transitionError(target Status) error {
	switch {
	case o.Status == StatusCancelled:
		return ErrOrderCancelled
	case o.Status == StatusDelivered && target == StatusCancelled:
		return ErrOrderDelivered
	default:
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStatusTransition, o.Status, target)
	}
}

// AddItem adds a product snapshot to the order. Adding a product that is
// already present increases its quantity instead of duplicating the line.
func (o *Order) AddItem(productID, variantID, name string, unitPrice money.Money, quantity int) error {
	if o.Status != StatusPending {
		return ErrOrderNotModifiable
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	merged := false
	for i := range o.Items {
		if o.Items[i].ProductID == productID && o.Items[i].VariantID == variantID {
			o.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		o.Items = append(o.Items, Item{
			ID:        uuid.New().String(),
			ProductID: productID,
			VariantID: variantID,
			Name:      name,
			UnitPrice: unitPrice,
			Quantity:  quantity,
		})
	}

	return o.recompute()
}

func (o *Order) RemoveItem(productID, variantID string) error {
	if o.Status != StatusPending {
		return ErrOrderNotModifiable
	}

	for i := range o.Items {
		if o.Items[i].ProductID == productID && o.Items[i].VariantID == variantID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			return o.recompute()
		}
	}
	return ErrItemNotFound
}

func (o *Order) UpdateItemQuantity(productID, variantID string, quantity int) error {
	if o.Status != StatusPending {
		return ErrOrderNotModifiable
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	for i := range o.Items {
		if o.Items[i].ProductID == productID && o.Items[i].VariantID == variantID {
			o.Items[i].Quantity = quantity
			return o.recompute()
		}
	}
	return ErrItemNotFound
}

// recompute keeps the pricing invariant: total always equals the calculator's
// output for the current items and delivery fee.
func (o *Order) recompute() error {
	pricing, err := CalculatePricing(o.Items, o.Pricing.DeliveryFee)
	if err != nil {
		return err
	}
	o.Pricing = pricing
	o.UpdatedAt = time.Now()
	return nil
}

// Confirm transitions pending -> confirmed and records the OrderPlaced event,
// the sole trigger for stock reservation.
func (o *Order) Confirm(actor string) error {
	if !o.CanTransitionTo(StatusConfirmed) {
		return o.transitionError(StatusConfirmed)
	}
	if len(o.Items) == 0 {
		return ErrEmptyOrder
	}

	o.changeStatus(StatusConfirmed, actor, "")

	items := make([]PlacedItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = PlacedItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		}
	}
	o.record(EventOrderPlaced, OrderPlaced{
		OrderID:     o.ID,
		OrderNumber: o.Number.String(),
		StoreID:     o.StoreID,
		CustomerID:  o.CustomerID,
		Items:       items,
		Total:       o.Pricing.Total,
		PlacedAt:    o.UpdatedAt,
	})
	return nil
}

func (o *Order) Process(actor string) error {
	if !o.CanTransitionTo(StatusProcessing) {
		return o.transitionError(StatusProcessing)
	}
	o.changeStatus(StatusProcessing, actor, "")
	return nil
}

// Ship requires payment unless the order is pay-on-delivery.
func (o *Order) Ship(actor string) error {
	if !o.CanTransitionTo(StatusShipped) {
		return o.transitionError(StatusShipped)
	}
	if o.Payment.Status != PaymentPaid && o.Payment.Method != PaymentCashOnDelivery {
		return ErrOrderNotPaid
	}

	o.changeStatus(StatusShipped, actor, "")
	o.record(EventOrderShipped, OrderShipped{
		OrderID:     o.ID,
		OrderNumber: o.Number.String(),
		StoreID:     o.StoreID,
		ShippedAt:   o.UpdatedAt,
	})
	return nil
}

func (o *Order) Deliver(actor string) error {
	if !o.CanTransitionTo(StatusDelivered) {
		return o.transitionError(StatusDelivered)
	}

	o.changeStatus(StatusDelivered, actor, "")
	o.record(EventOrderDelivered, OrderDelivered{
		OrderID:     o.ID,
		OrderNumber: o.Number.String(),
		StoreID:     o.StoreID,
		DeliveredAt: o.UpdatedAt,
	})
	return nil
}

// Cancel records the OrderCancelled event, the sole trigger for stock
// restoration. Restoration downstream is a pure credit, safe even when the
// order never reached confirmed.
func (o *Order) Cancel(reason, actor string) error {
	if !o.CanTransitionTo(StatusCancelled) {
		return o.transitionError(StatusCancelled)
	}

	o.changeStatus(StatusCancelled, actor, reason)
	o.record(EventOrderCancelled, OrderCancelled{
		OrderID:     o.ID,
		OrderNumber: o.Number.String(),
		StoreID:     o.StoreID,
		Reason:      reason,
		CancelledAt: o.UpdatedAt,
	})
	return nil
}

// MarkPaid records a successful payment reported by the gateway.
func (o *Order) MarkPaid(transactionID string) {
	now := time.Now()
	o.Payment.Status = PaymentPaid
	o.Payment.TransactionID = transactionID
	o.Payment.PaidAt = &now
	o.Payment.FailureReason = ""
	o.UpdatedAt = now
}

func (o *Order) MarkPaymentFailed(reason string) {
	o.Payment.Status = PaymentFailed
	o.Payment.FailureReason = reason
	o.UpdatedAt = time.Now()
}

func (o *Order) RefundPayment() {
	o.Payment.Status = PaymentRefunded
	o.UpdatedAt = time.Now()
}

// AddMerchantNote appends to the merchant note log. Notes are never edited
// or removed.
func (o *Order) AddMerchantNote(note string) {
	o.MerchantNotes = append(o.MerchantNotes, note)
	o.UpdatedAt = time.Now()
}

// MerchantNoteLog returns the newline-joined note log.
func (o *Order) MerchantNoteLog() string {
	return strings.Join(o.MerchantNotes, "\n")
}

func (o *Order) changeStatus(to Status, actor, note string) {
	now := time.Now()
	o.History = append(o.History, StatusChange{
		From:      o.Status,
		To:        to,
		ChangedAt: now,
		Actor:     actor,
		Note:      note,
	})
	o.Status = to
	o.UpdatedAt = now
}

func (o *Order) record(eventType string, data any) {
	o.events = append(o.events, Recorded{EventType: eventType, Data: data})
}

// PullEvents returns recorded events and clears the list so repeated saves do
// not publish twice.
func (o *Order) PullEvents() []Recorded {
	events := o.events
	o.events = nil
	return events
}
