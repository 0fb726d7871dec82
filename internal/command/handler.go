package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/storefront/internal/domain/customer"
	"github.com/example/storefront/internal/domain/inventory"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/otp"
	"github.com/example/storefront/internal/event"
	"github.com/example/storefront/internal/repository"
)

// maxSaveAttempts bounds retries when the unique number index rejects a save
// that raced another allocation.
const maxSaveAttempts = 3

// OtpMailer delivers a passcode to the customer. Failure to send is an error
// for the caller; the code row is already persisted when sending starts.
type OtpMailer interface {
	SendOrderOtp(to string, number order.Number, code string) error
}

// InventoryTx opens one unit of work for stock mutations.
type InventoryTx interface {
	WithinTx(ctx context.Context, fn func(*inventory.Ledger) error) error
}

// Handler executes state-changing workflows. Every workflow loads, mutates
// through aggregate methods, saves, and only then publishes the recorded
// events on the bus.
type Handler struct {
	orders    repository.OrderRepository
	otps      repository.OtpRepository
	products  repository.ProductRepository
	stores    repository.StoreRepository
	customers repository.CustomerRepository
	inventory InventoryTx
	allocator *Allocator
	bus       *event.Bus
	mailer    OtpMailer
	logger    zerolog.Logger

	// now is swapped in tests to control expiry and cooldown clocks.
	now func() time.Time
}

func NewHandler(
	orders repository.OrderRepository,
	otps repository.OtpRepository,
	products repository.ProductRepository,
	stores repository.StoreRepository,
	customers repository.CustomerRepository,
	inventoryTx InventoryTx,
	bus *event.Bus,
	mailer OtpMailer,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		orders:    orders,
		otps:      otps,
		products:  products,
		stores:    stores,
		customers: customers,
		inventory: inventoryTx,
		allocator: NewAllocator(orders),
		bus:       bus,
		mailer:    mailer,
		logger:    logger.With().Str("component", "command").Logger(),
		now:       time.Now,
	}
}

// PlaceOrder creates a pending order with snapshotted items. It does not
// reserve stock and does not send a passcode; confirmation is a separate
// step.
func (h *Handler) PlaceOrder(ctx context.Context, cmd PlaceOrder) (*order.Order, error) {
	if err := validatePlaceOrder(cmd); err != nil {
		return nil, err
	}
	method, err := order.ParsePaymentMethod(cmd.PaymentMethod)
	if err != nil {
		return nil, err
	}

	st, err := h.stores.GetByID(ctx, cmd.StoreID)
	if err != nil {
		return nil, err
	}

	cust, err := h.findOrCreateCustomer(ctx, cmd)
	if err != nil {
		return nil, err
	}

	delivery := order.Delivery{
		Address: order.Address{
			Line1:      cmd.Address.Line1,
			Line2:      cmd.Address.Line2,
			City:       cmd.Address.City,
			State:      cmd.Address.State,
			PostalCode: cmd.Address.PostalCode,
			Country:    cmd.Address.Country,
		},
		Instructions: cmd.Instructions,
	}

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		number, err := h.allocator.Allocate(ctx, st.ID)
		if err != nil {
			return nil, err
		}

		o, err := order.New(st.ID, cust.ID, number, st.DeliveryFee, delivery, method, cmd.CustomerNote)
		if err != nil {
			return nil, err
		}
		for _, item := range cmd.Items {
			p, err := h.products.GetByID(ctx, item.ProductID)
			if err != nil {
				return nil, err
			}
			price, err := p.UnitPrice(item.VariantID)
			if err != nil {
				return nil, err
			}
			name, err := p.DisplayName(item.VariantID)
			if err != nil {
				return nil, err
			}
			if err := o.AddItem(item.ProductID, item.VariantID, name, price, item.Quantity); err != nil {
				return nil, err
			}
		}

		err = h.orders.Save(ctx, o)
		if errors.Is(err, repository.ErrDuplicateNumber) {
			continue
		}
		if err != nil {
			return nil, err
		}

		h.logger.Info().
			Str("order_id", o.ID).
			Str("order_number", string(o.Number)).
			Str("store_id", o.StoreID).
			Msg("order placed")
		return o, nil
	}
	return nil, ErrNumberSpaceExhausted
}

// SendOrderOtp issues a fresh passcode for a pending order and emails it.
// An active code younger than the cooldown blocks the resend; an older one is
// invalidated so at most one code is live per order.
func (h *Handler) SendOrderOtp(ctx context.Context, cmd SendOrderOtp) error {
	o, err := h.orderByNumber(ctx, cmd.StoreID, cmd.OrderNumber)
	if err != nil {
		return err
	}
	if o.Status != order.StatusPending {
		return ErrOrderNotPending
	}

	cust, err := h.customers.GetByID(ctx, o.CustomerID)
	if err != nil {
		return err
	}

	active, err := h.otps.ActiveByOrder(ctx, o.ID)
	switch {
	case err == nil:
		if active.ThrottlesResend(h.now()) {
			return otp.ErrResendTooSoon
		}
		active.Invalidate()
		if err := h.otps.Save(ctx, active); err != nil {
			return err
		}
	case errors.Is(err, otp.ErrNotFound):
		// first code for this order
	default:
		return err
	}

	code, err := otp.New(o.ID, cust.Email)
	if err != nil {
		return err
	}
	if err := h.otps.Save(ctx, code); err != nil {
		return err
	}

	if err := h.mailer.SendOrderOtp(cust.Email, o.Number, code.Code); err != nil {
		return fmt.Errorf("failed to send otp email: %w", err)
	}

	h.logger.Info().
		Str("order_id", o.ID).
		Str("order_number", string(o.Number)).
		Msg("otp sent")
	return nil
}

// VerifyOrderOtp burns one attempt against the active code and, on a match,
// confirms the order. The attempt count is persisted even when verification
// fails.
func (h *Handler) VerifyOrderOtp(ctx context.Context, cmd VerifyOrderOtp) (*order.Order, error) {
	o, err := h.orderByNumber(ctx, cmd.StoreID, cmd.OrderNumber)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusPending {
		return nil, ErrOrderNotPending
	}

	active, err := h.otps.ActiveByOrder(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if active.IsExpired(h.now()) {
		active.Invalidate()
		if err := h.otps.Save(ctx, active); err != nil {
			return nil, err
		}
		return nil, otp.ErrExpired
	}

	verifyErr := active.Verify(cmd.Code)
	if err := h.otps.Save(ctx, active); err != nil {
		return nil, err
	}
	if verifyErr != nil {
		return nil, verifyErr
	}

	if err := o.Confirm("customer"); err != nil {
		return nil, err
	}
	if err := h.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	h.publishEvents(ctx, o)

	h.logger.Info().
		Str("order_id", o.ID).
		Str("order_number", string(o.Number)).
		Msg("order confirmed via otp")
	return o, nil
}

// ConfirmOrder confirms without a passcode. Only stores that opted out of
// verification can use it.
func (h *Handler) ConfirmOrder(ctx context.Context, cmd ConfirmOrder) (*order.Order, error) {
	o, err := h.orders.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	st, err := h.stores.GetByID(ctx, o.StoreID)
	if err != nil {
		return nil, err
	}
	if st.RequireOtp {
		return nil, ErrOtpRequired
	}

	if err := o.Confirm("merchant"); err != nil {
		return nil, err
	}
	if err := h.orders.Save(ctx, o); err != nil {
		return nil, err
	}
	h.publishEvents(ctx, o)
	return o, nil
}

func (h *Handler) ProcessOrder(ctx context.Context, cmd ProcessOrder) error {
	return h.transition(ctx, cmd.OrderID, func(o *order.Order) error {
		return o.Process("merchant")
	})
}

func (h *Handler) ShipOrder(ctx context.Context, cmd ShipOrder) error {
	return h.transition(ctx, cmd.OrderID, func(o *order.Order) error {
		return o.Ship("merchant")
	})
}

func (h *Handler) DeliverOrder(ctx context.Context, cmd DeliverOrder) error {
	return h.transition(ctx, cmd.OrderID, func(o *order.Order) error {
		return o.Deliver("merchant")
	})
}

func (h *Handler) CancelOrder(ctx context.Context, cmd CancelOrder) error {
	actor := cmd.Actor
	if actor == "" {
		actor = "merchant"
	}
	return h.transition(ctx, cmd.OrderID, func(o *order.Order) error {
		return o.Cancel(cmd.Reason, actor)
	})
}

func (h *Handler) MarkOrderPaid(ctx context.Context, cmd MarkOrderPaid) error {
	o, err := h.orders.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	o.MarkPaid(cmd.TransactionID)
	return h.orders.Save(ctx, o)
}

func (h *Handler) AddMerchantNote(ctx context.Context, cmd AddMerchantNote) error {
	o, err := h.orders.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	o.AddMerchantNote(cmd.Note)
	return h.orders.Save(ctx, o)
}

// AdjustStock applies a manual signed stock correction with an audited
// reason.
func (h *Handler) AdjustStock(ctx context.Context, cmd AdjustStock) error {
	reason, err := parseReason(cmd.Reason)
	if err != nil {
		return err
	}
	if _, err := h.products.GetByID(ctx, cmd.ProductID); err != nil {
		return err
	}

	return h.inventory.WithinTx(ctx, func(ledger *inventory.Ledger) error {
		return ledger.Adjust(ctx, cmd.ProductID, cmd.VariantID, cmd.Delta, reason)
	})
}

// transition runs one load-mutate-save-publish round for a lifecycle step.
// orderByNumber resolves a customer-facing order number within one store.
func (h *Handler) orderByNumber(ctx context.Context, storeID, rawNumber string) (*order.Order, error) {
	number, err := order.ParseNumber(rawNumber)
	if err != nil {
		return nil, err
	}
	return h.orders.GetByNumber(ctx, storeID, number)
}

func (h *Handler) transition(ctx context.Context, orderID string, mutate func(*order.Order) error) error {
	o, err := h.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := mutate(o); err != nil {
		return err
	}
	if err := h.orders.Save(ctx, o); err != nil {
		return err
	}
	h.publishEvents(ctx, o)
	return nil
}

func (h *Handler) findOrCreateCustomer(ctx context.Context, cmd PlaceOrder) (*customer.Customer, error) {
	cust, err := h.customers.GetByEmail(ctx, cmd.StoreID, cmd.CustomerEmail)
	if errors.Is(err, customer.ErrCustomerNotFound) {
		cust = customer.New(cmd.StoreID, cmd.CustomerName, cmd.CustomerEmail, cmd.CustomerPhone)
		if err := h.customers.Save(ctx, cust); err != nil {
			return nil, err
		}
		return cust, nil
	}
	if err != nil {
		return nil, err
	}

	// returning customer: keep contact details fresh
	if cust.Name != cmd.CustomerName || cust.Phone != cmd.CustomerPhone {
		cust.Name = cmd.CustomerName
		cust.Phone = cmd.CustomerPhone
		if err := h.customers.Save(ctx, cust); err != nil {
			return nil, err
		}
	}
	return cust, nil
}

// publishEvents drains the aggregate's recorded events onto the bus. The save
// already happened; a publish failure is logged, not surfaced, so the caller
// never sees a saved-but-unpublished order as a failure.
func (h *Handler) publishEvents(ctx context.Context, o *order.Order) {
	for _, evt := range o.PullEvents() {
		if err := h.bus.Publish(ctx, o.ID, order.AggregateType, evt.EventType, evt.Data); err != nil {
			h.logger.Error().
				Err(err).
				Str("order_id", o.ID).
				Str("event_type", evt.EventType).
				Msg("failed to publish event")
		}
	}
}
