package command

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/example/storefront/internal/domain/inventory"
	"github.com/example/storefront/internal/domain/order"
)

var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidPhone    = errors.New("invalid phone number")
	ErrMissingAddress  = errors.New("delivery address is incomplete")
	ErrMissingName     = errors.New("customer name is required")
	ErrOrderNotPending = errors.New("order is no longer pending")
	ErrOtpRequired     = errors.New("store requires otp verification to confirm")
	ErrInvalidReason   = errors.New("invalid stock movement reason")
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\-\s]{6,20}$`)
)

func validatePlaceOrder(cmd PlaceOrder) error {
	if cmd.CustomerName == "" {
		return ErrMissingName
	}
	if !emailPattern.MatchString(cmd.CustomerEmail) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, cmd.CustomerEmail)
	}
	if cmd.CustomerPhone != "" && !phonePattern.MatchString(cmd.CustomerPhone) {
		return fmt.Errorf("%w: %q", ErrInvalidPhone, cmd.CustomerPhone)
	}
	if cmd.Address.Line1 == "" || cmd.Address.City == "" || cmd.Address.PostalCode == "" || cmd.Address.Country == "" {
		return ErrMissingAddress
	}
	if len(cmd.Items) == 0 {
		return order.ErrEmptyOrder
	}
	for _, item := range cmd.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: product %s", order.ErrInvalidQuantity, item.ProductID)
		}
	}
	return nil
}

func parseReason(s string) (inventory.Reason, error) {
	switch r := inventory.Reason(s); r {
	case inventory.ReasonInitial, inventory.ReasonPurchase, inventory.ReasonAdjustment,
		inventory.ReasonReturn, inventory.ReasonDamage, inventory.ReasonTransfer:
		return r, nil
	case inventory.ReasonSale:
		// Sales only enter the ledger through order reservation.
		return "", fmt.Errorf("%w: %q", ErrInvalidReason, s)
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidReason, s)
	}
}
