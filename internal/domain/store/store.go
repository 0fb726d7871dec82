package store

import (
	"errors"
	"time"

	"github.com/example/storefront/internal/domain/money"
)

var ErrStoreNotFound = errors.New("store not found")

// Store is the tenant a storefront runs under. Orders, products and customers
// all hang off a store id.
type Store struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Subdomain   string      `json:"subdomain"`
	Currency    string      `json:"currency"`
	DeliveryFee money.Money `json:"delivery_fee"`

	// RequireOtp gates order confirmation behind email verification.
	RequireOtp bool `json:"require_otp"`

	// Merchant login credentials. The hash is bcrypt, never the raw password.
	MerchantEmail string `json:"merchant_email"`
	PasswordHash  string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
