package customer

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrCustomerNotFound = errors.New("customer not found")

// Customer is a storefront contact. No account registration is required to
// place an order; customers are found or created by email per store.
type Customer struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func New(storeID, name, email, phone string) *Customer {
	return &Customer{
		ID:        uuid.New().String(),
		StoreID:   storeID,
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: time.Now(),
	}
}
