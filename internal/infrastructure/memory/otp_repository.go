package memory

import (
	"context"
	"sync"

	"github.com/example/storefront/internal/domain/otp"
)

type OtpRepository struct {
	mu   sync.RWMutex
	rows []*otp.OrderOtp
}

func NewOtpRepository() *OtpRepository {
	return &OtpRepository{}
}

func (r *OtpRepository) Save(ctx context.Context, o *otp.OrderOtp) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.rows {
		if existing.ID == o.ID {
			r.rows[i] = o
			return nil
		}
	}
	r.rows = append(r.rows, o)
	return nil
}

func (r *OtpRepository) LatestByOrder(ctx context.Context, orderID string) (*otp.OrderOtp, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].OrderID == orderID {
			return r.rows[i], nil
		}
	}
	return nil, otp.ErrNotFound
}

func (r *OtpRepository) ActiveByOrder(ctx context.Context, orderID string) (*otp.OrderOtp, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.rows) - 1; i >= 0; i-- {
		if r.rows[i].OrderID == orderID && !r.rows[i].IsUsed {
			return r.rows[i], nil
		}
	}
	return nil, otp.ErrNotFound
}
