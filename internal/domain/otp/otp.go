package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxAttempts caps verification tries per code. Once reached the code is
	// dead and the caller must request a new one.
	MaxAttempts = 5

	// TTL is the fixed lifetime of a code from creation.
	TTL = 10 * time.Minute

	// ResendCooldown bounds how often a fresh code can be issued while the
	// previous one is still active.
	ResendCooldown = 60 * time.Second
)

var (
	ErrNotFound           = errors.New("otp not found")
	ErrExpired            = errors.New("otp has expired")
	ErrInvalidCode        = errors.New("otp code does not match")
	ErrMaxAttemptsReached = errors.New("otp max attempts reached")
	ErrResendTooSoon      = errors.New("otp was issued too recently")
	ErrAlreadyUsed        = errors.New("otp has already been used")
)

// OrderOtp is a one-time passcode bound to exactly one order. Multiple rows
// may exist per order (resend history); only the most recent unused one is
// active.
type OrderOtp struct {
	ID           string    `json:"id"`
	OrderID      string    `json:"order_id"`
	Email        string    `json:"email"`
	Code         string    `json:"code"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	IsUsed       bool      `json:"is_used"`
	AttemptCount int       `json:"attempt_count"`
}

// New generates a uniformly random 6-digit code for the given order.
func New(orderID, email string) (*OrderOtp, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900_000))
	if err != nil {
		return nil, fmt.Errorf("failed to generate otp code: %w", err)
	}

	now := time.Now()
	return &OrderOtp{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		Email:     email,
		Code:      fmt.Sprintf("%06d", n.Int64()+100_000),
		CreatedAt: now,
		ExpiresAt: now.Add(TTL),
	}, nil
}

// IsExpired reports whether the code is past its lifetime. Expiry is lazy:
// the calling workflow checks it before Verify, there is no scheduled task.
func (o *OrderOtp) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// ThrottlesResend reports whether this code still blocks issuing a new one.
func (o *OrderOtp) ThrottlesResend(now time.Time) bool {
	return !o.IsUsed && now.Sub(o.CreatedAt) < ResendCooldown
}

// Invalidate consumes the code without a successful verification. Used when a
// fresh code replaces this one or when it expired unused.
func (o *OrderOtp) Invalidate() {
	o.IsUsed = true
}

// Verify burns one attempt and compares codes. The attempt counts even on a
// match. A fifth failure, and every attempt after it, fails with
// ErrMaxAttemptsReached no matter what code is presented.
func (o *OrderOtp) Verify(code string) error {
	if o.IsUsed {
		return ErrAlreadyUsed
	}
	if o.AttemptCount >= MaxAttempts {
		return ErrMaxAttemptsReached
	}

	o.AttemptCount++
	if subtle.ConstantTimeCompare([]byte(o.Code), []byte(code)) != 1 {
		if o.AttemptCount >= MaxAttempts {
			return ErrMaxAttemptsReached
		}
		return ErrInvalidCode
	}

	o.IsUsed = true
	return nil
}
