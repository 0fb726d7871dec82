package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/storefront/internal/domain/otp"
)

// OtpRepository keeps every issued code as its own row. Rows are updated in
// place (use flag, attempt count) but never deleted; the history doubles as
// an audit of resends.
type OtpRepository struct {
	db *sql.DB
}

func NewOtpRepository(db *sql.DB) *OtpRepository {
	return &OtpRepository{db: db}
}

func (r *OtpRepository) Save(ctx context.Context, o *otp.OrderOtp) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO order_otps (id, order_id, email, code, created_at, expires_at, is_used, attempt_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE
		 SET is_used = EXCLUDED.is_used,
		     attempt_count = EXCLUDED.attempt_count`,
		o.ID, o.OrderID, o.Email, o.Code, o.CreatedAt, o.ExpiresAt, o.IsUsed, o.AttemptCount,
	)
	return err
}

func (r *OtpRepository) LatestByOrder(ctx context.Context, orderID string) (*otp.OrderOtp, error) {
	return r.getOne(ctx,
		`SELECT id, order_id, email, code, created_at, expires_at, is_used, attempt_count
		 FROM order_otps WHERE order_id = $1
		 ORDER BY created_at DESC LIMIT 1`, orderID)
}

func (r *OtpRepository) ActiveByOrder(ctx context.Context, orderID string) (*otp.OrderOtp, error) {
	return r.getOne(ctx,
		`SELECT id, order_id, email, code, created_at, expires_at, is_used, attempt_count
		 FROM order_otps WHERE order_id = $1 AND is_used = FALSE
		 ORDER BY created_at DESC LIMIT 1`, orderID)
}

func (r *OtpRepository) getOne(ctx context.Context, query string, args ...any) (*otp.OrderOtp, error) {
	var o otp.OrderOtp
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&o.ID, &o.OrderID, &o.Email, &o.Code, &o.CreatedAt, &o.ExpiresAt, &o.IsUsed, &o.AttemptCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, otp.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
