package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/storefront/internal/domain/money"
	"github.com/example/storefront/internal/domain/store"
)

type StoreRepository struct {
	db *sql.DB
}

func NewStoreRepository(db *sql.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

func (r *StoreRepository) GetByID(ctx context.Context, id string) (*store.Store, error) {
	return r.getOne(ctx,
		`SELECT id, name, subdomain, currency, delivery_fee, require_otp, merchant_email, password_hash, created_at, updated_at
		 FROM stores WHERE id = $1`, id)
}

func (r *StoreRepository) GetByMerchantEmail(ctx context.Context, email string) (*store.Store, error) {
	return r.getOne(ctx,
		`SELECT id, name, subdomain, currency, delivery_fee, require_otp, merchant_email, password_hash, created_at, updated_at
		 FROM stores WHERE merchant_email = $1`, email)
}

func (r *StoreRepository) Save(ctx context.Context, s *store.Store) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO stores (id, name, subdomain, currency, delivery_fee, require_otp, merchant_email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name,
		     subdomain = EXCLUDED.subdomain,
		     currency = EXCLUDED.currency,
		     delivery_fee = EXCLUDED.delivery_fee,
		     require_otp = EXCLUDED.require_otp,
		     merchant_email = EXCLUDED.merchant_email,
		     password_hash = EXCLUDED.password_hash,
		     updated_at = EXCLUDED.updated_at`,
		s.ID, s.Name, s.Subdomain, s.Currency, s.DeliveryFee.Amount.String(),
		s.RequireOtp, s.MerchantEmail, s.PasswordHash, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func (r *StoreRepository) getOne(ctx context.Context, query string, args ...any) (*store.Store, error) {
	var (
		s   store.Store
		fee string
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&s.ID, &s.Name, &s.Subdomain, &s.Currency, &fee,
		&s.RequireOtp, &s.MerchantEmail, &s.PasswordHash, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}

	s.DeliveryFee, err = money.Parse(fee, s.Currency)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
