package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/example/storefront/internal/domain/product"
)

// ProductRepository splits the product across two tables: the catalog row
// (name, price, variants) and one stock_levels row per product/variant key.
// Stock lives in its own narrow rows so the conditional decrement can target
// exactly one of them.
type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Save(ctx context.Context, p *product.Product) error {
	variants, err := json.Marshal(p.Variants)
	if err != nil {
		return err
	}
	price, err := json.Marshal(p.Price)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO products (id, store_id, name, description, price, variants, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name,
		     description = EXCLUDED.description,
		     price = EXCLUDED.price,
		     variants = EXCLUDED.variants,
		     updated_at = EXCLUDED.updated_at`,
		p.ID, p.StoreID, p.Name, p.Description, price, variants, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if err := upsertStock(ctx, tx, p.ID, "", p.Quantity, p.AllowBackorder); err != nil {
		return err
	}
	for _, v := range p.Variants {
		if err := upsertStock(ctx, tx, p.ID, v.ID, v.Quantity, v.AllowBackorder); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// upsertStock seeds the stock row. On conflict the quantity is left alone:
// after creation only the ledger moves it.
func upsertStock(ctx context.Context, tx *sql.Tx, productID, variantID string, qty int, backorder bool) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO stock_levels (product_id, variant_id, quantity, allow_backorder)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (product_id, variant_id) DO UPDATE
		 SET allow_backorder = EXCLUDED.allow_backorder`,
		productID, variantID, qty, backorder,
	)
	return err
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	p, err := r.scanProduct(r.db.QueryRowContext(ctx,
		`SELECT id, store_id, name, description, price, variants, created_at, updated_at
		 FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadStock(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) ListByStore(ctx context.Context, storeID string) ([]*product.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, store_id, name, description, price, variants, created_at, updated_at
		 FROM products WHERE store_id = $1
		 ORDER BY name`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*product.Product
	for rows.Next() {
		p, err := r.scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range products {
		if err := r.loadStock(ctx, p); err != nil {
			return nil, err
		}
	}
	return products, nil
}

func (r *ProductRepository) scanProduct(row rowScanner) (*product.Product, error) {
	var (
		p        product.Product
		price    []byte
		variants []byte
	)
	err := row.Scan(&p.ID, &p.StoreID, &p.Name, &p.Description, &price, &variants, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, product.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(price, &p.Price); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(variants, &p.Variants); err != nil {
		return nil, err
	}
	return &p, nil
}

// loadStock merges the stock rows back into the catalog struct.
func (r *ProductRepository) loadStock(ctx context.Context, p *product.Product) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT variant_id, quantity, allow_backorder
		 FROM stock_levels WHERE product_id = $1`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			variantID string
			qty       int
			backorder bool
		)
		if err := rows.Scan(&variantID, &qty, &backorder); err != nil {
			return err
		}
		if variantID == "" {
			p.Quantity = qty
			p.AllowBackorder = backorder
			continue
		}
		if v, err := p.Variant(variantID); err == nil {
			v.Quantity = qty
			v.AllowBackorder = backorder
		}
	}
	return rows.Err()
}
