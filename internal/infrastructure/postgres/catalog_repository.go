package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
)

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

const productColumns = "model_no, name, price, quantity, low_stock_threshold, promo_price, promo_ends_at, updated_at"

func (r *CatalogRepository) FindByModelNo(ctx context.Context, modelNo string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE model_no = $1", modelNo)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

func (r *CatalogRepository) FindByModelNos(ctx context.Context, modelNos []string) (map[string]*domain.Product, error) {
	out := make(map[string]*domain.Product, len(modelNos))
	if len(modelNos) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(modelNos))
	args := make([]any, len(modelNos))
	for i, id := range modelNos {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE model_no IN ("+strings.Join(placeholders, ", ")+")",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ModelNo] = p
	}
	return out, rows.Err()
}

func (r *CatalogRepository) All(ctx context.Context) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY model_no")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) Save(ctx context.Context, product *domain.Product) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (model_no, name, price, quantity, low_stock_threshold, promo_price, promo_ends_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (model_no) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			quantity = EXCLUDED.quantity,
			low_stock_threshold = EXCLUDED.low_stock_threshold,
			promo_price = EXCLUDED.promo_price,
			promo_ends_at = EXCLUDED.promo_ends_at,
			updated_at = EXCLUDED.updated_at`,
		product.ModelNo, product.Name, product.Price, product.Quantity,
		product.LowStockThreshold, product.PromoPrice, product.PromoEndsAt, product.UpdatedAt)
	return err
}

func (r *CatalogRepository) Delete(ctx context.Context, modelNo string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE model_no = $1", modelNo)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(
		&p.ModelNo, &p.Name, &p.Price, &p.Quantity,
		&p.LowStockThreshold, &p.PromoPrice, &p.PromoEndsAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
