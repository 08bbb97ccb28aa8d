package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/cart"
)

type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) FindByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	var c domain.Cart
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, total_amount, updated_at FROM carts WHERE user_id = $1", userID).
		Scan(&c.ID, &c.UserID, &c.TotalAmount, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT model_no, quantity, unit_price FROM cart_lines WHERE cart_id = $1", c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.Line
		if err := rows.Scan(&l.ModelNo, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		c.Lines = append(c.Lines, l)
	}
	return &c, rows.Err()
}

// Save rewrites the cart row and its lines in one transaction.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO carts (id, user_id, total_amount, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			total_amount = EXCLUDED.total_amount,
			updated_at = EXCLUDED.updated_at`,
		cart.ID, cart.UserID, cart.TotalAmount, cart.UpdatedAt); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM cart_lines WHERE cart_id = $1", cart.ID); err != nil {
		return err
	}
	for _, l := range cart.Lines {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO cart_lines (cart_id, model_no, quantity, unit_price) VALUES ($1, $2, $3, $4)",
			cart.ID, l.ModelNo, l.Quantity, l.UnitPrice); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteOrphanLines bulk-removes lines whose product is gone from the
// catalog. Best-effort: the materializer treats failures as a warning and
// falls back to the in-memory repair pass.
func (r *CartRepository) DeleteOrphanLines(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_lines cl
		WHERE NOT EXISTS (SELECT 1 FROM products p WHERE p.model_no = cl.model_no)`)
	if err != nil {
		return fmt.Errorf("postgres: orphan cleanup: %w", err)
	}
	return nil
}
