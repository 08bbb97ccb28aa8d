package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	domain "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = "id, user_id, total_amount, discount_amount, status, payment_status, shipping_address, payment_method, current_location, lines, tracking, created_at, updated_at"

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	lines, tracking, err := encodeOrder(order)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING`,
		order.ID, order.UserID, order.TotalAmount, order.DiscountAmount,
		order.Status, order.PaymentStatus, order.ShippingAddress, order.PaymentMethod,
		order.CurrentLocation, lines, tracking, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return o, err
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	lines, tracking, err := encodeOrder(order)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET
			total_amount = $2, discount_amount = $3, status = $4, payment_status = $5,
			shipping_address = $6, payment_method = $7, current_location = $8,
			lines = $9, tracking = $10, updated_at = $11
		WHERE id = $1`,
		order.ID, order.TotalAmount, order.DiscountAmount, order.Status, order.PaymentStatus,
		order.ShippingAddress, order.PaymentMethod, order.CurrentLocation,
		lines, tracking, order.UpdatedAt)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) FindByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return r.query(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
}

func (r *OrderRepository) All(ctx context.Context) ([]*domain.Order, error) {
	return r.query(ctx,
		"SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC")
}

func (r *OrderRepository) CountByUserExcludingStatus(ctx context.Context, userID string, excluded domain.Status) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM orders WHERE user_id = $1 AND status <> $2", userID, excluded).
		Scan(&n)
	return n, err
}

func (r *OrderRepository) query(ctx context.Context, q string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func encodeOrder(o *domain.Order) (lines, tracking []byte, err error) {
	lines, err = json.Marshal(o.Lines)
	if err != nil {
		return nil, nil, err
	}
	tracking, err = json.Marshal(o.Tracking)
	if err != nil {
		return nil, nil, err
	}
	return lines, tracking, nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var lines, tracking []byte
	if err := row.Scan(
		&o.ID, &o.UserID, &o.TotalAmount, &o.DiscountAmount,
		&o.Status, &o.PaymentStatus, &o.ShippingAddress, &o.PaymentMethod,
		&o.CurrentLocation, &lines, &tracking, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(lines, &o.Lines); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tracking, &o.Tracking); err != nil {
		return nil, err
	}
	return &o, nil
}
