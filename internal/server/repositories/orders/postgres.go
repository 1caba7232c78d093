// Package orders stores orders and their line items.
package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/dbx"
	"github.com/rnbmx/bmxshop/internal/server/models"
)

type Repository interface {
	// Create inserts the order and its items; callers wrap it in dbx.WithTx.
	Create(ctx context.Context, o *models.Order) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error
	Count(ctx context.Context) (int64, error)
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectOrder = `SELECT id, user_id, total, status, shipping_address, phone, payment_method, payment_id, created_at, updated_at
		 FROM orders`

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (models.Order, error) {
	var o models.Order
	var status string
	err := row.Scan(&o.ID, &o.UserID, &o.Total, &status, &o.ShippingAddress, &o.Phone,
		&o.PaymentMethod, &o.PaymentID, &o.CreatedAt, &o.UpdatedAt)
	o.Status = models.OrderStatus(status)
	return o, err
}

func (r *PostgresRepository) Create(ctx context.Context, o *models.Order) (*models.Order, error) {
	query :=
		`INSERT INTO orders (user_id, total, status, shipping_address, phone, payment_method, payment_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, o.UserID, o.Total, string(o.Status), o.ShippingAddress, o.Phone,
		o.PaymentMethod, o.PaymentID).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	itemQuery :=
		`INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id
		 `
	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		err := r.db.QueryRowContext(ctx, itemQuery, o.ID, it.ProductID, it.ProductName, it.UnitPrice, it.Quantity).Scan(&it.ID)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
	}
	return o, nil
}

func (r *PostgresRepository) items(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, unit_price, quantity
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.UnitPrice, &it.Quantity); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, selectOrder+`
		 WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	out := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, o)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	for i := range out {
		if out[i].Items, err = r.items(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	return r.list(ctx, selectOrder+`
		 WHERE user_id = $1
		 ORDER BY created_at DESC`, userID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	return r.list(ctx, selectOrder+`
		 ORDER BY created_at DESC`)
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
