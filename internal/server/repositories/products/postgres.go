// Package products stores catalog products.
package products

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
	List(ctx context.Context) ([]models.Product, error)
	ListFeatured(ctx context.Context) ([]models.Product, error)
	ListByCategory(ctx context.Context, category string) ([]models.Product, error)
	Search(ctx context.Context, q string) ([]models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	Update(ctx context.Context, p *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectProduct = `SELECT id, name, description, price, stock_quantity, image_url, category, brand, featured, created_at, updated_at
		 FROM products`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.ImageURL,
		&p.Category, &p.Brand, &p.Featured, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Product, error) {
	return r.query(ctx, selectProduct+`
		 ORDER BY id`)
}

func (r *PostgresRepository) ListFeatured(ctx context.Context) ([]models.Product, error) {
	return r.query(ctx, selectProduct+`
		 WHERE featured
		 ORDER BY id`)
}

func (r *PostgresRepository) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return r.query(ctx, selectProduct+`
		 WHERE category = $1
		 ORDER BY id`, category)
}

// Search matches name, description or brand case-insensitively.
func (r *PostgresRepository) Search(ctx context.Context, q string) ([]models.Product, error) {
	return r.query(ctx, selectProduct+`
		 WHERE name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%' OR brand ILIKE '%' || $1 || '%'
		 ORDER BY id`, q)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, selectProduct+`
		 WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	query :=
		`INSERT INTO products (name, description, price, stock_quantity, image_url, category, brand, featured)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		p.Name, p.Description, p.Price, p.StockQuantity, p.ImageURL, p.Category, p.Brand, p.Featured).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Product) (*models.Product, error) {
	query :=
		`UPDATE products SET name = $2, description = $3, price = $4, stock_quantity = $5, image_url = $6,
		 category = $7, brand = $8, featured = $9, updated_at = now()
		 WHERE id = $1
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, p.ID,
		p.Name, p.Description, p.Price, p.StockQuantity, p.ImageURL, p.Category, p.Brand, p.Featured).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
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
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
