// Package reviews stores product reviews.
package reviews

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
	ListByProduct(ctx context.Context, productID int64) ([]models.Review, error)
	GetByID(ctx context.Context, id int64) (*models.Review, error)
	Create(ctx context.Context, r *models.Review) (*models.Review, error)
	Delete(ctx context.Context, id int64) error
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectReview = `SELECT r.id, r.product_id, r.user_id, u.name, r.rating, r.title, r.comment, r.created_at
		 FROM reviews r
		 JOIN users u ON u.id = r.user_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanReview(row scanner) (models.Review, error) {
	var rv models.Review
	err := row.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.AuthorName, &rv.Rating, &rv.Title, &rv.Comment, &rv.CreatedAt)
	return rv, err
}

func (r *PostgresRepository) ListByProduct(ctx context.Context, productID int64) ([]models.Review, error) {
	rows, err := r.db.QueryContext(ctx, selectReview+`
		 WHERE r.product_id = $1
		 ORDER BY r.created_at DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []models.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	rv, err := scanReview(r.db.QueryRowContext(ctx, selectReview+`
		 WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &rv, nil
}

func (r *PostgresRepository) Create(ctx context.Context, rv *models.Review) (*models.Review, error) {
	query :=
		`INSERT INTO reviews (product_id, user_id, rating, title, comment)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, rv.ProductID, rv.UserID, rv.Rating, rv.Title, rv.Comment).
		Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rv, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("db error: %w", err)
	} else if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
