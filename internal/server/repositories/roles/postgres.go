// Package roles stores the role reference table.
package roles

import (
	"context"
	"fmt"

	"github.com/rnbmx/bmxshop/internal/dbx"
	"github.com/rnbmx/bmxshop/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSeeded inserts every role that is missing. Safe to call on each start.
func (r *PostgresRepository) EnsureSeeded(ctx context.Context, roles []models.Role) error {
	query := `INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`

	for _, role := range roles {
		if _, err := r.db.ExecContext(ctx, query, string(role)); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.Role
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		role, err := models.ParseRole(name)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
