// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rnbmx/bmxshop/internal/dbx"
	"github.com/rnbmx/bmxshop/internal/server/migrations"
	"github.com/rnbmx/bmxshop/internal/server/repositories/categories"
	"github.com/rnbmx/bmxshop/internal/server/repositories/orders"
	"github.com/rnbmx/bmxshop/internal/server/repositories/products"
	"github.com/rnbmx/bmxshop/internal/server/repositories/reviews"
	"github.com/rnbmx/bmxshop/internal/server/repositories/roles"
	"github.com/rnbmx/bmxshop/internal/server/repositories/users"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Roles(db dbx.DBTX) roles.Repository {
	return roles.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Categories(db dbx.DBTX) categories.Repository {
	return categories.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Products(db dbx.DBTX) products.Repository {
	return products.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Reviews(db dbx.DBTX) reviews.Repository {
	return reviews.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Orders(db dbx.DBTX) orders.Repository {
	return orders.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}

// OpenPostgres opens a pgx-backed *sql.DB and checks connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}
