package repomanager

import (
	"context"
	"database/sql"

	"github.com/rnbmx/bmxshop/internal/dbx"
	"github.com/rnbmx/bmxshop/internal/server/repositories/categories"
	"github.com/rnbmx/bmxshop/internal/server/repositories/orders"
	"github.com/rnbmx/bmxshop/internal/server/repositories/products"
	"github.com/rnbmx/bmxshop/internal/server/repositories/reviews"
	"github.com/rnbmx/bmxshop/internal/server/repositories/roles"
	"github.com/rnbmx/bmxshop/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either a *sql.DB or a *sql.Tx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Roles(db dbx.DBTX) roles.Repository
	Categories(db dbx.DBTX) categories.Repository
	Products(db dbx.DBTX) products.Repository
	Reviews(db dbx.DBTX) reviews.Repository
	Orders(db dbx.DBTX) orders.Repository
}
