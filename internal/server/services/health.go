package services

import (
	"context"
	"database/sql"

	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/logging"
	"github.com/rnbmx/bmxshop/internal/server/repositories/repomanager"
	"golang.org/x/sync/singleflight"
)

// Counts is the row summary served by the admin debug endpoint.
type Counts struct {
	Users      int64
	Products   int64
	Categories int64
	Orders     int64
}

type HealthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	pings       singleflight.Group
}

func NewHealthService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *HealthService {
	return &HealthService{db: db, repomanager: m, logger: logger.With("module", "health_service")}
}

// Ping reports whether the database answers. Concurrent callers share one
// round trip.
func (s *HealthService) Ping(ctx context.Context) error {
	_, err, _ := s.pings.Do("ping", func() (any, error) {
		return nil, s.db.PingContext(ctx)
	})
	if err != nil {
		s.logger.Warn(ctx, "database ping failed", "error", err)
		return err
	}
	return nil
}

func (s *HealthService) Counts(ctx context.Context) (*Counts, error) {
	var c Counts
	var err error

	if c.Users, err = s.repomanager.Users(s.db).Count(ctx); err != nil {
		return nil, s.countError(ctx, "users", err)
	}
	if c.Products, err = s.repomanager.Products(s.db).Count(ctx); err != nil {
		return nil, s.countError(ctx, "products", err)
	}
	if c.Categories, err = s.repomanager.Categories(s.db).Count(ctx); err != nil {
		return nil, s.countError(ctx, "categories", err)
	}
	if c.Orders, err = s.repomanager.Orders(s.db).Count(ctx); err != nil {
		return nil, s.countError(ctx, "orders", err)
	}
	return &c, nil
}

func (s *HealthService) countError(ctx context.Context, table string, err error) error {
	s.logger.Error(ctx, "row count failed", "table", table, "error", err)
	return common.ErrorInternal
}
