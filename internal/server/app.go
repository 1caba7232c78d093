// Package server wires configuration, storage, token services and the HTTP
// and gRPC servers together and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rnbmx/bmxshop/internal/logging"
	"github.com/rnbmx/bmxshop/internal/server/auth"
	"github.com/rnbmx/bmxshop/internal/server/config"
	"github.com/rnbmx/bmxshop/internal/server/models"
	"github.com/rnbmx/bmxshop/internal/server/repositories/repomanager"
	"github.com/rnbmx/bmxshop/internal/server/rest"
	"github.com/rnbmx/bmxshop/internal/server/services"

	gs "github.com/rnbmx/bmxshop/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *rest.Server
	health *gs.HealthServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.New(os.Stdout, c.LogLevel, c.LogFormat)

	policy, err := auth.ParseKeyPolicy(c.KeyPolicy)
	if err != nil {
		return nil, err
	}
	key, err := auth.ResolveSigningKey(ctx, c.SecretKey, policy, logger)
	if err != nil {
		return nil, err
	}
	codec, err := auth.NewCodec(key, c.TokenTTL)
	if err != nil {
		return nil, err
	}

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	if err := rm.Roles(db).EnsureSeeded(ctx, models.AllRoles); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed roles: %w", err)
	}

	if logging.ParseLevel(c.LogLevel) != slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	as := services.NewAuthService(db, rm, codec, auth.NewBcryptHasher(c.BcryptCost), logger)
	hs := services.NewHealthService(db, rm, logger)
	svc := rest.Services{
		Auth:     as,
		Users:    services.NewUserService(db, rm, as, logger),
		Catalog:  services.NewCatalogService(db, rm, logger),
		Reviews:  services.NewReviewService(db, rm, logger),
		Orders:   services.NewOrderService(db, rm, logger),
		Payments: services.NewPaymentService(c.PaymentPublishableKey, logger),
		Media:    services.NewMediaService(c, logger),
		Health:   hs,
	}

	httpServer := rest.NewServer(rest.Options{
		Address:            c.HTTPAddr,
		PublicPaths:        c.PublicPaths,
		CORSAllowedOrigins: c.CORSAllowedOrigins,
		ShutdownTimeout:    c.ShutdownTimeout,
	}, svc, logger)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		http:   httpServer,
		health: gs.NewHealthServer(c.GRPCAddr, c.HealthCheckInterval, hs, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// run starts one server and cancels the whole app if it fails.
func (app *App) run(ctx context.Context, cancelFunc context.CancelFunc, name string, f func(context.Context) error) {
	if err := f(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

// Run blocks until a signal arrives or one of the servers fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.run(ctx, cancelFunc, "http", app.http.Run)
	}()
	go func() {
		defer wg.Done()
		app.run(ctx, cancelFunc, "grpc", app.health.Run)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
