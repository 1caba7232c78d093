// Package rest is the JSON HTTP API of the shop, built on gin.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rnbmx/bmxshop/internal/logging"
	"github.com/rnbmx/bmxshop/internal/server/services"
)

// Services groups the business services the handlers call into.
type Services struct {
	Auth     *services.AuthService
	Users    *services.UserService
	Catalog  *services.CatalogService
	Reviews  *services.ReviewService
	Orders   *services.OrderService
	Payments *services.PaymentService
	Media    *services.MediaService
	Health   *services.HealthService
}

type Options struct {
	Address            string
	PublicPaths        []string
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

type Server struct {
	address         string
	shutdownTimeout time.Duration
	svc             Services
	public          *PathMatcher
	origins         []string
	logger          logging.Logger
	engine          *gin.Engine
}

func NewServer(opts Options, svc Services, l logging.Logger) *Server {
	s := &Server{
		address:         opts.Address,
		shutdownTimeout: opts.ShutdownTimeout,
		svc:             svc,
		public:          NewPathMatcher(opts.PublicPaths),
		origins:         opts.CORSAllowedOrigins,
		logger:          l.With("module", "http_server"),
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = 10 * time.Second
	}
	s.engine = s.routes()
	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
