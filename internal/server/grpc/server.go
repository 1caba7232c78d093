// Package grpc exposes the standard gRPC health service for the shop so
// load balancers and orchestrators can probe the database-backed readiness
// of the process.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/rnbmx/bmxshop/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported alongside the overall "" entry.
const ServiceName = "bmxshop.Shop"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthServer struct {
	address  string
	interval time.Duration
	pinger   Pinger
	health   *health.Server
	logger   logging.Logger
}

func NewHealthServer(a string, interval time.Duration, p Pinger, l logging.Logger) *HealthServer {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthServer{
		address:  a,
		interval: interval,
		pinger:   p,
		health:   health.NewServer(),
		logger:   l.With("module", "grpc_server"),
	}
}

// check pings the store once and publishes the result.
func (s *HealthServer) check(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(ctx); err != nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Watch re-checks the store every interval until ctx is done.
func (s *HealthServer) Watch(ctx context.Context) {
	s.check(ctx)

	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.check(ctx)
		}
	}
}

// Register attaches the health service to srv.
func (s *HealthServer) Register(srv *grpc.Server) {
	healthpb.RegisterHealthServer(srv, s.health)
}

func (s *HealthServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	s.Register(srv)

	go s.Watch(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
