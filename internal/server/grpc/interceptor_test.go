package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/rnbmx/bmxshop/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestLoggingInterceptor_PassesThrough(t *testing.T) {
	s := NewHealthServer("", time.Second, &fakePinger{}, logging.Nop{})
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	resp, err := s.loggingInterceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	if err != nil || resp != "ok" {
		t.Fatalf("unexpected result: %v, %v", resp, err)
	}

	_, err = s.loggingInterceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.NotFound, "unknown service")
	})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
