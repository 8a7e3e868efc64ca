// Package grpc serves the standard gRPC health protocol, reporting SERVING
// once the application state has received its first snapshots.
package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"ngo-backend/internal/logger"
)

// ServiceName is the name health checks use to ask about the backend itself.
const ServiceName = "ngo.v1.Backend"

const defaultRefreshInterval = 2 * time.Second

type ReadinessChecker interface {
	Ready() bool
}

type HealthServer struct {
	server   *grpc.Server
	health   *health.Server
	ready    ReadinessChecker
	interval time.Duration
}

func NewHealthServer(ready ReadinessChecker) *HealthServer {
	hs := health.NewServer()
	s := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor))
	healthpb.RegisterHealthServer(s, hs)
	// Register reflection service for grpcurl
	reflection.Register(s)

	h := &HealthServer{server: s, health: hs, ready: ready, interval: defaultRefreshInterval}
	h.refresh()
	return h
}

func (h *HealthServer) refresh() {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if h.ready.Ready() {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", st)
	h.health.SetServingStatus(ServiceName, st)
}

// Serve blocks until ctx is done, then shuts the server down gracefully.
func (h *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				h.health.Shutdown()
				h.server.GracefulStop()
				return
			case <-ticker.C:
				h.refresh()
			}
		}
	}()

	logger.Info("gRPC health server listening", "address", lis.Addr().String())
	if err := h.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	logger.Debug("gRPC request",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, err
}
