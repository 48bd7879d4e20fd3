package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported alongside the overall "" entry.
const ServiceName = "bookings.v1.Bookings"

const (
	defaultCheckInterval = 10 * time.Second
	defaultCheckTimeout  = 2 * time.Second
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (ping PingFunc) Ping(ctx context.Context) error {
	return ping(ctx)
}

// HealthServer publishes gRPC health derived from dependency pings.
type HealthServer struct {
	health   *health.Server
	checks   map[string]Pinger
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

// HealthOption customizes a HealthServer.
type HealthOption func(*HealthServer)

// WithCheck adds a named dependency check.
func WithCheck(name string, pinger Pinger) HealthOption {
	return func(server *HealthServer) {
		if pinger != nil {
			server.checks[name] = pinger
		}
	}
}

// WithInterval overrides how often checks run.
func WithInterval(interval time.Duration) HealthOption {
	return func(server *HealthServer) {
		if interval > 0 {
			server.interval = interval
		}
	}
}

func WithLogger(logger *zap.Logger) HealthOption {
	return func(server *HealthServer) {
		if logger != nil {
			server.logger = logger
		}
	}
}

// NewHealthServer starts NOT_SERVING until the first round of checks passes.
func NewHealthServer(options ...HealthOption) *HealthServer {
	server := &HealthServer{
		health:   health.NewServer(),
		checks:   map[string]Pinger{},
		interval: defaultCheckInterval,
		timeout:  defaultCheckTimeout,
		logger:   zap.NewNop(),
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	server.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return server
}

// Register mounts the health service on grpcServer.
func (server *HealthServer) Register(grpcServer *grpc.Server) {
	healthpb.RegisterHealthServer(grpcServer, server.health)
}

// Check runs every dependency check once and updates the serving status.
func (server *HealthServer) Check(ctx context.Context) error {
	var failures []error
	for name, pinger := range server.checks {
		checkCtx, cancel := context.WithTimeout(ctx, server.timeout)
		err := pinger.Ping(checkCtx)
		cancel()
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", name, err))
		}
	}
	if len(failures) > 0 {
		server.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
		return errors.Join(failures...)
	}
	server.setStatus(healthpb.HealthCheckResponse_SERVING)
	return nil
}

// Watch re-runs the checks on every interval until ctx is cancelled.
func (server *HealthServer) Watch(ctx context.Context) {
	ticker := time.NewTicker(server.interval)
	defer ticker.Stop()
	for {
		if err := server.Check(ctx); err != nil {
			server.logger.Warn("health check failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Shutdown marks every service NOT_SERVING permanently.
func (server *HealthServer) Shutdown() {
	server.health.Shutdown()
}

func (server *HealthServer) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	server.health.SetServingStatus("", status)
	server.health.SetServingStatus(ServiceName, status)
}

// Serve listens on addr and serves health until ctx is cancelled.
func Serve(ctx context.Context, addr string, healthServer *HealthServer, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return serveListener(ctx, lis, healthServer, logger)
}

func serveListener(ctx context.Context, lis net.Listener, healthServer *HealthServer, logger *zap.Logger) error {
	grpcServer := grpc.NewServer()
	healthServer.Register(grpcServer)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go healthServer.Watch(watchCtx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gRPC health server starting", zap.String("listen_addr", lis.Addr().String()))
		errCh <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		if serveErr := <-errCh; serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
			return serveErr
		}
		return nil
	case serveErr := <-errCh:
		if errors.Is(serveErr, grpc.ErrServerStopped) {
			return nil
		}
		return serveErr
	}
}
