package grpcserver

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/md-rashed-zaman/barberbook/libs/grpcx"
	"github.com/md-rashed-zaman/barberbook/libs/runtime"
)

// ServiceName is the name reported through grpc.health.v1 alongside the overall "" entry.
const ServiceName = "barberbook.booking.v1.BookingService"

// Server publishes the booking service health over gRPC so mesh and orchestrator health checks
// see the same dependency state as /readyz.
type Server struct {
	grpc     *grpc.Server
	health   *health.Server
	checks   []runtime.ReadyCheck
	interval time.Duration
	logger   *slog.Logger
}

func New(logger *slog.Logger, interval time.Duration, checks ...runtime.ReadyCheck) *Server {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	srv := grpcx.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	s := &Server{grpc: srv, health: hs, checks: checks, interval: interval, logger: logger}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// Serve blocks until ctx is done or the listener fails.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.refresh(ctx)
	go s.watch(ctx)

	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		s.grpc.GracefulStop()
	}()

	s.logger.Info("grpc server starting", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

func (s *Server) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

// refresh runs every check and flips the served status when any of them fails.
func (s *Server) refresh(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	for _, check := range s.checks {
		if check.Check == nil {
			continue
		}
		checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := check.Check(checkCtx)
		cancel()
		if err != nil {
			s.logger.Warn("health check failed", "check", check.Name, "err", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.setStatus(status)
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}
