package grpc_server

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/waste3d/learning-platform/internal/platform/logger"
)

// Probe reports whether one dependency is reachable.
type Probe func(ctx context.Context) error

// HealthServer exposes grpc.health.v1.Health. The overall status flips to
// NOT_SERVING while any probe fails.
type HealthServer struct {
	log    *logger.Logger
	server *grpc.Server
	health *health.Server
	probes map[string]Probe
}

func NewHealthServer(log *logger.Logger, probes map[string]Probe) *HealthServer {
	s := &HealthServer{
		log:    log,
		server: grpc.NewServer(),
		health: health.NewServer(),
		probes: probes,
	}
	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)
	return s
}

func (s *HealthServer) Server() *grpc.Server { return s.server }

// Check runs every probe once and publishes the result.
func (s *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, probe := range s.probes {
		if err := probe(ctx); err != nil {
			s.log.Warn("Health probe failed", "dependency", name, "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	return status
}

// Watch re-runs the probes every interval until ctx is done.
func (s *HealthServer) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		probeCtx, cancel := context.WithTimeout(ctx, interval/2)
		s.Check(probeCtx)
		cancel()
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Shutdown marks the service as not serving and drains connections.
func (s *HealthServer) Shutdown() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
