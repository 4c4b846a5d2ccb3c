// Package health serves the standard gRPC health protocol for the bookstore,
// reporting NOT_SERVING while the relational store or Redis is unreachable.
package health

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const ServiceName = "bookstore"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Checker struct {
	status   *grpchealth.Server
	deps     map[string]Pinger
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger
}

// NewChecker reports on every named dependency. Nil pingers are skipped.
func NewChecker(deps map[string]Pinger, log zerolog.Logger) *Checker {
	live := make(map[string]Pinger, len(deps))
	for name, p := range deps {
		if p != nil {
			live[name] = p
		}
	}
	return &Checker{
		status:   grpchealth.NewServer(),
		deps:     live,
		interval: 10 * time.Second,
		timeout:  2 * time.Second,
		log:      log,
	}
}

// NewGRPCServer returns a server exposing the checker's health service and
// reflection, instrumented with OpenTelemetry.
func (c *Checker) NewGRPCServer() *grpc.Server {
	srv := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthpb.RegisterHealthServer(srv, c.status)
	reflection.Register(srv)
	return srv
}

// Check pings every dependency once and publishes the combined status.
func (c *Checker) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, p := range c.deps {
		pingCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := p.Ping(pingCtx)
		cancel()
		if err != nil {
			c.log.Warn().Err(err).Str("dependency", name).Msg("health check failed")
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	c.status.SetServingStatus("", status)
	c.status.SetServingStatus(ServiceName, status)
	return status
}

// Run re-checks on every tick until ctx is cancelled, then marks the
// service as shutting down.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			c.status.Shutdown()
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}
