// Package grpc exposes the catalog's gRPC surface: the standard health service.
package grpc

import (
	"context"
	"log/slog"
	"time"

	"github.com/abgdnv/catalogtable/internal/catalog/store"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name health checks can ask about besides the empty, server-wide one.
const ServiceName = "catalog.v1.CatalogService"

// HealthReporter keeps a health.Server in line with the store's ability to answer.
type HealthReporter struct {
	server *health.Server
	store  store.ProductStore
	logger *slog.Logger
}

func NewHealthReporter(st store.ProductStore, logger *slog.Logger) *HealthReporter {
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthReporter{
		server: hs,
		store:  st,
		logger: logger.With("component", "grpc-health"),
	}
}

// Server returns the health.Server to register with a grpc.Server.
func (r *HealthReporter) Server() *health.Server {
	return r.server
}

// Check probes the store once and records the result.
func (r *HealthReporter) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if _, err := r.store.Stats(ctx); err != nil {
		r.logger.WarnContext(ctx, "Store probe failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	r.server.SetServingStatus("", status)
	r.server.SetServingStatus(ServiceName, status)
	return status
}

// Run probes the store every interval until ctx is done, then marks every
// service NOT_SERVING so clients drain before the server stops.
func (r *HealthReporter) Run(ctx context.Context, interval time.Duration) error {
	r.Check(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.server.Shutdown()
			return nil
		case <-ticker.C:
			r.Check(ctx)
		}
	}
}
