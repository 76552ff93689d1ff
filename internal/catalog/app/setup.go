// Package app contains the application setup for the catalog service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/catalogtable/internal/catalog/config"
	"github.com/abgdnv/catalogtable/internal/catalog/service"
	"github.com/abgdnv/catalogtable/internal/catalog/store"
	grpcImpl "github.com/abgdnv/catalogtable/internal/catalog/transport/grpc"
	"github.com/abgdnv/catalogtable/internal/catalog/transport/rest"
	pkgconfig "github.com/abgdnv/catalogtable/pkg/config"
	"github.com/abgdnv/catalogtable/pkg/messaging"
	"github.com/abgdnv/catalogtable/pkg/nats"
	"github.com/abgdnv/catalogtable/pkg/server"
	"github.com/abgdnv/catalogtable/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
)

// ServiceName labels logs, metrics, traces and environment variables.
const ServiceName = "catalog"

type Dependencies struct {
	ProductService service.ProductService
	Store          store.ProductStore
	Health         *grpcImpl.HealthReporter
	Registry       *prometheus.Registry
	Logger         *slog.Logger
}

// SetupDependencies wires the service over st. Events go to publisher on subject.
func SetupDependencies(st store.ProductStore, publisher messaging.Publisher, subject string, logger *slog.Logger) *Dependencies {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	registerStoreMetrics(reg, st, logger)

	return &Dependencies{
		ProductService: service.NewService(st, publisher, subject, logger),
		Store:          st,
		Health:         grpcImpl.NewHealthReporter(st, logger),
		Registry:       reg,
		Logger:         logger,
	}
}

// SetupHttpHandler initializes the routes and middleware of the catalog.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies, cfg *config.Config) http.Handler {
	var extra []func(http.Handler) http.Handler
	if cfg.Metrics.Enabled {
		extra = append(extra, web.NewMetrics(deps.Registry).Middleware(ServiceName))
	}
	extra = append(extra, web.MaxBodySize(cfg.HTTPServer.MaxBodyBytes))

	mux := server.NewChiRouter(deps.Logger, extra...)
	wireRoutes(mux, deps, cfg)
	return otelhttp.NewHandler(mux, ServiceName)
}

// wireRoutes sets up the HTTP routes for the catalog.
func wireRoutes(mux *chi.Mux, deps *Dependencies, cfg *config.Config) {
	productHandler := rest.NewHandler(deps.ProductService, deps.Logger)
	productHandler.RegisterRoutes(mux)

	if cfg.Metrics.Enabled {
		mux.Method(http.MethodGet, cfg.Metrics.Path, promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry}))
	}
}

// SetupHttpServer creates and configures an HTTP server for the catalog.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps, cfg))
}

// SetupGrpcServer initializes the gRPC server carrying the health service.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	return server.NewGRPCServer(reflectionEnabled, server.HealthRegistration(deps.Health.Server()))
}

// SetupPublisher connects to NATS when enabled and makes sure the stream
// exists. The returned close function is never nil.
func SetupPublisher(ctx context.Context, cfg pkgconfig.NATSConfig, logger *slog.Logger) (messaging.Publisher, func(), error) {
	if !cfg.Enabled {
		logger.Info("NATS disabled, product events are dropped")
		return messaging.NoopPublisher{}, func() {}, nil
	}
	nc, err := nats.NewClient(cfg.Url, cfg.Timeout)
	if err != nil {
		return nil, func() {}, err
	}
	js, err := nats.NewJetStreamContext(nc)
	if err != nil {
		return nil, func() {}, err
	}
	streamCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := nats.EnsureStream(streamCtx, js, cfg.Stream, cfg.Subject); err != nil {
		nc.Close()
		return nil, func() {}, fmt.Errorf("failed to prepare product stream: %w", err)
	}
	logger.Info("Connected to NATS", "url", cfg.Url, "stream", cfg.Stream, "subject", cfg.Subject)
	return nats.NewJetStreamPublisher(js, cfg.Timeout), func() { _ = nc.Drain() }, nil
}

// registerStoreMetrics exposes live and total record counts as gauges.
func registerStoreMetrics(reg prometheus.Registerer, st store.ProductStore, logger *slog.Logger) {
	stats := func(pick func(store.Stats) int) func() float64 {
		return func() float64 {
			s, err := st.Stats(context.Background())
			if err != nil {
				logger.Warn("Failed to read store stats", "error", err)
				return 0
			}
			return float64(pick(s))
		}
	}
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: ServiceName,
			Name:      "products_live",
			Help:      "Products that are not deleted.",
		}, stats(func(s store.Stats) int { return s.Live })),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: ServiceName,
			Name:      "products_total",
			Help:      "Products held by the store, deleted ones included.",
		}, stats(func(s store.Stats) int { return s.Total })),
	)
}
