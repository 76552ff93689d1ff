package grpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/abgdnv/catalogtable/internal/catalog/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type brokenStore struct{ store.ProductStore }

func (brokenStore) Stats(context.Context) (store.Stats, error) {
	return store.Stats{}, errors.New("unreachable")
}

func status(t *testing.T, r *HealthReporter, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := r.Server().Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.GetStatus()
}

func TestHealthReporter_Check(t *testing.T) {
	t.Run("serving when the store answers", func(t *testing.T) {
		// given
		r := NewHealthReporter(store.NewInMemoryStore(), testLogger)
		assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, r, ServiceName))

		// when
		got := r.Check(context.Background())

		// then
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, got)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, r, ServiceName))
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status(t, r, ""))
	})

	t.Run("not serving when the store fails", func(t *testing.T) {
		// given
		r := NewHealthReporter(brokenStore{}, testLogger)

		// when
		got := r.Check(context.Background())

		// then
		assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, got)
		assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, r, ServiceName))
	})
}

func TestHealthReporter_RunShutsDownOnCancel(t *testing.T) {
	// given
	r := NewHealthReporter(store.NewInMemoryStore(), testLogger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	// when
	go func() { done <- r.Run(ctx, 10*time.Millisecond) }()
	require.Eventually(t, func() bool {
		resp, err := r.Server().Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 5*time.Millisecond)
	cancel()

	// then
	require.NoError(t, <-done)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status(t, r, ServiceName))
}
