package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validator interface {
	Validate() error
}

func TestSectionValidate(t *testing.T) {
	tests := []struct {
		name    string
		section validator
		wantErr string
	}{
		{name: "pprof disabled ignores address", section: &PProfConfig{Addr: "nonsense"}},
		{name: "pprof enabled needs host:port", section: &PProfConfig{Enabled: true, Addr: "6060"}, wantErr: "invalid pprof address"},
		{name: "pprof enabled ok", section: &PProfConfig{Enabled: true, Addr: "localhost:6060"}},
		{name: "negative shutdown", section: &ShutdownConfig{Timeout: -time.Second}, wantErr: "must not be negative"},
		{name: "log level case insensitive", section: &LogConfig{Level: "DEBUG"}},
		{name: "unknown log level", section: &LogConfig{Level: "trace"}, wantErr: "unknown log level"},
		{name: "metrics path without slash", section: &MetricsConfig{Path: "metrics"}, wantErr: "must start with '/'"},
		{name: "grpc port missing", section: &GrpcServerConfig{}, wantErr: "gRPC port"},
		{name: "nats disabled", section: &NATSConfig{}},
		{name: "nats enabled without url", section: &NATSConfig{Enabled: true, Timeout: time.Second, Subject: "s"}, wantErr: "NATS URL"},
		{name: "telemetry disabled", section: &TelemetryConfig{}},
		{
			name:    "telemetry ratio out of range",
			section: &TelemetryConfig{Enabled: true, Traces: TracesConfig{SampleRatio: 1.5, OtlpHttp: OtlpHttpConfig{Endpoint: "x:4318", Timeout: time.Second}}},
			wantErr: "sampleratio",
		},
		{
			name:    "breaker error rate out of range",
			section: &CircuitBreakerConfig{ConsecutiveFailures: 1, ErrorRatePercent: 101, OpenTimeout: time.Second},
			wantErr: "error_rate_percent",
		},
		{name: "http port zero", section: &HTTPConfig{}, wantErr: "invalid HTTP server port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// when
			err := tt.section.Validate()

			// then
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	// given
	shutdown := ShutdownConfig{}
	metrics := MetricsConfig{Enabled: true}
	breaker := CircuitBreakerConfig{ConsecutiveFailures: 3, OpenTimeout: time.Second}

	// when
	require.NoError(t, shutdown.Validate())
	require.NoError(t, metrics.Validate())
	require.NoError(t, breaker.Validate())

	// then
	assert.Equal(t, defaultShutdownTimeout, shutdown.Timeout)
	assert.Equal(t, "/metrics", metrics.Path)
	assert.Equal(t, uint32(1), breaker.HalfOpenRequests)
	assert.Equal(t, 1.0, TracesConfig{}.Ratio())
}
