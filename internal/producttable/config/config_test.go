package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/abgdnv/catalogtable/pkg/config/configloader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T) (*Config, error) {
	t.Helper()
	dir := t.TempDir()
	return configloader.Load[*Config]("producttable_test",
		configloader.WithFile(filepath.Join(dir, "absent.yaml")),
		configloader.WithEnvFile(filepath.Join(dir, "absent.env")),
		configloader.WithDefaults(Defaults()))
}

func TestLoad_Defaults(t *testing.T) {
	// when
	cfg, err := load(t)

	// then
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, uint32(5), cfg.CircuitBreaker.ConsecutiveFailures)
	assert.Equal(t, "-", cfg.Log.File)
	assert.Equal(t, 1, cfg.Table.Overscan)
}

func TestLoad_EnvOverride(t *testing.T) {
	// given
	t.Setenv("PRODUCTTABLE_TEST_API_BASEURL", "http://catalog:9000")

	// when
	cfg, err := load(t)

	// then
	require.NoError(t, err)
	assert.Equal(t, "http://catalog:9000", cfg.API.BaseURL)
}

func TestAPIConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     APIConfig
		wantErr bool
	}{
		{name: "valid", cfg: APIConfig{BaseURL: "http://localhost:8080", Timeout: time.Second}},
		{name: "relative url", cfg: APIConfig{BaseURL: "/products", Timeout: time.Second}, wantErr: true},
		{name: "no timeout", cfg: APIConfig{BaseURL: "http://localhost:8080"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
