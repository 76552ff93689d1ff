package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/catalogtable/internal/catalog/store"
	"github.com/abgdnv/catalogtable/pkg/config"
	"github.com/abgdnv/catalogtable/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// SeedConfig selects the records loaded into the store at startup.
type SeedConfig struct {
	Mode  string `koanf:"mode"`
	Count int    `koanf:"count"`
}

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	NATS       config.NATSConfig       `koanf:"nats"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Metrics    config.MetricsConfig    `koanf:"metrics"`
	Seed       SeedConfig              `koanf:"seed"`
}

// Defaults are applied before the config file and the environment.
func Defaults() map[string]any {
	return map[string]any{
		"server.port":               8080,
		"server.maxHeaderBytes":     1 << 20,
		"server.maxBodyBytes":       1 << 20,
		"server.timeout.read":       "5s",
		"server.timeout.write":      "10s",
		"server.timeout.idle":       "60s",
		"server.timeout.readHeader": "2s",
		"grpc.port":                 "9090",
		"log.level":                 "info",
		"shutdown.timeout":          "10s",
		"nats.timeout":              "5s",
		"nats.stream":               "CATALOG",
		"nats.subject":              "catalog.products.changed",
		"metrics.enabled":           true,
		"metrics.path":              "/metrics",
		"seed.mode":                 store.SeedDev,
		"seed.count":                100000,
	}
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.GRPC.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Metrics.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.NATS.String())
	b.WriteString(c.Shutdown.String())

	b.WriteString("\n--- Seed ---\n")
	b.WriteString(fmt.Sprintf("  mode: %s\n", c.Seed.Mode))
	b.WriteString(fmt.Sprintf("  count: %d\n", c.Seed.Count))
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	validators := []interface{ Validate() error }{
		&c.HTTPServer, &c.Log, &c.PProf, &c.Shutdown, &c.GRPC, &c.NATS, &c.Telemetry, &c.Metrics, &c.Seed,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *SeedConfig) Validate() error {
	switch c.Mode {
	case store.SeedDev, store.SeedNone:
		return nil
	case store.SeedBulk:
		if c.Count <= 0 {
			return fmt.Errorf("seed.count must be greater than 0 in bulk mode: %d", c.Count)
		}
		return nil
	default:
		return fmt.Errorf("unknown seed mode: %q", c.Mode)
	}
}
