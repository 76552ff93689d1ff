package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/abgdnv/catalogtable/pkg/config"
	"github.com/abgdnv/catalogtable/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// APIConfig points the client at the catalog HTTP API.
type APIConfig struct {
	BaseURL string        `koanf:"baseurl"`
	Timeout time.Duration `koanf:"timeout"`
}

// TableConfig tunes the virtualized list.
type TableConfig struct {
	RowHeight int `koanf:"rowheight"`
	Overscan  int `koanf:"overscan"`
}

type Config struct {
	API            APIConfig                   `koanf:"api"`
	CircuitBreaker config.CircuitBreakerConfig `koanf:"circuitbreaker"`
	Log            config.LogConfig            `koanf:"log"`
	NATS           config.NATSConfig           `koanf:"nats"`
	Telemetry      config.TelemetryConfig      `koanf:"telemetry"`
	Table          TableConfig                 `koanf:"table"`
}

// Defaults are applied before the config file and the environment.
// Logs go nowhere by default so they cannot corrupt the terminal.
func Defaults() map[string]any {
	return map[string]any{
		"api.baseurl":                        "http://localhost:8080",
		"api.timeout":                        "5s",
		"circuitbreaker.consecutivefailures": 5,
		"circuitbreaker.errorratepercent":    60,
		"circuitbreaker.opentimeout":         "10s",
		"circuitbreaker.halfopenrequests":    1,
		"log.level":                          "info",
		"log.file":                           "-",
		"nats.timeout":                       "5s",
		"nats.stream":                        "CATALOG",
		"nats.subject":                       "catalog.products.changed",
		"table.rowheight":                    1,
		"table.overscan":                     1,
	}
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("\n--- API ---\n")
	b.WriteString(fmt.Sprintf("  baseurl: %s\n", c.API.BaseURL))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.API.Timeout))
	b.WriteString(c.CircuitBreaker.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.NATS.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString("\n--- Table ---\n")
	b.WriteString(fmt.Sprintf("  rowheight: %d\n", c.Table.RowHeight))
	b.WriteString(fmt.Sprintf("  overscan: %d\n", c.Table.Overscan))
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return err
	}
	if err := c.CircuitBreaker.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.NATS.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if c.Table.RowHeight <= 0 {
		return fmt.Errorf("table.rowheight must be greater than 0: %d", c.Table.RowHeight)
	}
	if c.Table.Overscan < 0 {
		return fmt.Errorf("table.overscan must not be negative: %d", c.Table.Overscan)
	}
	return nil
}

func (c *APIConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.baseurl must be an absolute URL: %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be greater than 0")
	}
	return nil
}
