package config

import (
	"fmt"
	"strings"
)

// LogConfig selects the log level and, optionally, a file to write to.
// An empty File means stdout.
type LogConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

// String returns a string representation of the log configuration.
func (c *LogConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Log ---\n")
	b.WriteString(fmt.Sprintf("  level: %s\n", c.Level))
	b.WriteString(fmt.Sprintf("  file: %s\n", valueOrDefault(c.File, "<stdout>")))
	return b.String()
}

func (c *LogConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("unknown log level: %s", c.Level)
	}
}

func valueOrDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
