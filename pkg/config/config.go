// Package config loads litestore settings from defaults, an optional YAML
// file, and LITESTORE_-prefixed environment variables, in that precedence
// order, and validates the result before handing it to the store layer.
package config

import (
	"github.com/compozy/litestore/pkg/logger"
	"github.com/compozy/litestore/store"
)

// Config is the full application-facing configuration surface.
type Config struct {
	Database store.Config `koanf:"database"`
	Log      LogConfig    `koanf:"log"`
}

// LogConfig holds the loadable subset of logger settings.
type LogConfig struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error disabled"`
	JSON  bool   `koanf:"json"`
}

// Default returns the baseline configuration before file and environment
// overrides are applied.
func Default() *Config {
	return &Config{
		Database: store.DefaultConfig(),
		Log: LogConfig{
			Level: logger.InfoLevel.String(),
			JSON:  false,
		},
	}
}

// LoggerConfig translates the loaded log settings into a logger.Config.
func (c *Config) LoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = logger.LogLevel(c.Log.Level)
	cfg.JSON = c.Log.JSON
	return cfg
}
