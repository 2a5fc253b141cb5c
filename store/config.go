package store

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config describes the target store and how its connection pool is sized and
// tuned. Values are fixed once the store is opened; reconfiguration means
// building a new Config and replacing the store.
type Config struct {
	// Target is the store location: libsql://host for Turso-hosted stores,
	// file:path/to/db or :memory: for local SQLite files.
	Target string `koanf:"target" validate:"required"`

	// AuthToken authenticates against hosted targets. Ignored for local files.
	AuthToken string `koanf:"auth_token"`

	// MaxOpenConns bounds concurrently open connections.
	MaxOpenConns int `koanf:"max_open_conns" validate:"gt=0"`

	// MaxIdleConns bounds idle connections retained in the pool. Must not
	// exceed MaxOpenConns.
	MaxIdleConns int `koanf:"max_idle_conns" validate:"gte=0"`

	// ConnMaxLifetime bounds connection reuse duration. Zero means unlimited.
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"gte=0"`

	// ConnMaxIdleTime bounds idle connection retention.
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"gte=0"`

	// EnableWAL turns on write-ahead-log durability tuning for local files.
	EnableWAL bool `koanf:"enable_wal"`

	// EnableMetrics turns on Prometheus pool and query instrumentation.
	EnableMetrics bool `koanf:"enable_metrics"`
}

// DefaultConfig returns production-safe settings for a local file store.
func DefaultConfig() Config {
	return Config{
		Target:          "file:data/app.db",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
		EnableWAL:       true,
		EnableMetrics:   true,
	}
}

var configValidator = newConfigValidator()

// newConfigValidator reports violations under koanf key names so ConfigError
// fields line up with configuration files and environment variables.
func newConfigValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if tag := fld.Tag.Get("koanf"); tag != "" {
			return tag
		}
		return fld.Name
	})
	return v
}

// Validate checks field constraints and cross-field invariants. It returns a
// *ConfigError describing the first violation found.
func (c Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ConfigError{
				Field:  verrs[0].Field(),
				Reason: "failed constraint " + verrs[0].Tag(),
			}
		}
		return &ConfigError{Field: "config", Reason: err.Error()}
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return &ConfigError{
			Field:  "max_idle_conns",
			Reason: "must not exceed max_open_conns",
		}
	}
	return nil
}

// IsLocalTarget reports whether the target is a file-backed local store, the
// only kind that accepts SQLite pragma tuning.
func (c Config) IsLocalTarget() bool {
	return !isRemoteTarget(c.Target)
}

func isRemoteTarget(target string) bool {
	for _, scheme := range []string{"libsql://", "wss://", "ws://", "https://", "http://"} {
		if strings.HasPrefix(target, scheme) {
			return true
		}
	}
	return false
}
