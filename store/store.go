package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/compozy/litestore/pkg/logger"

	// Register the libSQL driver for remote targets.
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	// Register the modernc SQLite driver for local file targets.
	_ "modernc.org/sqlite"
)

const (
	defaultOpenPingTimeout = 5 * time.Second
	defaultMetricsInterval = 10 * time.Second
)

// Store owns the connection pool for a single relational store target. It is
// safe for concurrent use; lifecycle transitions (open, close) are serialized
// by construction and the close guard.
type Store struct {
	db        *sql.DB
	cfg       Config
	metrics   *Metrics
	stopWatch context.CancelFunc
	closeOnce sync.Once
	closeErr  error
}

type options struct {
	registerer      prometheus.Registerer
	metricsInterval time.Duration
}

// Option customizes store construction.
type Option func(*options)

// WithRegisterer sets the Prometheus registerer that receives the store's
// collectors. Defaults to prometheus.DefaultRegisterer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithMetricsInterval overrides the pool-stat sampling interval. Intended for
// tests; production uses the 10s default.
func WithMetricsInterval(d time.Duration) Option {
	return func(o *options) { o.metricsInterval = d }
}

// New opens the pool described by cfg, applies sizing limits, verifies
// liveness within a 5s bound, and starts durability tuning and metrics
// collection as configured. On probe failure the pool is closed before the
// error is returned.
func New(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &options{
		registerer:      prometheus.DefaultRegisterer,
		metricsInterval: defaultMetricsInterval,
	}
	for _, opt := range opts {
		opt(o)
	}

	log := logger.FromContext(ctx)
	driver, dsn := buildDSN(cfg)
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, &ConnectionError{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultOpenPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, &ConnectionError{Op: "ping", Err: err}
	}

	s := &Store{db: db, cfg: cfg}

	if cfg.EnableWAL && cfg.IsLocalTarget() {
		s.applyDurabilityTuning(ctx)
	}

	if cfg.EnableMetrics {
		m, err := NewMetrics(o.registerer, o.metricsInterval)
		if err != nil {
			log.Warn("store metrics not initialized; continuing without metrics", "error", err)
		} else {
			s.metrics = m
			watchCtx, stop := context.WithCancel(context.Background())
			s.stopWatch = stop
			go m.Watch(watchCtx, db)
		}
	}

	log.Info("store initialized",
		"driver", driver,
		"target", redactTarget(cfg.Target),
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
		"wal_enabled", cfg.EnableWAL && cfg.IsLocalTarget(),
		"metrics_enabled", s.metrics != nil,
	)
	return s, nil
}

// DB exposes the underlying pool for direct queries outside the transaction
// executor.
func (s *Store) DB() *sql.DB { return s.db }

// Stats returns a point-in-time copy of the native pool counters.
func (s *Store) Stats() sql.DBStats { return s.db.Stats() }

// ObserveQuery records the outcome of a query or transaction attempt under
// the given category. It is a no-op when metrics are disabled.
func (s *Store) ObserveQuery(category string, duration time.Duration, err error) {
	s.metrics.ObserveQuery(category, duration, err)
}

// Close stops the metrics collector and releases the pool. Subsequent calls
// return the result of the first close.
func (s *Store) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		if s.stopWatch != nil {
			s.stopWatch()
		}
		if s.metrics != nil {
			s.metrics.Unregister()
		}
		s.closeErr = s.db.Close()
		logger.FromContext(ctx).Info("store closed", "target", redactTarget(s.cfg.Target))
	})
	return s.closeErr
}

// buildDSN selects the driver for the target and assembles its DSN, embedding
// the auth token for hosted targets.
func buildDSN(cfg Config) (driver, dsn string) {
	if isRemoteTarget(cfg.Target) {
		dsn = cfg.Target
		if cfg.AuthToken != "" {
			sep := "?"
			if strings.Contains(cfg.Target, "?") {
				sep = "&"
			}
			dsn = fmt.Sprintf("%s%sauthToken=%s", cfg.Target, sep, url.QueryEscape(cfg.AuthToken))
		}
		return "libsql", dsn
	}
	switch {
	case cfg.Target == ":memory:":
		dsn = "file::memory:?cache=shared"
	case strings.HasPrefix(cfg.Target, "file:"):
		dsn = cfg.Target
	default:
		dsn = "file:" + cfg.Target
	}
	return "sqlite", dsn
}

// redactTarget strips credentials that may be embedded in the target URL so
// it is safe to log.
func redactTarget(target string) string {
	if i := strings.Index(target, "?"); i >= 0 {
		return target[:i]
	}
	return target
}
