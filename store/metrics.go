package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "litestore"

// Metrics samples pool statistics into gauges and aggregates per-category
// query outcomes. All collectors are registered against an explicit
// registerer so independent instances can coexist, notably in tests.
//
// Query categories are free-form label values; callers are responsible for
// keeping their cardinality bounded.
type Metrics struct {
	registerer prometheus.Registerer
	interval   time.Duration

	openConnections prometheus.Gauge
	idleConnections prometheus.Gauge
	waitCount       prometheus.Gauge
	waitDuration    prometheus.Gauge
	queryDuration   *prometheus.HistogramVec
	queryErrors     *prometheus.CounterVec
}

// NewMetrics builds and registers the store's collectors. Registration is
// all-or-nothing: on any failure the already-registered collectors are
// unregistered before the error is returned.
func NewMetrics(reg prometheus.Registerer, interval time.Duration) (*Metrics, error) {
	if interval <= 0 {
		interval = defaultMetricsInterval
	}
	m := &Metrics{
		registerer: reg,
		interval:   interval,
		openConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "open_connections",
			Help:      "Number of open connections in the pool.",
		}),
		idleConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "idle_connections",
			Help:      "Number of idle connections in the pool.",
		}),
		waitCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "wait_count",
			Help:      "Cumulative number of waits for a connection.",
		}),
		waitDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "wait_duration_seconds",
			Help:      "Cumulative time spent waiting for a connection.",
		}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "query_duration_seconds",
			Help:      "Query duration by category.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query_type"}),
		queryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "query_errors_total",
			Help:      "Query errors by category.",
		}, []string{"query_type"}),
	}
	var registered []prometheus.Collector
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			for _, r := range registered {
				reg.Unregister(r)
			}
			return nil, fmt.Errorf("store: register metrics: %w", err)
		}
		registered = append(registered, c)
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.openConnections,
		m.idleConnections,
		m.waitCount,
		m.waitDuration,
		m.queryDuration,
		m.queryErrors,
	}
}

// Unregister removes the collectors from the registerer, freeing the metric
// names for a replacement store.
func (m *Metrics) Unregister() {
	for _, c := range m.collectors() {
		m.registerer.Unregister(c)
	}
}

// Watch samples pool statistics on the configured interval until ctx is
// canceled. It performs only non-blocking reads of the pool counters.
func (m *Metrics) Watch(ctx context.Context, db *sql.DB) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample(db.Stats())
		}
	}
}

func (m *Metrics) sample(stats sql.DBStats) {
	m.openConnections.Set(float64(stats.OpenConnections))
	m.idleConnections.Set(float64(stats.Idle))
	m.waitCount.Set(float64(stats.WaitCount))
	m.waitDuration.Set(stats.WaitDuration.Seconds())
}

// ObserveQuery records one query or transaction outcome under the given
// category. Safe for concurrent use and a no-op on a nil receiver, so
// callers never need to branch on whether metrics are enabled.
func (m *Metrics) ObserveQuery(category string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(category).Observe(duration.Seconds())
	if err != nil {
		m.queryErrors.WithLabelValues(category).Inc()
	}
}
