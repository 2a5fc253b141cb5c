package store

import (
	"context"
	"fmt"
	"time"
)

const healthCheckTimeout = 1 * time.Second

// Health verifies the store is reachable and answering queries. The whole
// probe is bounded by a 1s internal timeout on top of the caller's context.
// It is safe to call concurrently and arbitrarily often.
func (s *Store) Health(ctx context.Context) error {
	hctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := s.db.PingContext(hctx); err != nil {
		return &HealthCheckError{Cause: "ping", Err: err}
	}
	var result int
	if err := s.db.QueryRowContext(hctx, "SELECT 1").Scan(&result); err != nil {
		return &HealthCheckError{Cause: "query", Err: err}
	}
	if result != 1 {
		return &HealthCheckError{Cause: "result", Err: fmt.Errorf("unexpected probe result %d", result)}
	}
	return nil
}
