package store

import (
	"errors"
	"fmt"
)

// ConfigError reports an invalid Configuration value. It is returned at
// construction time and is always fatal to the caller.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("store: invalid config: %s: %s", e.Field, e.Reason)
}

// ConnectionError reports that the pool could not be opened or did not pass
// the initial liveness probe. The store handle is unusable when this is
// returned.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// HealthCheckError reports a failed health probe. Cause is one of "ping",
// "query" or "result".
type HealthCheckError struct {
	Cause string
	Err   error
}

func (e *HealthCheckError) Error() string {
	return fmt.Sprintf("store: health check failed (%s): %v", e.Cause, e.Err)
}

func (e *HealthCheckError) Unwrap() error { return e.Err }

// TransactionError wraps a begin or commit failure. Rollback failures are
// logged alongside the original cause and never replace it.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("store: transaction %s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// IsCommitError reports whether err is a TransactionError produced by a
// failed commit.
func IsCommitError(err error) bool {
	var txErr *TransactionError
	return errors.As(err, &txErr) && txErr.Op == "commit"
}
