package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/compozy/litestore/pkg/logger"
)

// TxFunc is a unit of work executed inside a transaction. The handle is only
// valid until the function returns; it must not be retained or used after.
type TxFunc func(tx *sql.Tx) error

// Transaction runs fn inside a transaction with all-or-nothing semantics:
// a fn error rolls back and is returned unchanged, a panic rolls back and is
// re-raised, and a clean return commits. Exactly one of commit or rollback
// happens per invocation. Nested transactions are not supported.
func (s *Store) Transaction(ctx context.Context, fn TxFunc) error {
	log := logger.FromContext(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &TransactionError{Op: "begin", Err: err}
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("rollback after panic failed", "error", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error("transaction rollback failed", "error", rbErr, "cause", err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return &TransactionError{Op: "commit", Err: err}
	}
	return nil
}

// TransactionRetry runs fn as Transaction does, retrying transient failures
// (lock contention, dropped connections) up to maxRetries times with
// exponential backoff. Non-retryable errors return immediately.
func (s *Store) TransactionRetry(ctx context.Context, maxRetries uint64, fn TxFunc) error {
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(100*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.Transaction(ctx, fn)
		if err == nil {
			return nil
		}
		if isRetryableTxError(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// isRetryableTxError recognizes transient store failures worth retrying:
// SQLite busy/locked contention, deadlocks, and dropped driver connections.
func isRetryableTxError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"database is locked",
		"database table is locked",
		"sqlite_busy",
		"deadlock",
		"bad connection",
		"connection reset",
		"broken pipe",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
