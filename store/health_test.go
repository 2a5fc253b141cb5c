package store

import (
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newHealthMockStore builds a store over sqlmock with ping monitoring on, so
// probe failures past the ping stage can be forced.
func newHealthMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Store{db: db}, mock
}

func TestHealth(t *testing.T) {
	t.Run("Should pass for a live store", func(t *testing.T) {
		s := newTestStore(t, fileConfig(t))
		assert.NoError(t, s.Health(testContext(t)))
	})

	t.Run("Should be safe under concurrent callers", func(t *testing.T) {
		s := newTestStore(t, fileConfig(t))
		ctx := testContext(t)

		const callers = 16
		errs := make([]error, callers)
		var wg sync.WaitGroup
		wg.Add(callers)
		for i := 0; i < callers; i++ {
			go func(n int) {
				defer wg.Done()
				errs[n] = s.Health(ctx)
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			assert.NoError(t, err)
		}
	})

	t.Run("Should not perturb pool state", func(t *testing.T) {
		cfg := fileConfig(t)
		cfg.MaxOpenConns = 3
		s := newTestStore(t, cfg)
		ctx := testContext(t)

		for i := 0; i < 10; i++ {
			require.NoError(t, s.Health(ctx))
		}
		assert.LessOrEqual(t, s.Stats().OpenConnections, 3)
	})

	t.Run("Should report a query cause when the round trip fails", func(t *testing.T) {
		s, mock := newHealthMockStore(t)
		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnError(sql.ErrConnDone)

		err := s.Health(testContext(t))
		var hcErr *HealthCheckError
		require.ErrorAs(t, err, &hcErr)
		assert.Equal(t, "query", hcErr.Cause)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should report a result cause on an unexpected probe value", func(t *testing.T) {
		s, mock := newHealthMockStore(t)
		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(2))

		err := s.Health(testContext(t))
		var hcErr *HealthCheckError
		require.ErrorAs(t, err, &hcErr)
		assert.Equal(t, "result", hcErr.Cause)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should expose the underlying cause", func(t *testing.T) {
		ctx := testContext(t)
		s, err := New(ctx, fileConfig(t))
		require.NoError(t, err)
		require.NoError(t, s.Close(ctx))

		err = s.Health(ctx)
		var hcErr *HealthCheckError
		require.ErrorAs(t, err, &hcErr)
		assert.NotNil(t, errors.Unwrap(err))
	})
}
