package store

import (
	"context"

	"github.com/compozy/litestore/pkg/logger"
)

// secondaryPragmas tune WAL behavior once write-ahead journaling is active.
// Each is independent: one failing must not stop the rest.
var secondaryPragmas = []string{
	"PRAGMA synchronous=NORMAL",
	"PRAGMA wal_autocheckpoint=1000",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
}

// applyDurabilityTuning switches a local file store into WAL mode and applies
// the secondary tuning pragmas. Failures degrade durability but never fail
// construction; each is logged as a warning.
func (s *Store) applyDurabilityTuning(ctx context.Context) {
	log := logger.FromContext(ctx)
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		log.Warn("could not enable WAL journal mode; continuing with default journaling", "error", err)
		return
	}
	for _, pragma := range secondaryPragmas {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			log.Warn("could not apply tuning pragma", "pragma", pragma, "error", err)
		}
	}
}
