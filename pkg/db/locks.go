package db

import (
	"context"

	"gorm.io/gorm"
)

// AdvisoryLock takes a transaction-scoped advisory lock derived from the given
// key. Two transactions locking the same key serialize; the lock releases on
// commit or rollback. On non-Postgres dialects (sqlite tests) this is a no-op
// and the partial unique index on payouts remains the enforcement mechanism.
func AdvisoryLock(ctx context.Context, tx *gorm.DB, key string) error {
	if tx == nil || tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.WithContext(ctx).Exec(`SELECT pg_advisory_xact_lock(hashtext(?))`, key).Error
}
