// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the single-use submission-key ledger
// that makes post creation idempotent under retried requests.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/als904204/detalk-api/internal/domain"
)

// ClaimPostKey attempts a conflict-safe insert of the submission key and
// reports whether this call performed the insert.
//
// Exactly one concurrent caller presenting the same key observes true; the
// storage-level primary key is the arbiter, not application locking. A false
// return means the key was already consumed (duplicate submission). Keys are
// persisted permanently; there is no expiry.
func ClaimPostKey(ctx context.Context, db *gorm.DB, key string, now time.Time) (bool, error) {
	rec := &domain.PostIdempotencyKey{
		Key:       key,
		CreatedAt: now,
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec)
	if res.Error != nil {
		// Some drivers report the conflict instead of swallowing it.
		if IsDuplicate(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
