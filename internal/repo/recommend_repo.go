// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the recommendation-reason registry and
// the recommendation ledger.
//
// Error semantics:
//   - Duplicate ledger rows (same member, reason, post) rely on the database
//     unique constraint and surface as ErrDuplicate from CreateRecommendProducts.
//     The service layer pre-checks with IsAlreadyRecommended for a friendly
//     error; the constraint is the authoritative guard that collapses the
//     check-then-insert race.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/als904204/detalk-api/internal/domain"
)

// FindRecommendByReason looks a canonical reason up by (normalized) text,
// or ErrNotFound.
func FindRecommendByReason(ctx context.Context, db *gorm.DB, reason string) (*domain.Recommend, error) {
	var r domain.Recommend
	if err := db.WithContext(ctx).Where("value = ?", NormalizeLabel(reason)).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRecommend inserts a canonical reason row. A unique-constraint
// violation propagates for the caller to resolve via re-lookup.
func CreateRecommend(ctx context.Context, db *gorm.DB, reason string, now time.Time) (*domain.Recommend, error) {
	r := &domain.Recommend{
		Value:     NormalizeLabel(reason),
		CreatedAt: now,
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// ResolveRecommend returns the ID for a reason text, creating the row on
// first use. Same race discipline as ResolveTag: a lost duplicate-insert
// race falls back to a fresh lookup.
func ResolveRecommend(ctx context.Context, db *gorm.DB, reason string, now time.Time) (int64, error) {
	if r, err := FindRecommendByReason(ctx, db, reason); err == nil {
		return r.ID, nil
	} else if err != gorm.ErrRecordNotFound {
		return 0, err
	}

	r, err := CreateRecommend(ctx, db, reason, now)
	if err == nil {
		return r.ID, nil
	}
	if !IsDuplicate(err) {
		return 0, err
	}

	existing, err := FindRecommendByReason(ctx, db, reason)
	if err != nil {
		return 0, err
	}
	return existing.ID, nil
}

// IsAlreadyRecommended reports whether a ledger row exists for the
// (member, reason, post) triple.
func IsAlreadyRecommended(ctx context.Context, db *gorm.DB, memberID, recommendID, postID int64) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.RecommendProduct{}).
		Where("member_id = ? AND recommend_id = ? AND product_post_id = ?", memberID, recommendID, postID).
		Count(&count).Error
	return count > 0, err
}

// CreateRecommendProducts batch-inserts ledger rows. When any row trips the
// (member, reason, post) unique index the whole statement fails with
// ErrDuplicate and nothing is written.
func CreateRecommendProducts(ctx context.Context, db *gorm.DB, rows []domain.RecommendProduct) error {
	if len(rows) == 0 {
		return nil
	}
	if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// CountRecommendEntries returns the number of ledger rows for a post.
func CountRecommendEntries(ctx context.Context, db *gorm.DB, postID int64) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.RecommendProduct{}).
		Where("product_post_id = ?", postID).
		Count(&count).Error
	return count, err
}
