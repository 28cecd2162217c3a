// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the find-or-create registry for
// canonical tags.
package repo

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/als904204/detalk-api/internal/domain"
)

// labelFolder case-folds registry natural keys so "Cheap" and "cheap"
// resolve to the same row.
var labelFolder = cases.Fold()

// NormalizeLabel trims and case-folds a tag or reason natural key.
func NormalizeLabel(s string) string {
	return labelFolder.String(strings.TrimSpace(s))
}

// FindTagByName looks a tag up by exact (normalized) name, or ErrNotFound.
func FindTagByName(ctx context.Context, db *gorm.DB, name string) (*domain.Tag, error) {
	var t domain.Tag
	if err := db.WithContext(ctx).Where("name = ?", NormalizeLabel(name)).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTag inserts a tag row. A unique-constraint violation propagates for
// the caller to resolve via re-lookup.
func CreateTag(ctx context.Context, db *gorm.DB, name string) (*domain.Tag, error) {
	t := &domain.Tag{Name: NormalizeLabel(name)}
	if err := db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// ResolveTag returns the ID for a tag name, creating the row on first use.
//
// Concurrent resolution of the same text may race on the insert; the unique
// index rejects the loser, which is treated as "retry lookup" rather than a
// failure. Tag rows are never mutated, so the resolved ID is stable.
func ResolveTag(ctx context.Context, db *gorm.DB, name string) (int64, error) {
	if t, err := FindTagByName(ctx, db, name); err == nil {
		return t.ID, nil
	} else if err != gorm.ErrRecordNotFound {
		return 0, err
	}

	t, err := CreateTag(ctx, db, name)
	if err == nil {
		return t.ID, nil
	}
	if !IsDuplicate(err) {
		return 0, err
	}

	// Lost the insert race: the row exists now.
	existing, err := FindTagByName(ctx, db, name)
	if err != nil {
		return 0, err
	}
	return existing.ID, nil
}
