// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for post content
// snapshots, their image/tag associations, and the last-snapshot pointer.
//
// Writing a new version is "insert snapshot, then flip pointer": the pointer
// flip is the final single-row write, so a post is never left without a
// current snapshot and losing writers only leave unreachable history rows.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/als904204/detalk-api/internal/domain"
)

// CreateSnapshot inserts an immutable content version for a post.
func CreateSnapshot(ctx context.Context, db *gorm.DB, postID int64, title, description string, pricingPlanID int64, now time.Time) (*domain.ProductPostSnapshot, error) {
	s := &domain.ProductPostSnapshot{
		PostID:        postID,
		Title:         title,
		Description:   description,
		PricingPlanID: pricingPlanID,
		CreatedAt:     now,
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// GetSnapshot fetches a snapshot by ID, or ErrNotFound if missing.
func GetSnapshot(ctx context.Context, db *gorm.DB, id int64) (*domain.ProductPostSnapshot, error) {
	var s domain.ProductPostSnapshot
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSnapshots returns a post's full version history, oldest first.
func ListSnapshots(ctx context.Context, db *gorm.DB, postID int64) ([]domain.ProductPostSnapshot, error) {
	var out []domain.ProductPostSnapshot
	err := db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// AddSnapshotImages attaches files to a snapshot in the given order. The
// slice position becomes the explicit sequence number.
func AddSnapshotImages(ctx context.Context, db *gorm.DB, snapshotID int64, fileIDs []int64) error {
	if len(fileIDs) == 0 {
		return nil
	}
	rows := make([]domain.ProductPostSnapshotImage, 0, len(fileIDs))
	for i, fileID := range fileIDs {
		rows = append(rows, domain.ProductPostSnapshotImage{
			SnapshotID: snapshotID,
			Sequence:   i,
			FileID:     fileID,
		})
	}
	return db.WithContext(ctx).Create(&rows).Error
}

// AddSnapshotTags links resolved tag IDs to a snapshot. The tag list is a
// set; callers pass deduplicated IDs.
func AddSnapshotTags(ctx context.Context, db *gorm.DB, snapshotID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]domain.ProductPostSnapshotTag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		rows = append(rows, domain.ProductPostSnapshotTag{
			SnapshotID: snapshotID,
			TagID:      tagID,
		})
	}
	return db.WithContext(ctx).Create(&rows).Error
}

// SetLastSnapshot points the post's current-snapshot indirection at
// snapshotID, inserting the pointer row on first publish and overwriting it
// on later updates. Last writer wins; no version token is checked.
func SetLastSnapshot(ctx context.Context, db *gorm.DB, postID, snapshotID int64) error {
	rec := &domain.ProductPostLastSnapshot{
		PostID:     postID,
		SnapshotID: snapshotID,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"snapshot_id"}),
		}).
		Create(rec).Error
}

// GetLastSnapshotID follows the pointer for postID, or ErrNotFound when the
// post has never published a snapshot.
func GetLastSnapshotID(ctx context.Context, db *gorm.DB, postID int64) (int64, error) {
	var rec domain.ProductPostLastSnapshot
	if err := db.WithContext(ctx).Where("post_id = ?", postID).First(&rec).Error; err != nil {
		return 0, err
	}
	return rec.SnapshotID, nil
}
