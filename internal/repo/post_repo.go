// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ProductPost aggregate.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a post is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/als904204/detalk-api/internal/domain"
)

// CreatePost inserts a new post row for writerID about productID with a zero
// recommend count. The numeric ID is assigned by the database sequence, which
// is what makes post IDs a usable recency cursor.
func CreatePost(ctx context.Context, db *gorm.DB, writerID, productID int64, now time.Time) (*domain.ProductPost, error) {
	p := &domain.ProductPost{
		WriterID:       writerID,
		ProductID:      productID,
		RecommendCount: 0,
		CreatedAt:      now,
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPost fetches a post by ID, or ErrNotFound if missing.
func GetPost(ctx context.Context, db *gorm.DB, id int64) (*domain.ProductPost, error) {
	var p domain.ProductPost
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// PostExists reports whether a post row with the given ID exists.
func PostExists(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.ProductPost{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// IncrementRecommendCount adds delta to the post's denormalized recommend
// counter with a single atomic UPDATE, never read-modify-write, so
// concurrent increments cannot lose updates. Returns ErrNotFound when the
// post does not exist.
func IncrementRecommendCount(ctx context.Context, db *gorm.DB, postID int64, delta int64) error {
	res := db.WithContext(ctx).
		Model(&domain.ProductPost{}).
		Where("id = ?", postID).
		UpdateColumn("recommend_count", gorm.Expr("recommend_count + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
