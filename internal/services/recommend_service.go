// Package services – RecommendService
//
// This file implements the RecommendService, which records member
// endorsements of product posts. A recommendation cites one or more
// canonical reasons; each (member, post, reason) triple may exist at most
// once in the ledger, and the post's denormalized recommend counter moves
// by exactly the number of accepted reasons.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/als904204/detalk-api/internal/domain"
	"github.com/als904204/detalk-api/internal/repo"
)

// RecommendService implements the use-cases around post recommendations.
type RecommendService struct {
	// DB is the database handle used for all recommendation operations.
	// The handle may be a plain *gorm.DB or a transaction-bound handle.
	DB *gorm.DB
}

// Add records memberID's recommendation of postID, one ledger row per reason.
//
// Semantics and validation:
//   - reasons must be non-empty after trimming; otherwise ErrEmptyReasons.
//   - postID must reference an existing post; otherwise ErrPostNotFound —
//     checked before any write.
//   - Each reason resolves through the canonical registry (created on first
//     use). If the member already recommended this post for a resolved
//     reason, the call fails with a DuplicateRecommendationError naming that
//     reason and nothing from the batch is applied.
//   - On success the post's recommend counter is incremented by the batch
//     size with a single atomic update.
//
// Concurrency & atomicity:
//   - Everything runs in one transaction: existence check → reason
//     resolution → duplicate check → batch insert → counter increment. A
//     duplicate detected mid-batch rolls the whole call back.
//   - The pre-check is a friendliness optimization; the unique index on
//     (member, reason, post) is the authoritative guard. Two identical
//     concurrent calls may both pass the check, but the loser's insert trips
//     the constraint and is reported as the same duplicate error.
func (s *RecommendService) Add(ctx context.Context, postID, memberID int64, content string, reasons []string) error {
	cleaned := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if t := strings.TrimSpace(r); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return ErrEmptyReasons
	}

	now := time.Now().UTC()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := repo.PostExists(ctx, tx, postID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrPostNotFound
		}

		rows := make([]domain.RecommendProduct, 0, len(cleaned))
		seen := make(map[int64]struct{}, len(cleaned))
		for _, reason := range cleaned {
			recommendID, err := repo.ResolveRecommend(ctx, tx, reason, now)
			if err != nil {
				return err
			}
			if _, dup := seen[recommendID]; dup {
				// Same reason twice in one request collapses to one row.
				continue
			}
			seen[recommendID] = struct{}{}

			already, err := repo.IsAlreadyRecommended(ctx, tx, memberID, recommendID, postID)
			if err != nil {
				return err
			}
			if already {
				log.Warn().
					Int64("member_id", memberID).
					Int64("post_id", postID).
					Int64("recommend_id", recommendID).
					Str("reason", reason).
					Msg("duplicate recommendation attempt")
				return &DuplicateRecommendationError{
					MemberID: memberID,
					PostID:   postID,
					Reason:   reason,
				}
			}

			rows = append(rows, domain.RecommendProduct{
				RecommendID:   recommendID,
				ProductPostID: postID,
				MemberID:      memberID,
				Content:       content,
				CreatedAt:     now,
			})
		}

		if err := repo.CreateRecommendProducts(ctx, tx, rows); err != nil {
			// Constraint backstop: a race that slipped past the pre-check.
			if repo.IsDuplicate(err) {
				return &DuplicateRecommendationError{
					MemberID: memberID,
					PostID:   postID,
					Reason:   cleaned[0],
				}
			}
			return err
		}

		return repo.IncrementRecommendCount(ctx, tx, postID, int64(len(rows)))
	})
}
