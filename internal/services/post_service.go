// Package services – PostService
//
// This file implements the PostService, which owns the product-post
// lifecycle: idempotent creation, content updates through the snapshot
// store, and the cursor-paginated feed reads. Each write runs inside a
// single transaction so a failure at any step leaves no partial snapshot,
// tag, or pointer state behind.
//
// Service-level errors (e.g. ErrDuplicateSubmission, ErrPostNotFound,
// ErrForbiddenEdit) are returned for predictable cases so handlers can map
// them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/als904204/detalk-api/internal/domain"
	"github.com/als904204/detalk-api/internal/repo"
)

// PostContent is the editable portion of a post: everything captured by a
// content snapshot.
type PostContent struct {
	Title       string
	Description string
	PricingPlan string
	Tags        []string
	ImageIDs    []int64
	URLs        []string
}

// CreatePostInput carries everything needed to publish a new post.
type CreatePostInput struct {
	// SubmissionKey is the client-supplied UUID that makes retries safe.
	SubmissionKey string
	// ProductName identifies (or lazily creates) the underlying product.
	ProductName string
	// IsMaker registers the author as a maker of the product.
	IsMaker bool

	PostContent
}

// CursorPage is one page of a cursor-paginated feed. NextCursor is set when
// a full page was returned and names the last item's post ID; passing it
// back fetches the following page.
type CursorPage[T any] struct {
	Items      []T    `json:"items"`
	NextCursor *int64 `json:"next_cursor,omitempty"`
}

// PostService implements the product-post use-cases over the repository
// layer. DB may be a plain handle or transaction-bound; each write method
// opens its own transaction.
type PostService struct {
	DB *gorm.DB

	// DefaultPageSize is used when a feed request asks for zero or fewer
	// items. MaxPageSize bounds every feed request.
	DefaultPageSize int
	MaxPageSize     int
}

// NewPostService constructs a PostService with the stock paging bounds
// (default 5 per page, at most 20).
func NewPostService(db *gorm.DB) *PostService {
	return &PostService{
		DB:              db,
		DefaultPageSize: 5,
		MaxPageSize:     20,
	}
}

// Create publishes a new post for writerID and returns the new post ID.
//
// Semantics:
//   - in.SubmissionKey must be a UUID; the key is claimed first, and a replay
//     fails with ErrDuplicateSubmission before anything else is written.
//   - The product is found-or-created by name; external links attach to it,
//     and IsMaker registers the author as a maker.
//   - The initial snapshot (title, description, plan, tags, ordered images)
//     is written and the last-snapshot pointer set as the final step, so a
//     committed post always has exactly one current snapshot.
//
// The whole flow runs in one transaction: a failed step (unknown pricing
// plan, storage fault) rolls back the key claim together with every other
// write, so the client can retry with the same key.
func (s *PostService) Create(ctx context.Context, writerID int64, in CreatePostInput) (int64, error) {
	key, err := uuid.Parse(strings.TrimSpace(in.SubmissionKey))
	if err != nil {
		return 0, ErrInvalidSubmissionKey
	}
	if strings.TrimSpace(in.ProductName) == "" {
		return 0, ErrEmptyProductName
	}
	if strings.TrimSpace(in.Title) == "" {
		return 0, ErrEmptyTitle
	}

	now := time.Now().UTC()
	var postID int64

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claimed, err := repo.ClaimPostKey(ctx, tx, key.String(), now)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrDuplicateSubmission
		}

		plan, err := repo.FindPricingPlanByName(ctx, tx, in.PricingPlan)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPricingPlanNotFound
			}
			return err
		}

		product, err := repo.ResolveProduct(ctx, tx, strings.TrimSpace(in.ProductName), now)
		if err != nil {
			return err
		}
		if err := repo.AddProductLinks(ctx, tx, product.ID, in.URLs); err != nil {
			return err
		}
		if in.IsMaker {
			if err := repo.EnsureProductMaker(ctx, tx, product.ID, writerID, now); err != nil {
				return err
			}
		}

		post, err := repo.CreatePost(ctx, tx, writerID, product.ID, now)
		if err != nil {
			return err
		}
		postID = post.ID

		return s.writeSnapshot(ctx, tx, post.ID, plan.ID, in.PostContent, now)
	})
	if err != nil {
		return 0, err
	}

	log.Info().
		Int64("post_id", postID).
		Int64("writer_id", writerID).
		Msg("product post created")
	return postID, nil
}

// Update writes a new content snapshot for postID and repoints the post's
// current version at it. Only the post's writer may update it. The previous
// snapshot stays in history; concurrent updates are last-writer-wins, the
// losing snapshot simply becomes unreachable as "current".
func (s *PostService) Update(ctx context.Context, postID, editorID int64, content PostContent) error {
	if strings.TrimSpace(content.Title) == "" {
		return ErrEmptyTitle
	}

	now := time.Now().UTC()

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := repo.GetPost(ctx, tx, postID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}
		if post.WriterID != editorID {
			return ErrForbiddenEdit
		}

		plan, err := repo.FindPricingPlanByName(ctx, tx, content.PricingPlan)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPricingPlanNotFound
			}
			return err
		}

		return s.writeSnapshot(ctx, tx, postID, plan.ID, content, now)
	})
}

// writeSnapshot inserts the snapshot row, its ordered images and tag set,
// then advances the last-snapshot pointer. The pointer flip is deliberately
// the final write.
func (s *PostService) writeSnapshot(ctx context.Context, tx *gorm.DB, postID, planID int64, content PostContent, now time.Time) error {
	snap, err := repo.CreateSnapshot(ctx, tx, postID, strings.TrimSpace(content.Title), content.Description, planID, now)
	if err != nil {
		return err
	}
	if err := repo.AddSnapshotImages(ctx, tx, snap.ID, content.ImageIDs); err != nil {
		return err
	}

	tagIDs := make([]int64, 0, len(content.Tags))
	seen := make(map[int64]struct{}, len(content.Tags))
	for _, tag := range content.Tags {
		if strings.TrimSpace(tag) == "" {
			continue
		}
		id, err := repo.ResolveTag(ctx, tx, tag)
		if err != nil {
			return err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		tagIDs = append(tagIDs, id)
	}
	if err := repo.AddSnapshotTags(ctx, tx, snap.ID, tagIDs); err != nil {
		return err
	}

	return repo.SetLastSnapshot(ctx, tx, postID, snap.ID)
}

// Get returns the full projection of one post, or ErrPostNotFound.
func (s *PostService) Get(ctx context.Context, postID int64) (*domain.PostView, error) {
	view, err := repo.FindPostDetails(ctx, s.DB, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return view, nil
}

// Feed returns the global feed page, most recent post first.
func (s *PostService) Feed(ctx context.Context, pageSize int, cursor *int64) (*CursorPage[domain.PostView], error) {
	pageSize, err := s.boundPageSize(pageSize)
	if err != nil {
		return nil, err
	}
	items, err := repo.FindPostPage(ctx, s.DB, pageSize, cursor)
	if err != nil {
		return nil, err
	}
	return pageOf(items, pageSize), nil
}

// FeedByWriter returns the feed page of posts owned by memberID.
func (s *PostService) FeedByWriter(ctx context.Context, memberID int64, pageSize int, cursor *int64) (*CursorPage[domain.PostView], error) {
	pageSize, err := s.boundPageSize(pageSize)
	if err != nil {
		return nil, err
	}
	items, err := repo.FindPostPageByWriter(ctx, s.DB, memberID, pageSize, cursor)
	if err != nil {
		return nil, err
	}
	return pageOf(items, pageSize), nil
}

// FeedByRecommender returns the posts memberID has recommended; each item
// carries the member's own reason text.
func (s *PostService) FeedByRecommender(ctx context.Context, memberID int64, pageSize int, cursor *int64) (*CursorPage[domain.PostView], error) {
	pageSize, err := s.boundPageSize(pageSize)
	if err != nil {
		return nil, err
	}
	items, err := repo.FindRecommendedPostPage(ctx, s.DB, memberID, pageSize, cursor)
	if err != nil {
		return nil, err
	}
	return pageOf(items, pageSize), nil
}

// boundPageSize applies the default for non-positive sizes and rejects sizes
// above the configured maximum.
func (s *PostService) boundPageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return s.DefaultPageSize, nil
	}
	if pageSize > s.MaxPageSize {
		return 0, ErrPageSizeExceeded
	}
	return pageSize, nil
}

// pageOf wraps a result slice, setting the next cursor only when the page
// came back full (a short page means the feed is exhausted).
func pageOf(items []domain.PostView, pageSize int) *CursorPage[domain.PostView] {
	page := &CursorPage[domain.PostView]{Items: items}
	if len(items) == pageSize && pageSize > 0 {
		last := items[len(items)-1].ID
		page.NextCursor = &last
	}
	return page
}
