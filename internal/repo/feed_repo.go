// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file builds the denormalized feed projections: post +
// author profile + current snapshot + pricing plan + tags + images + links.
//
// Query shape: a primary cursor query fetches one row per post through the
// last-snapshot indirection (all single-valued joins), then the multi-valued
// associations (tags, product links, snapshot images) are batch-fetched by
// the page's parent IDs and grouped into maps. Joining the one-to-many
// relations directly into the primary query would multiply rows and break
// LIMIT-based paging, so every child relation goes through the second pass.
//
// Pagination: cursor is the last-seen post ID. The page condition is
// `id < cursor` when a cursor is present; ordering is post ID descending
// (IDs are sequence-assigned, so a proxy for recency) with creation time
// descending as the tie-breaker.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/als904204/detalk-api/internal/domain"
)

// feedRow is the scan target of the primary feed query: one row per post
// with every single-valued column of the projection.
type feedRow struct {
	ID             int64
	Nickname       *string
	UserHandle     *string
	CreatedAt      time.Time
	MakerID        *int64
	AvatarURL      *string
	Title          string
	Description    string
	PricingPlan    string
	RecommendCount int64
	SnapshotID     int64
	ProductID      int64
	Reason         *string
}

const feedColumns = `
	p.id,
	mp.nickname,
	mp.user_handle,
	s.created_at,
	pm.id AS maker_id,
	af.url AS avatar_url,
	s.title,
	s.description,
	pp.name AS pricing_plan,
	p.recommend_count,
	s.id AS snapshot_id,
	p.product_id`

// feedBase composes the single-valued joins shared by every feed shape:
// post → last-snapshot pointer → snapshot → pricing plan, plus the optional
// author profile, maker registration (author as maker of this product), and
// avatar file.
func feedBase(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).
		Table("product_posts AS p").
		Joins("JOIN product_post_last_snapshots ls ON ls.post_id = p.id").
		Joins("JOIN product_post_snapshots s ON s.id = ls.snapshot_id").
		Joins("JOIN pricing_plans pp ON pp.id = s.pricing_plan_id").
		Joins("LEFT JOIN member_profiles mp ON mp.member_id = p.writer_id").
		Joins("LEFT JOIN product_makers pm ON pm.product_id = p.product_id AND pm.member_id = p.writer_id").
		Joins("LEFT JOIN attachment_files af ON af.id = mp.avatar_id")
}

// FindPostDetails returns the full projection for a single post, or
// ErrNotFound when the post (or its current snapshot) does not exist.
func FindPostDetails(ctx context.Context, db *gorm.DB, postID int64) (*domain.PostView, error) {
	var rows []feedRow
	err := feedBase(ctx, db).
		Select(feedColumns).
		Where("p.id = ?", postID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	views, err := assembleViews(ctx, db, rows)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// FindPostPage returns the global feed page: every post, most recent first.
func FindPostPage(ctx context.Context, db *gorm.DB, pageSize int, cursor *int64) ([]domain.PostView, error) {
	q := feedBase(ctx, db).Select(feedColumns)
	if cursor != nil {
		q = q.Where("p.id < ?", *cursor)
	}
	return scanPage(ctx, db, q, pageSize)
}

// FindPostPageByWriter returns the feed page restricted to posts owned by
// memberID.
func FindPostPageByWriter(ctx context.Context, db *gorm.DB, memberID int64, pageSize int, cursor *int64) ([]domain.PostView, error) {
	q := feedBase(ctx, db).
		Select(feedColumns).
		Where("p.writer_id = ?", memberID)
	if cursor != nil {
		q = q.Where("p.id < ?", *cursor)
	}
	return scanPage(ctx, db, q, pageSize)
}

// FindRecommendedPostPage returns the posts memberID has recommended, joined
// through the recommendation ledger. Each row carries the member's own
// reason text; a post recommended for several reasons appears once per
// reason, mirroring the ledger.
func FindRecommendedPostPage(ctx context.Context, db *gorm.DB, memberID int64, pageSize int, cursor *int64) ([]domain.PostView, error) {
	q := feedBase(ctx, db).
		Select(feedColumns+`,
	r.value AS reason`).
		Joins("JOIN recommend_products rp ON rp.product_post_id = p.id").
		Joins("JOIN recommends r ON r.id = rp.recommend_id").
		Where("rp.member_id = ?", memberID)
	if cursor != nil {
		q = q.Where("p.id < ?", *cursor)
	}
	return scanPage(ctx, db, q, pageSize)
}

func scanPage(ctx context.Context, db *gorm.DB, q *gorm.DB, pageSize int) ([]domain.PostView, error) {
	var rows []feedRow
	err := q.
		Order("p.id DESC, p.created_at DESC").
		Limit(pageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return assembleViews(ctx, db, rows)
}

// assembleViews runs the second pass: batch-fetch tags, links, and images
// for the page's snapshot/product IDs and merge them into PostViews.
func assembleViews(ctx context.Context, db *gorm.DB, rows []feedRow) ([]domain.PostView, error) {
	if len(rows) == 0 {
		return []domain.PostView{}, nil
	}

	snapshotIDs := make([]int64, 0, len(rows))
	productIDs := make([]int64, 0, len(rows))
	for _, r := range rows {
		snapshotIDs = append(snapshotIDs, r.SnapshotID)
		productIDs = append(productIDs, r.ProductID)
	}

	tags, err := fetchTagsForSnapshots(ctx, db, snapshotIDs)
	if err != nil {
		return nil, err
	}
	images, err := fetchImagesForSnapshots(ctx, db, snapshotIDs)
	if err != nil {
		return nil, err
	}
	links, err := fetchLinksForProducts(ctx, db, productIDs)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PostView, 0, len(rows))
	for _, r := range rows {
		v := domain.PostView{
			ID:             r.ID,
			CreatedAt:      r.CreatedAt,
			IsMaker:        r.MakerID != nil,
			Title:          r.Title,
			Description:    r.Description,
			PricingPlan:    r.PricingPlan,
			RecommendCount: r.RecommendCount,
			Tags:           tags[r.SnapshotID],
			Images:         images[r.SnapshotID],
			URLs:           links[r.ProductID],
		}
		if r.Nickname != nil {
			v.Nickname = *r.Nickname
		}
		if r.UserHandle != nil {
			v.UserHandle = *r.UserHandle
		}
		if r.AvatarURL != nil {
			v.AvatarURL = *r.AvatarURL
		}
		if r.Reason != nil {
			v.Reason = *r.Reason
		}
		if v.Tags == nil {
			v.Tags = []string{}
		}
		if v.Images == nil {
			v.Images = []domain.Media{}
		}
		if v.URLs == nil {
			v.URLs = []string{}
		}
		out = append(out, v)
	}
	return out, nil
}

// fetchTagsForSnapshots returns the deduplicated tag-name set per snapshot.
func fetchTagsForSnapshots(ctx context.Context, db *gorm.DB, snapshotIDs []int64) (map[int64][]string, error) {
	type row struct {
		SnapshotID int64
		Name       string
	}
	var rows []row
	err := db.WithContext(ctx).
		Table("product_post_snapshot_tags AS st").
		Select("st.snapshot_id, t.name").
		Joins("JOIN tags t ON t.id = st.tag_id").
		Where("st.snapshot_id IN ?", snapshotIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]string, len(rows))
	seen := make(map[int64]map[string]struct{}, len(rows))
	for _, r := range rows {
		if seen[r.SnapshotID] == nil {
			seen[r.SnapshotID] = make(map[string]struct{})
		}
		if _, dup := seen[r.SnapshotID][r.Name]; dup {
			continue
		}
		seen[r.SnapshotID][r.Name] = struct{}{}
		out[r.SnapshotID] = append(out[r.SnapshotID], r.Name)
	}
	return out, nil
}

// fetchImagesForSnapshots returns each snapshot's images in sequence order.
func fetchImagesForSnapshots(ctx context.Context, db *gorm.DB, snapshotIDs []int64) (map[int64][]domain.Media, error) {
	type row struct {
		SnapshotID int64
		Sequence   int
		URL        string
	}
	var rows []row
	err := db.WithContext(ctx).
		Table("product_post_snapshot_images AS si").
		Select("si.snapshot_id, si.sequence, af.url").
		Joins("JOIN attachment_files af ON af.id = si.file_id").
		Where("si.snapshot_id IN ?", snapshotIDs).
		Order("si.snapshot_id, si.sequence ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]domain.Media, len(rows))
	for _, r := range rows {
		out[r.SnapshotID] = append(out[r.SnapshotID], domain.Media{
			URL:      r.URL,
			Sequence: r.Sequence,
		})
	}
	return out, nil
}

// fetchLinksForProducts returns the deduplicated external-link set per product.
func fetchLinksForProducts(ctx context.Context, db *gorm.DB, productIDs []int64) (map[int64][]string, error) {
	type row struct {
		ProductID int64
		URL       string
	}
	var rows []row
	err := db.WithContext(ctx).
		Table("product_links").
		Select("product_id, url").
		Where("product_id IN ?", productIDs).
		Order("id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]string, len(rows))
	seen := make(map[int64]map[string]struct{}, len(rows))
	for _, r := range rows {
		if seen[r.ProductID] == nil {
			seen[r.ProductID] = make(map[string]struct{})
		}
		if _, dup := seen[r.ProductID][r.URL]; dup {
			continue
		}
		seen[r.ProductID][r.URL] = struct{}{}
		out[r.ProductID] = append(out[r.ProductID], r.URL)
	}
	return out, nil
}
