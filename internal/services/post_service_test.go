package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/als904204/detalk-api/internal/domain"
	"github.com/als904204/detalk-api/internal/repo"
)

func newPostSvcDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("post_svc_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if err := repo.SeedPricingPlans(context.Background(), db); err != nil {
		t.Fatalf("seed plans: %v", err)
	}
	return db
}

func validCreateInput() CreatePostInput {
	return CreatePostInput{
		SubmissionKey: uuid.NewString(),
		ProductName:   "Acme",
		IsMaker:       true,
		PostContent: PostContent{
			Title:       "Acme Analytics",
			Description: "Self-serve analytics",
			PricingPlan: "Free",
			Tags:        []string{"analytics", "saas"},
			URLs:        []string{"https://acme.example"},
		},
	}
}

func TestPostService_Create_Success(t *testing.T) {
	db := newPostSvcDB(t)
	svc := NewPostService(db)
	ctx := context.Background()

	id, err := svc.Create(ctx, 7, validCreateInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected assigned post ID")
	}

	view, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.Title != "Acme Analytics" || view.PricingPlan != "Free" {
		t.Fatalf("unexpected projection: %+v", view)
	}
	if !view.IsMaker {
		t.Fatalf("IsMaker flag lost")
	}
	if len(view.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %v", view.Tags)
	}
	if len(view.URLs) != 1 || view.URLs[0] != "https://acme.example" {
		t.Fatalf("links mismatch: %v", view.URLs)
	}
	if view.RecommendCount != 0 {
		t.Fatalf("fresh post must have zero recommend count")
	}
}

func TestPostService_Create_DuplicateSubmissionKey(t *testing.T) {
	db := newPostSvcDB(t)
	svc := NewPostService(db)
	ctx := context.Background()

	in := validCreateInput()
	if _, err := svc.Create(ctx, 7, in); err != nil {
		t.Fatalf("first create: %v", err)
	}

	// Retry with the same key: rejected, and no second post appears.
	if _, err := svc.Create(ctx, 7, in); err != ErrDuplicateSubmission {
		t.Fatalf("expected ErrDuplicateSubmission, got %v", err)
	}

	var count int64
	if err := db.Model(&domain.ProductPost{}).Count(&count).Error; err != nil {
		t.Fatalf("count posts: %v", err)
	}
	if count != 1 {
		t.Fatalf("replay created %d posts, want 1", count)
	}
}

func TestPostService_Create_InvalidSubmissionKey(t *testing.T) {
	db := newPostSvcDB(t)
	svc := NewPostService(db)

	in := validCreateInput()
	in.SubmissionKey = "not-a-uuid"
	if _, err := svc.Create(context.Background(), 7, in); err != ErrInvalidSubmissionKey {
		t.Fatalf("expected ErrInvalidSubmissionKey, got %v", err)
	}
}

func TestPostService_Create_ValidationErrors(t *testing.T) {
	db := newPostSvcDB(t)
	svc := NewPostService(db)
	ctx := context.Background()

	in := validCreateInput()
	in.Title = "   "
	if _, err := svc.Create(ctx, 7, in); err != ErrEmptyTitle {
		t.Fatalf("blank title: expected ErrEmptyTitle, got %v", err)
	}

	in = validCreateInput()
	in.ProductName = ""
	if _, err := svc.Create(ctx, 7, in); err != ErrEmptyProductName {
		t.Fatalf("empty product: expected ErrEmptyProductName, got %v", err)
	}
}

func TestPostService_Create_UnknownPlanRollsBackKey(t *testing.T) {
	db := newPostSvcDB(t)
	svc := NewPostService(db)
	ctx := context.Background()

	in := validCreateInput()
	in.PricingPlan = "Enterprise"
	if _, err := svc.Create(ctx, 7, in); err != ErrPricingPlanNotFound {
		t.Fatalf("expected ErrPricingPlanNotFound, got %v", err)
	}

	// The failed attempt rolled back its key claim, so a corrected retry
	// with the same key succeeds.
	in.PricingPlan = "Free"
	if _, err := svc.Create(ctx, 7, in); err != nil {
		t.Fatalf("retry after fix: %v", err)
	}
}

func TestPostService_Update_WritesNewVersion(t *testing.T) {
	db := newPostSvcDB(t)
	svc := NewPostService(db)
	ctx := context.Background()

	id, err := svc.Create(ctx, 7, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = svc.Update(ctx, id, 7, PostContent{
		Title:       "Acme Analytics v2",
		Description: "now with funnels",
		PricingPlan: "Paid",
		Tags:        []string{"analytics"},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	view, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.Title != "Acme Analytics v2" || view.PricingPlan != "Paid" {
		t.Fatalf("reader must see the new version: %+v", view)
	}

	// History retains both versions.
	history, err := repo.ListSnapshots(ctx, db, id)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(history))
	}
}

func TestPostService_Update_Authorization(t *testing.T) {
	db := newPostSvcDB(t)
	svc := NewPostService(db)
	ctx := context.Background()

	id, err := svc.Create(ctx, 7, validCreateInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	content := PostContent{Title: "hijack", PricingPlan: "Free"}
	if err := svc.Update(ctx, id, 8, content); err != ErrForbiddenEdit {
		t.Fatalf("other member: expected ErrForbiddenEdit, got %v", err)
	}
	if err := svc.Update(ctx, id+999, 7, content); err != ErrPostNotFound {
		t.Fatalf("missing post: expected ErrPostNotFound, got %v", err)
	}
}

func TestPostService_Feed_PageSizeBounds(t *testing.T) {
	db := newPostSvcDB(t)
	svc := NewPostService(db)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		in := validCreateInput()
		in.Title = fmt.Sprintf("post %d", i)
		if _, err := svc.Create(ctx, 7, in); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	// size <= 0 falls back to the default page size.
	page, err := svc.Feed(ctx, 0, nil)
	if err != nil {
		t.Fatalf("Feed default size: %v", err)
	}
	if len(page.Items) != svc.DefaultPageSize {
		t.Fatalf("expected %d items, got %d", svc.DefaultPageSize, len(page.Items))
	}
	if page.NextCursor == nil {
		t.Fatalf("full page must carry a next cursor")
	}

	// Over the maximum is a client error.
	if _, err := svc.Feed(ctx, svc.MaxPageSize+1, nil); err != ErrPageSizeExceeded {
		t.Fatalf("expected ErrPageSizeExceeded, got %v", err)
	}
}

func TestPostService_Feed_CursorExhaustion(t *testing.T) {
	db := newPostSvcDB(t)
	svc := NewPostService(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		in := validCreateInput()
		if _, err := svc.Create(ctx, 7, in); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	first, err := svc.Feed(ctx, 2, nil)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Items) != 2 || first.NextCursor == nil {
		t.Fatalf("unexpected first page: %d items cursor=%v", len(first.Items), first.NextCursor)
	}

	second, err := svc.Feed(ctx, 2, first.NextCursor)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Items) != 1 {
		t.Fatalf("expected the 1 remaining post, got %d", len(second.Items))
	}
	// Ordering across pages: strictly decreasing post IDs.
	if second.Items[0].ID >= first.Items[1].ID {
		t.Fatalf("pages overlap: %d then %d", first.Items[1].ID, second.Items[0].ID)
	}
}

func TestPostService_FeedByWriter(t *testing.T) {
	db := newPostSvcDB(t)
	svc := NewPostService(db)
	ctx := context.Background()

	if _, err := svc.Create(ctx, 7, validCreateInput()); err != nil {
		t.Fatalf("create mine: %v", err)
	}
	other := validCreateInput()
	if _, err := svc.Create(ctx, 8, other); err != nil {
		t.Fatalf("create theirs: %v", err)
	}

	page, err := svc.FeedByWriter(ctx, 7, 10, nil)
	if err != nil {
		t.Fatalf("FeedByWriter: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected only member 7's post, got %d items", len(page.Items))
	}
	if page.NextCursor != nil {
		t.Fatalf("short page must not carry a cursor")
	}
}
