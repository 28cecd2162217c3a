package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/als904204/detalk-api/internal/domain"
)

func newProductRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("product_repo_test_%d.db", time.Now().UnixNano()))
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
	err = db.AutoMigrate(
		&domain.Product{},
		&domain.ProductLink{},
		&domain.ProductMaker{},
		&domain.PricingPlan{},
	)
	if err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestResolveProduct_CreateThenReuse(t *testing.T) {
	db := newProductRepoDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := ResolveProduct(ctx, db, "Acme", now)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := ResolveProduct(ctx, db, "Acme", now)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("same name resolved to different products: %d vs %d", first.ID, second.ID)
	}

	var count int64
	if err := db.Model(&domain.Product{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 product row, got %d", count)
	}
}

func TestAddProductLinks_SkipsExisting(t *testing.T) {
	db := newProductRepoDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	product, err := ResolveProduct(ctx, db, "Acme", now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// Duplicate within one call and across calls.
	if err := AddProductLinks(ctx, db, product.ID, []string{"https://a.example", "https://a.example", "https://b.example"}); err != nil {
		t.Fatalf("first AddProductLinks: %v", err)
	}
	if err := AddProductLinks(ctx, db, product.ID, []string{"https://b.example", "https://c.example"}); err != nil {
		t.Fatalf("second AddProductLinks: %v", err)
	}

	var count int64
	if err := db.Model(&domain.ProductLink{}).Where("product_id = ?", product.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 distinct links, got %d", count)
	}
}

func TestEnsureProductMaker_Idempotent(t *testing.T) {
	db := newProductRepoDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := EnsureProductMaker(ctx, db, 1, 7, now); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := EnsureProductMaker(ctx, db, 1, 7, now); err != nil {
		t.Fatalf("repeat register: %v", err)
	}

	var count int64
	if err := db.Model(&domain.ProductMaker{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 maker row, got %d", count)
	}
}

func TestFindPricingPlanByName(t *testing.T) {
	db := newProductRepoDB(t)
	ctx := context.Background()

	if err := SeedPricingPlans(ctx, db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// Seeding twice must not duplicate the catalog.
	if err := SeedPricingPlans(ctx, db); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	var count int64
	if err := db.Model(&domain.PricingPlan{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != int64(len(DefaultPricingPlans)) {
		t.Fatalf("expected %d plans, got %d", len(DefaultPricingPlans), count)
	}

	plan, err := FindPricingPlanByName(ctx, db, "Free")
	if err != nil {
		t.Fatalf("FindPricingPlanByName: %v", err)
	}
	if plan.Name != "Free" {
		t.Fatalf("unexpected plan: %+v", plan)
	}

	if _, err := FindPricingPlanByName(ctx, db, "Enterprise"); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound for unseeded plan, got %v", err)
	}
}
