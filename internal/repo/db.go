// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver, local/dev/tests) and PostgreSQL (production),
// plus schema migrations and the pricing-plan seed.
package repo

import (
	"context"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/als904204/detalk-api/internal/domain"
)

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	tunePool(db)
	return db, nil
}

// OpenPostgres opens a PostgreSQL database from a DSN. The original schema
// runs on Postgres; read-committed isolation plus the atomic counter and
// pointer updates in this package are sufficient, no serializable isolation
// is assumed.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	tunePool(db)
	return db, nil
}

func tunePool(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
}

// EnableTracing installs the GORM OpenTelemetry plugin so every query shows
// up as a span under the enclosing request trace.
func EnableTracing(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin(tracing.WithoutMetrics()))
}

// AutoMigrate creates or updates the full schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.AttachmentFile{},
		&domain.MemberProfile{},
		&domain.PricingPlan{},
		&domain.Product{},
		&domain.ProductLink{},
		&domain.ProductMaker{},
		&domain.ProductPost{},
		&domain.ProductPostSnapshot{},
		&domain.ProductPostLastSnapshot{},
		&domain.ProductPostSnapshotImage{},
		&domain.ProductPostSnapshotTag{},
		&domain.Tag{},
		&domain.Recommend{},
		&domain.RecommendProduct{},
		&domain.PostIdempotencyKey{},
	)
}

// DefaultPricingPlans is the catalog seeded on startup.
var DefaultPricingPlans = []string{
	"Free",
	"Paid",
	"Paid with a free trial or plan",
}

// SeedPricingPlans inserts the default pricing-plan catalog, skipping names
// that already exist. Safe to call on every boot.
func SeedPricingPlans(ctx context.Context, db *gorm.DB) error {
	for _, name := range DefaultPricingPlans {
		var plan domain.PricingPlan
		err := db.WithContext(ctx).Where("name = ?", name).First(&plan).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.WithContext(ctx).Create(&domain.PricingPlan{Name: name}).Error; err != nil && !IsDuplicate(err) {
			return err
		}
	}
	return nil
}
