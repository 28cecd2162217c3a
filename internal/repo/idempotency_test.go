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

func newIdemDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("idem_test_%d.db", time.Now().UnixNano()))
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
	if err := db.AutoMigrate(&domain.PostIdempotencyKey{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestClaimPostKey_FirstClaimWins(t *testing.T) {
	db := newIdemDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	claimed, err := ClaimPostKey(ctx, db, "4f1c8f9e-0000-0000-0000-000000000001", now)
	if err != nil {
		t.Fatalf("ClaimPostKey: %v", err)
	}
	if !claimed {
		t.Fatalf("first claim should succeed")
	}

	// Replay of the same key must be rejected without error.
	claimed, err = ClaimPostKey(ctx, db, "4f1c8f9e-0000-0000-0000-000000000001", now)
	if err != nil {
		t.Fatalf("ClaimPostKey replay: %v", err)
	}
	if claimed {
		t.Fatalf("replayed key must not claim again")
	}
}

func TestClaimPostKey_DistinctKeysIndependent(t *testing.T) {
	db := newIdemDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		key := fmt.Sprintf("4f1c8f9e-0000-0000-0000-00000000001%d", i)
		claimed, err := ClaimPostKey(ctx, db, key, now)
		if err != nil {
			t.Fatalf("ClaimPostKey %q: %v", key, err)
		}
		if !claimed {
			t.Fatalf("fresh key %q should claim", key)
		}
	}

	var count int64
	if err := db.Model(&domain.PostIdempotencyKey{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 ledger rows, got %d", count)
	}
}

func TestClaimPostKey_KeysPersist(t *testing.T) {
	db := newIdemDB(t)
	ctx := context.Background()

	// There is no expiry: a key claimed long ago still blocks a replay.
	old := time.Now().UTC().Add(-365 * 24 * time.Hour)
	if claimed, err := ClaimPostKey(ctx, db, "4f1c8f9e-0000-0000-0000-0000000000aa", old); err != nil || !claimed {
		t.Fatalf("claim old key: claimed=%v err=%v", claimed, err)
	}
	claimed, err := ClaimPostKey(ctx, db, "4f1c8f9e-0000-0000-0000-0000000000aa", time.Now().UTC())
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if claimed {
		t.Fatalf("key claimed a year ago must still block replays")
	}
}

func TestClaimPostKey_Error_NoTable(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "idem_notable.db")
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

	if _, err := ClaimPostKey(context.Background(), db, "k", time.Now()); err == nil {
		t.Fatalf("expected error without migrations")
	}
}
