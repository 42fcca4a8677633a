package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	if (SessionToken{}).TableName() != "session_tokens" {
		t.Fatalf("SessionToken.TableName() = %q", (SessionToken{}).TableName())
	}
	if (VoteRecord{}).TableName() != "vote_records" {
		t.Fatalf("VoteRecord.TableName() = %q", (VoteRecord{}).TableName())
	}
	if (EntryBinding{}).TableName() != "entry_bindings" {
		t.Fatalf("EntryBinding.TableName() = %q", (EntryBinding{}).TableName())
	}
}

func TestMigrations_KeysAndChecks(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&SessionToken{}, &VoteRecord{}, &EntryBinding{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	for _, tbl := range []any{&SessionToken{}, &VoteRecord{}, &EntryBinding{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}

	now := time.Now().UTC()

	// Single-row token: a second insert with the same id is rejected.
	if err := db.Create(&SessionToken{ID: CurrentTokenID, Token: "a", CreatedAt: now, UpdatedAt: now}).Error; err != nil {
		t.Fatalf("insert token: %v", err)
	}
	if err := db.Create(&SessionToken{ID: CurrentTokenID, Token: "b", CreatedAt: now, UpdatedAt: now}).Error; err == nil {
		t.Fatalf("expected primary key violation for second token row")
	}

	// Composite key on (entry_key, label).
	v := &VoteRecord{EntryKey: "s1@1", Label: "joy", FeedbackID: 7, State: "accepted", Vote: true}
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("insert vote: %v", err)
	}
	if err := db.Create(&VoteRecord{EntryKey: "s1@1", Label: "love", FeedbackID: 7, State: "failed"}).Error; err != nil {
		t.Fatalf("insert sibling vote: %v", err)
	}
	if err := db.Create(&VoteRecord{EntryKey: "s1@1", Label: "joy", FeedbackID: 7, State: "failed"}).Error; err == nil {
		t.Fatalf("expected duplicate (entry_key,label) to be rejected")
	}

	// State check constraint: pending is never persisted.
	if err := db.Create(&VoteRecord{EntryKey: "s1@2", Label: "joy", FeedbackID: 7, State: "pending"}).Error; err == nil {
		t.Fatalf("expected check constraint to reject state=pending")
	}
}
