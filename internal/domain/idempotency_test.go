// internal/domain/idempotency_test.go
package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestIdempotency_Migration_Indexes_AndInsert(t *testing.T) {
	db := newTestDB(t)

	if err := db.AutoMigrate(&Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasTable(&Idempotency{}) {
		t.Fatalf("expected table %q to exist", Idempotency{}.TableName())
	}
	if !m.HasIndex(&Idempotency{}, "ux_scope_key") {
		t.Fatalf("expected composite index ux_scope_key to exist")
	}

	now := time.Now().UTC()

	// NOT NULL columns reject NULL.
	for _, col := range []string{"scope", "key", "resource_id", "status", "expires_at"} {
		vals := map[string]any{
			"id": "x-" + col, "scope": "s", "key": "k", "resource_id": "r",
			"status": 200, "created_at": now, "expires_at": now.Add(time.Hour),
		}
		vals[col] = nil
		err := db.Exec(`INSERT INTO idempotency ("id","scope","key","resource_id","status","created_at","expires_at")
		                VALUES (?,?,?,?,?,?,?)`,
			vals["id"], vals["scope"], vals["key"], vals["resource_id"], vals["status"], vals["created_at"], vals["expires_at"]).Error
		if err == nil {
			t.Fatalf("expected NOT NULL violation when inserting NULL into %q", col)
		}
	}

	rec := &Idempotency{
		ID:         "id-1",
		Scope:      "feedback.submit",
		Key:        "k1",
		ResourceID: "42",
		Status:     200,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert valid: %v", err)
	}

	var got Idempotency
	if err := db.First(&got, "id = ?", "id-1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.Scope != "feedback.submit" || got.Key != "k1" || got.ResourceID != "42" || got.Status != 200 {
		t.Fatalf("unexpected row: %+v", got)
	}

	// Same key in a different scope is allowed; same scope is not.
	if err := db.Create(&Idempotency{ID: "id-2", Scope: "other", Key: "k1", ResourceID: "1", Status: 200, ExpiresAt: now.Add(time.Hour)}).Error; err != nil {
		t.Fatalf("insert other scope: %v", err)
	}
	if err := db.Create(&Idempotency{ID: "id-3", Scope: "feedback.submit", Key: "k1", ResourceID: "2", Status: 200, ExpiresAt: now.Add(time.Hour)}).Error; err == nil {
		t.Fatalf("expected UNIQUE constraint violation on (scope, key)")
	}
}
