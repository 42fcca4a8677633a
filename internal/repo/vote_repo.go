// Package repo implements the data persistence layer for the local session
// database. This file persists settled vote outcomes and the feedback
// record each log entry is bound to.
//
// Functions:
//
//   - SaveVote(ctx, db, rec) -> error
//     Upserts the outcome for (entry_key, label).
//
//   - ListVotes(ctx, db) -> []domain.VoteRecord, error
//     Returns every stored outcome ordered by entry then label.
//
//   - SaveBinding(ctx, db, entryKey, feedbackID) -> error
//     Remembers the feedback id of an entry (first binding wins).
//
//   - ListBindings(ctx, db) -> []domain.EntryBinding, error
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/emotionwise-web/internal/domain"
)

// SaveVote inserts or replaces the outcome for (rec.EntryKey, rec.Label).
func SaveVote(ctx context.Context, db *gorm.DB, rec *domain.VoteRecord) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}, {Name: "label"}},
		DoUpdates: clause.AssignmentColumns([]string{"feedback_id", "state", "vote", "updated_at"}),
	}).Create(rec).Error
}

// ListVotes returns all stored vote outcomes.
func ListVotes(ctx context.Context, db *gorm.DB) ([]domain.VoteRecord, error) {
	var out []domain.VoteRecord
	err := db.WithContext(ctx).
		Order("entry_key asc").
		Order("label asc").
		Find(&out).Error
	return out, err
}

// SaveBinding records feedbackID for entryKey. An existing binding is kept.
func SaveBinding(ctx context.Context, db *gorm.DB, entryKey string, feedbackID int64) error {
	b := &domain.EntryBinding{
		EntryKey:   entryKey,
		FeedbackID: feedbackID,
		CreatedAt:  time.Now().UTC(),
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(b).Error
}

// ListBindings returns all entry bindings.
func ListBindings(ctx context.Context, db *gorm.DB) ([]domain.EntryBinding, error) {
	var out []domain.EntryBinding
	err := db.WithContext(ctx).Order("created_at asc").Find(&out).Error
	return out, err
}
