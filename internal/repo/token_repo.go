// Package repo implements the data persistence layer for the local session
// database. This file stores the single bearer token row.
//
// The token is read on every outbound API call and never cached, so a login
// or logout performed by another process sharing the database file is seen
// immediately. DeleteTokenIf gives compare-and-clear semantics across
// processes: only the token that failed is removed.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/emotionwise-web/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// LoadToken returns the stored token or ErrNotFound when logged out.
func LoadToken(ctx context.Context, db *gorm.DB) (string, error) {
	var row domain.SessionToken
	err := db.WithContext(ctx).First(&row, "id = ?", domain.CurrentTokenID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return row.Token, nil
}

// SaveToken replaces the stored token.
func SaveToken(ctx context.Context, db *gorm.DB, token string) error {
	now := time.Now().UTC()
	row := &domain.SessionToken{
		ID:        domain.CurrentTokenID,
		Token:     token,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "updated_at"}),
	}).Create(row).Error
}

// DeleteToken removes the stored token. Deleting when none exists is not
// an error.
func DeleteToken(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).
		Where("id = ?", domain.CurrentTokenID).
		Delete(&domain.SessionToken{}).Error
}

// DeleteTokenIf removes the stored token only if it still equals token and
// reports whether a row was deleted.
func DeleteTokenIf(ctx context.Context, db *gorm.DB, token string) (bool, error) {
	res := db.WithContext(ctx).
		Where("id = ? AND token = ?", domain.CurrentTokenID, token).
		Delete(&domain.SessionToken{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
