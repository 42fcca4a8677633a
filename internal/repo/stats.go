// Package repo implements the data persistence layer for the local session
// database. This file provides aggregate queries over stored vote outcomes,
// used for the vote summary endpoint and its ETag.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/emotionwise-web/internal/domain"
)

// VoteStats counts stored outcomes by state and vote value and reports the
// most recent UpdatedAt. With no rows the result is zero and LastVoteAt nil.
func VoteStats(ctx context.Context, db *gorm.DB) (domain.VoteStats, error) {
	var out domain.VoteStats
	var rows []struct {
		State string
		Vote  bool
		N     int64
	}
	err := db.WithContext(ctx).Model(&domain.VoteRecord{}).
		Select("state, vote, COUNT(*) AS n").
		Group("state, vote").
		Scan(&rows).Error
	if err != nil {
		return out, err
	}
	for _, r := range rows {
		out.Total += r.N
		switch r.State {
		case "accepted":
			out.Accepted += r.N
			if r.Vote {
				out.Accurate += r.N
			} else {
				out.Inaccurate += r.N
			}
		case "failed":
			out.Failed += r.N
		}
	}
	if out.Total == 0 {
		return out, nil
	}

	// Latest updated_at (avoid MAX() -> TEXT in SQLite)
	var last struct {
		UpdatedAt time.Time
	}
	if err := db.WithContext(ctx).Model(&domain.VoteRecord{}).
		Select("updated_at").Order("updated_at DESC").Limit(1).
		Scan(&last).Error; err != nil {
		return domain.VoteStats{}, err
	}
	out.LastVoteAt = &last.UpdatedAt
	return out, nil
}
