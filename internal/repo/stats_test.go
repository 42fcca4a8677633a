package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/emotionwise-web/internal/domain"
)

func TestVoteStats_NoTable(t *testing.T) {
	db := newIdemDB(t /* no migrations */)
	if _, err := VoteStats(context.Background(), db); err == nil {
		t.Fatalf("expected error due to missing vote_records table")
	}
}

func TestVoteStats_ZeroRows(t *testing.T) {
	db := newIdemDB(t, &domain.VoteRecord{})
	st, err := VoteStats(context.Background(), db)
	if err != nil {
		t.Fatalf("VoteStats error: %v", err)
	}
	if st != (domain.VoteStats{}) {
		t.Fatalf("expected zero stats, got %+v", st)
	}
}

func TestVoteStats_CountsAndLatest(t *testing.T) {
	db := newIdemDB(t, &domain.VoteRecord{})

	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) // latest
	t3 := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	seed := []domain.VoteRecord{
		{EntryKey: "s1@1", Label: "love", FeedbackID: 1, State: "accepted", Vote: true, CreatedAt: t1, UpdatedAt: t1},
		{EntryKey: "s1@1", Label: "joy", FeedbackID: 1, State: "accepted", Vote: true, CreatedAt: t1, UpdatedAt: t2},
		{EntryKey: "s1@2", Label: "anger", FeedbackID: 2, State: "accepted", Vote: false, CreatedAt: t3, UpdatedAt: t3},
		{EntryKey: "s1@2", Label: "fear", FeedbackID: 2, State: "failed", Vote: true, CreatedAt: t3, UpdatedAt: t3},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	st, err := VoteStats(context.Background(), db)
	if err != nil {
		t.Fatalf("VoteStats error: %v", err)
	}
	if st.Total != 4 || st.Accepted != 3 || st.Failed != 1 || st.Accurate != 2 || st.Inaccurate != 1 {
		t.Fatalf("unexpected counts: %+v", st)
	}
	if st.LastVoteAt == nil || !st.LastVoteAt.Equal(t2) {
		t.Fatalf("LastVoteAt = %v; want %v", st.LastVoteAt, t2)
	}
}
