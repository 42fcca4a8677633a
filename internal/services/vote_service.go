// Package services – VoteService
//
// VoteService casts a thumbs-up/down on one detected emotion of one entry.
// The tracker guards each (entry, label) pair: a pair that is pending or
// already accepted cannot be voted again, while other pairs proceed
// independently. Settled outcomes are persisted so they survive restarts.
package services

import (
	"context"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/emotionwise-web/internal/domain"
	"github.com/tbourn/emotionwise-web/internal/repo"
	"github.com/tbourn/emotionwise-web/internal/validation"
	"github.com/tbourn/emotionwise-web/internal/viewmodel"
)

// VoteAPI is the upstream surface VoteService needs.
type VoteAPI interface {
	SubmitEmotionVote(ctx context.Context, in domain.EmotionVote) error
}

type VoteService struct {
	API     VoteAPI
	DB      *gorm.DB
	Tracker *viewmodel.VoteTracker
	Entries *viewmodel.EntryIndex
	Log     zerolog.Logger
}

// CastInput is one vote request.
type CastInput struct {
	EntryKey string `json:"entry_key"`
	Label    string `json:"label"`
	Vote     bool   `json:"vote"`
	Comment  string `json:"comment"`
}

// Cast sends the vote and returns the entry's vote snapshot. When the
// upstream call fails the pair ends in the failed state; the snapshot is
// returned together with the error so the caller can render it.
func (s *VoteService) Cast(ctx context.Context, in CastInput) ([]viewmodel.Vote, error) {
	ctx, span := otel.Tracer("services/VoteService").Start(ctx, "Cast",
		trace.WithAttributes(
			attribute.String("entry.key", in.EntryKey),
			attribute.String("label", in.Label),
		))
	defer span.End()

	comment := strings.TrimSpace(in.Comment)
	if err := validation.Comment("comment", comment); err != nil {
		return nil, err
	}
	label, ok := domain.ParseLabel(in.Label)
	if !ok {
		return nil, ErrInvalidLabel
	}
	entry, ok := s.Entries.Get(in.EntryKey)
	if !ok {
		return nil, ErrEntryNotFound
	}
	if !slices.Contains(entry.Emotions, label) {
		return nil, ErrInvalidLabel
	}

	feedbackID, err := s.Tracker.BeginVote(in.EntryKey, label)
	if err != nil {
		return nil, err
	}

	// Unknown confidence goes out as 0.
	pct, _ := entry.Confidence(label)
	sendErr := s.API.SubmitEmotionVote(ctx, domain.EmotionVote{
		FeedbackID: feedbackID,
		Label:      label,
		Score:      viewmodel.VoteScore(pct),
		Vote:       in.Vote,
		Comment:    comment,
	})

	outcome := viewmodel.VoteAccepted
	if sendErr != nil {
		outcome = viewmodel.VoteFailed
		s.Log.Warn().Err(sendErr).Str("entry", in.EntryKey).Str("label", string(label)).Msg("emotion vote failed")
	}
	if err := s.Tracker.ResolveVote(in.EntryKey, label, outcome); err != nil {
		return nil, err
	}
	s.persist(ctx, in.EntryKey, label, feedbackID, outcome, in.Vote)

	return s.Tracker.Snapshot(in.EntryKey, entry.Emotions), sendErr
}

// Snapshot returns the vote states of an entry.
func (s *VoteService) Snapshot(ctx context.Context, entryKey string) ([]viewmodel.Vote, error) {
	_, span := otel.Tracer("services/VoteService").Start(ctx, "Snapshot",
		trace.WithAttributes(attribute.String("entry.key", entryKey)))
	defer span.End()

	if entry, ok := s.Entries.Get(entryKey); ok {
		return s.Tracker.Snapshot(entryKey, entry.Emotions), nil
	}
	// Entries from earlier runs are known only through persisted votes.
	if votes := s.Tracker.Votes(entryKey); len(votes) > 0 {
		return votes, nil
	}
	return nil, ErrEntryNotFound
}

// Stats summarizes the persisted vote outcomes. Without a database the
// summary is empty.
func (s *VoteService) Stats(ctx context.Context) (domain.VoteStats, error) {
	ctx, span := otel.Tracer("services/VoteService").Start(ctx, "Stats")
	defer span.End()

	if s.DB == nil {
		return domain.VoteStats{}, nil
	}
	return repo.VoteStats(ctx, s.DB)
}

// Restore reloads persisted bindings and vote outcomes into the tracker.
func (s *VoteService) Restore(ctx context.Context) error {
	bindings, err := repo.ListBindings(ctx, s.DB)
	if err != nil {
		return err
	}
	records, err := repo.ListVotes(ctx, s.DB)
	if err != nil {
		return err
	}
	s.Tracker.Restore(bindings, records)
	s.Log.Info().Int("bindings", len(bindings)).Int("votes", len(records)).Msg("vote state restored")
	return nil
}

func (s *VoteService) persist(ctx context.Context, key string, label domain.EmotionLabel, feedbackID int64, outcome viewmodel.VoteState, vote bool) {
	if s.DB == nil {
		return
	}
	// The caller may have gone away; the settled outcome is still recorded.
	err := repo.SaveVote(context.WithoutCancel(ctx), s.DB, &domain.VoteRecord{
		EntryKey:   key,
		Label:      string(label),
		FeedbackID: feedbackID,
		State:      string(outcome),
		Vote:       vote,
	})
	if err != nil {
		s.Log.Error().Err(err).Str("entry", key).Str("label", string(label)).Msg("persist vote outcome")
	}
}
