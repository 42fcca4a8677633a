// Package services – DetectionService
//
// DetectionService runs the detector on one text and turns the result into
// a render-ready view. It then creates a feedback record for the text on a
// best-effort basis: the returned id is what per-emotion votes attach to.
// When that secondary call fails the detection still succeeds and voting is
// simply disabled for the entry.
package services

import (
	"context"

	"github.com/jonboulle/clockwork"
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

// DetectionAPI is the upstream surface DetectionService needs.
type DetectionAPI interface {
	DetectEmotion(ctx context.Context, in domain.DetectionRequest) (*domain.DetectionResult, error)
	SubmitFeedback(ctx context.Context, in domain.FeedbackSubmission) (*domain.FeedbackReceipt, error)
}

type DetectionService struct {
	API     DetectionAPI
	DB      *gorm.DB
	Tracker *viewmodel.VoteTracker
	Entries *viewmodel.EntryIndex
	Clock   clockwork.Clock
	Log     zerolog.Logger
}

// Detect validates text, runs the detector and returns the detection view.
// sessionID continues an existing session; empty starts a new one.
func (s *DetectionService) Detect(ctx context.Context, text, sessionID string) (*viewmodel.DetectionView, error) {
	ctx, span := otel.Tracer("services/DetectionService").Start(ctx, "Detect",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	msg, err := validation.DetectionText(text)
	if err != nil {
		return nil, err
	}

	res, err := s.API.DetectEmotion(ctx, domain.DetectionRequest{Message: msg, SessionID: sessionID})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("session.id", res.SessionID),
		attribute.Int("emotions.count", len(res.DetectedEmotions)),
	)

	clock := s.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	entry := viewmodel.EntryFromDetection(*res, msg, clock.Now())
	key := viewmodel.EntryKeyOf(entry)
	if s.Entries != nil {
		s.Entries.Put(entry)
	}

	s.bindFeedback(ctx, key, msg, res.DetectedEmotions)

	view := viewmodel.NewDetectionView(entry, res.Recommendation, s.Tracker)
	return &view, nil
}

// bindFeedback creates the feedback record for an entry and binds its id.
// Failures are logged and leave voting disabled.
func (s *DetectionService) bindFeedback(ctx context.Context, key, msg string, predicted []domain.EmotionLabel) {
	if s.Tracker == nil {
		return
	}
	if predicted == nil {
		predicted = []domain.EmotionLabel{}
	}
	receipt, err := s.API.SubmitFeedback(ctx, domain.FeedbackSubmission{
		Text:              msg,
		PredictedEmotions: predicted,
		SuggestedEmotions: []domain.EmotionLabel{},
		LanguageCode:      validation.GuessLanguage(msg).String(),
	})
	if err != nil {
		s.Log.Warn().Err(err).Str("entry", key).Msg("feedback record unavailable, voting disabled")
		return
	}
	s.Tracker.Bind(key, receipt.ID)
	if s.DB != nil {
		if err := repo.SaveBinding(ctx, s.DB, key, receipt.ID); err != nil {
			s.Log.Error().Err(err).Str("entry", key).Msg("persist entry binding")
		}
	}
}
