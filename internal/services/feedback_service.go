// Package services – FeedbackService
//
// FeedbackService submits free-form feedback (text, predicted and suggested
// emotions, comment) and lists stored records. Submissions carrying an
// Idempotency-Key are recorded locally so a retried request replays the
// first receipt instead of creating a second record upstream.
package services

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/emotionwise-web/internal/domain"
	"github.com/tbourn/emotionwise-web/internal/repo"
	"github.com/tbourn/emotionwise-web/internal/validation"
)

// FeedbackScope is the idempotency scope of feedback submissions.
const FeedbackScope = "feedback.submit"

// FeedbackAPI is the upstream surface FeedbackService needs.
type FeedbackAPI interface {
	SubmitFeedback(ctx context.Context, in domain.FeedbackSubmission) (*domain.FeedbackReceipt, error)
	ListFeedback(ctx context.Context) ([]domain.FeedbackRecord, error)
}

type FeedbackService struct {
	API            FeedbackAPI
	DB             *gorm.DB
	IdempotencyTTL time.Duration
	Log            zerolog.Logger
}

// SubmitResult is the outcome of Submit.
type SubmitResult struct {
	Receipt  domain.FeedbackReceipt `json:"receipt"`
	Replayed bool                   `json:"replayed"`
}

// Submit validates and sends feedback. The language is guessed from the
// text when not given.
//
// With an idempotency key the key is reserved before the upstream call, so
// concurrent retries cannot both reach the API: a completed key replays its
// receipt, a key still in flight yields ErrSubmissionInProgress. A failed
// submission releases its reservation.
func (s *FeedbackService) Submit(ctx context.Context, idemKey string, in validation.FeedbackInput) (*SubmitResult, error) {
	ctx, span := otel.Tracer("services/FeedbackService").Start(ctx, "Submit",
		trace.WithAttributes(attribute.Bool("idempotent", idemKey != "")))
	defer span.End()

	idem := idemKey != "" && s.DB != nil
	if idem {
		if res, err := s.replay(ctx, idemKey); res != nil || err != nil {
			return res, err
		}
	}

	sub, err := validation.Feedback(in)
	if err != nil {
		return nil, err
	}
	if sub.LanguageCode == "" {
		sub.LanguageCode = validation.GuessLanguage(sub.Text).String()
	}

	if idem {
		ttl := s.IdempotencyTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		_, err := repo.CreateIdempotency(ctx, s.DB, FeedbackScope, idemKey, "", 0, ttl)
		if errors.Is(err, repo.ErrDuplicate) {
			// Lost the race to a concurrent request with the same key.
			if res, rerr := s.replay(ctx, idemKey); res != nil || rerr != nil {
				return res, rerr
			}
			return nil, ErrSubmissionInProgress
		}
		if err != nil {
			return nil, err
		}
	}

	receipt, err := s.API.SubmitFeedback(ctx, sub)
	if err != nil {
		if idem {
			if rerr := repo.ReleaseIdempotency(context.WithoutCancel(ctx), s.DB, FeedbackScope, idemKey); rerr != nil {
				s.Log.Warn().Err(rerr).Msg("release idempotency reservation")
			}
		}
		return nil, err
	}
	if receipt.LanguageCode == "" {
		receipt.LanguageCode = sub.LanguageCode
	}

	if idem {
		err := repo.CompleteIdempotency(context.WithoutCancel(ctx), s.DB, FeedbackScope, idemKey, strconv.FormatInt(receipt.ID, 10), http.StatusOK)
		if err != nil {
			s.Log.Warn().Err(err).Msg("store idempotency record")
		}
	}
	return &SubmitResult{Receipt: *receipt}, nil
}

// replay returns the stored receipt for a completed key, ErrSubmissionInProgress
// for a reserved one and (nil, nil) when the key is unknown.
func (s *FeedbackService) replay(ctx context.Context, idemKey string) (*SubmitResult, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, FeedbackScope, idemKey, time.Now().UTC())
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	case rec.ResourceID == "":
		return nil, ErrSubmissionInProgress
	}
	id, err := strconv.ParseInt(rec.ResourceID, 10, 64)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Receipt: domain.FeedbackReceipt{ID: id}, Replayed: true}, nil
}

// List returns stored feedback, newest first, capped at limit when limit > 0.
func (s *FeedbackService) List(ctx context.Context, limit int) ([]domain.FeedbackRecord, error) {
	ctx, span := otel.Tracer("services/FeedbackService").Start(ctx, "List",
		trace.WithAttributes(attribute.Int("limit", limit)))
	defer span.End()

	recs, err := s.API.ListFeedback(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}
