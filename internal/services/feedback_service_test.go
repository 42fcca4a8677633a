package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/emotionwise-web/internal/apiclient"
	"github.com/tbourn/emotionwise-web/internal/domain"
	"github.com/tbourn/emotionwise-web/internal/validation"
)

func TestFeedback_Submit_Normalizes(t *testing.T) {
	api := &stubAPI{submit: func(in domain.FeedbackSubmission) (*domain.FeedbackReceipt, error) {
		return &domain.FeedbackReceipt{ID: 9}, nil
	}}
	svc := &FeedbackService{API: api, DB: newTestDB(t), Log: zerolog.Nop()}

	res, err := svc.Submit(context.Background(), "", validation.FeedbackInput{
		Text:      " estoy muy feliz con esto ",
		Predicted: []string{"joy"},
		Suggested: []string{"Pride", " pride", "RELIEF"},
		Comment:   "missing pride",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Receipt.ID != 9 || res.Replayed {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Receipt.LanguageCode != "es" {
		t.Fatalf("language code = %q, want es", res.Receipt.LanguageCode)
	}
	sub := api.submissions[0]
	if len(sub.SuggestedEmotions) != 2 || sub.SuggestedEmotions[0] != domain.Pride || sub.SuggestedEmotions[1] != domain.Relief {
		t.Fatalf("suggested = %v", sub.SuggestedEmotions)
	}
	if sub.Text != "estoy muy feliz con esto" {
		t.Fatalf("text not trimmed: %q", sub.Text)
	}
}

func TestFeedback_Submit_InvalidNeverSent(t *testing.T) {
	api := &stubAPI{}
	svc := &FeedbackService{API: api, DB: newTestDB(t), Log: zerolog.Nop()}

	_, err := svc.Submit(context.Background(), "", validation.FeedbackInput{Text: "x", Suggested: []string{"hunger"}})
	var ve *validation.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if api.count("submit") != 0 {
		t.Fatal("invalid feedback reached the API")
	}
}

func TestFeedback_Submit_IdempotentReplay(t *testing.T) {
	next := int64(100)
	api := &stubAPI{submit: func(domain.FeedbackSubmission) (*domain.FeedbackReceipt, error) {
		next++
		return &domain.FeedbackReceipt{ID: next}, nil
	}}
	svc := &FeedbackService{API: api, DB: newTestDB(t), IdempotencyTTL: time.Hour, Log: zerolog.Nop()}
	ctx := context.Background()
	in := validation.FeedbackInput{Text: "hello"}

	first, err := svc.Submit(ctx, "key-1", in)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.Submit(ctx, "key-1", in)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if !second.Replayed || second.Receipt.ID != first.Receipt.ID {
		t.Fatalf("expected replay of %d, got %+v", first.Receipt.ID, second)
	}
	if api.count("submit") != 1 {
		t.Fatalf("submit calls = %d, want 1", api.count("submit"))
	}

	third, err := svc.Submit(ctx, "key-2", in)
	if err != nil {
		t.Fatalf("third: %v", err)
	}
	if third.Replayed || third.Receipt.ID == first.Receipt.ID {
		t.Fatalf("different key must not replay: %+v", third)
	}
}

func TestFeedback_Submit_UpstreamErrorNotRecorded(t *testing.T) {
	fail := true
	api := &stubAPI{submit: func(domain.FeedbackSubmission) (*domain.FeedbackReceipt, error) {
		if fail {
			return nil, &apiclient.ServerError{Status: 429, Message: "Too many requests"}
		}
		return &domain.FeedbackReceipt{ID: 1}, nil
	}}
	svc := &FeedbackService{API: api, DB: newTestDB(t), Log: zerolog.Nop()}
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "k", validation.FeedbackInput{Text: "x"}); err == nil {
		t.Fatal("expected upstream error")
	}
	fail = false
	res, err := svc.Submit(ctx, "k", validation.FeedbackInput{Text: "x"})
	if err != nil || res.Replayed {
		t.Fatalf("retry after failure must reach upstream: %+v %v", res, err)
	}
}

func TestFeedback_List_Limit(t *testing.T) {
	api := &stubAPI{list: func() ([]domain.FeedbackRecord, error) {
		return []domain.FeedbackRecord{{ID: 3}, {ID: 2}, {ID: 1}}, nil
	}}
	svc := &FeedbackService{API: api}

	all, err := svc.List(context.Background(), 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("List(0) = %v, %v", all, err)
	}
	two, _ := svc.List(context.Background(), 2)
	if len(two) != 2 || two[0].ID != 3 {
		t.Fatalf("List(2) = %v", two)
	}
}

func TestFeedback_Submit_ConcurrentSameKeyReachesUpstreamOnce(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &stubAPI{submit: func(domain.FeedbackSubmission) (*domain.FeedbackReceipt, error) {
		close(entered)
		<-release
		return &domain.FeedbackReceipt{ID: 77}, nil
	}}
	svc := &FeedbackService{API: api, DB: newTestDB(t), IdempotencyTTL: time.Hour, Log: zerolog.Nop()}
	ctx := context.Background()
	in := validation.FeedbackInput{Text: "hello"}

	type result struct {
		res *SubmitResult
		err error
	}
	first := make(chan result, 1)
	go func() {
		res, err := svc.Submit(ctx, "dup", in)
		first <- result{res, err}
	}()
	<-entered

	// The first request holds the key while its upstream call is open.
	if _, err := svc.Submit(ctx, "dup", in); !errors.Is(err, ErrSubmissionInProgress) {
		t.Fatalf("expected ErrSubmissionInProgress, got %v", err)
	}

	close(release)
	got := <-first
	if got.err != nil || got.res.Receipt.ID != 77 || got.res.Replayed {
		t.Fatalf("first: %+v %v", got.res, got.err)
	}

	again, err := svc.Submit(ctx, "dup", in)
	if err != nil || !again.Replayed || again.Receipt.ID != 77 {
		t.Fatalf("retry after completion: %+v %v", again, err)
	}
	if api.count("submit") != 1 {
		t.Fatalf("submit calls = %d, want 1", api.count("submit"))
	}
}

func TestFeedback_Submit_InvalidDoesNotReserveKey(t *testing.T) {
	api := &stubAPI{}
	svc := &FeedbackService{API: api, DB: newTestDB(t), Log: zerolog.Nop()}
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "k", validation.FeedbackInput{Text: " "}); err == nil {
		t.Fatal("expected validation error")
	}
	res, err := svc.Submit(ctx, "k", validation.FeedbackInput{Text: "fine"})
	if err != nil || res.Replayed {
		t.Fatalf("corrected retry must reach upstream: %+v %v", res, err)
	}
}
