// Package services – HistoryService
//
// HistoryService loads session and user history from the API and returns it
// grouped by session. Identical loads running at the same time share one
// upstream call. Search ranks the messages loaded so far without calling the
// API.
package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/emotionwise-web/internal/domain"
	"github.com/tbourn/emotionwise-web/internal/search"
	"github.com/tbourn/emotionwise-web/internal/viewmodel"
)

// HistoryAPI is the upstream surface HistoryService needs.
type HistoryAPI interface {
	SessionHistory(ctx context.Context, sessionID string) ([]domain.EmotionLogEntry, error)
	UserHistory(ctx context.Context) ([]domain.EmotionLogEntry, error)
	UserHistoryDetailed(ctx context.Context) ([]domain.EmotionLogEntry, error)
}

type HistoryService struct {
	API     HistoryAPI
	Tracker *viewmodel.VoteTracker
	Entries *viewmodel.EntryIndex

	group singleflight.Group
}

// Session returns the history of one session.
func (s *HistoryService) Session(ctx context.Context, sessionID string) (*viewmodel.HistoryView, error) {
	ctx, span := otel.Tracer("services/HistoryService").Start(ctx, "Session",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrInvalidSessionID
	}
	return s.load(ctx, "session:"+sessionID, func(ctx context.Context) ([]domain.EmotionLogEntry, error) {
		return s.API.SessionHistory(ctx, sessionID)
	})
}

// User returns the history of the logged-in user. detailed includes
// confidence scores.
func (s *HistoryService) User(ctx context.Context, detailed bool) (*viewmodel.HistoryView, error) {
	ctx, span := otel.Tracer("services/HistoryService").Start(ctx, "User",
		trace.WithAttributes(attribute.Bool("detailed", detailed)))
	defer span.End()

	if detailed {
		return s.load(ctx, "user:detailed", s.API.UserHistoryDetailed)
	}
	return s.load(ctx, "user", s.API.UserHistory)
}

func (s *HistoryService) load(ctx context.Context, key string, fetch func(context.Context) ([]domain.EmotionLogEntry, error)) (*viewmodel.HistoryView, error) {
	// The fetch is shared by every waiting caller, so it must not end when the
	// caller that started it goes away. Each caller still stops waiting on its
	// own context.
	ch := s.group.DoChan(key, func() (any, error) {
		return fetch(context.WithoutCancel(ctx))
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	entries := res.Val.([]domain.EmotionLogEntry)
	if s.Entries != nil {
		s.Entries.PutAll(entries)
	}
	view := viewmodel.NewHistoryView(viewmodel.GroupBySession(entries), s.Tracker)
	return &view, nil
}

// Search ranks the messages of every entry seen in this process (fresh
// detections and loaded history) against query and returns the best k.
func (s *HistoryService) Search(ctx context.Context, query string, k int) ([]search.Result, error) {
	_, span := otel.Tracer("services/HistoryService").Start(ctx, "Search",
		trace.WithAttributes(attribute.Int("k", k)))
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	out := []search.Result{}
	if s.Entries == nil {
		return out, nil
	}
	snap := s.Entries.Snapshot()
	docs := make([]search.Doc, 0, len(snap))
	for key, e := range snap {
		docs = append(docs, search.Doc{Key: key, SessionID: e.SessionID, Text: e.Message})
	}
	res := search.NewIndex(docs, search.WithStopwords(search.EnglishStopwords)).TopK(query, k)
	span.SetAttributes(attribute.Int("indexed", len(docs)), attribute.Int("hits", len(res)))
	return append(out, res...), nil
}
