package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/emotionwise-web/internal/domain"
	"github.com/tbourn/emotionwise-web/internal/http/middleware"
	"github.com/tbourn/emotionwise-web/internal/search"
	"github.com/tbourn/emotionwise-web/internal/services"
	"github.com/tbourn/emotionwise-web/internal/session"
	"github.com/tbourn/emotionwise-web/internal/validation"
	"github.com/tbourn/emotionwise-web/internal/viewmodel"
)

// ---- stubs to satisfy handlers.New() dependencies ----

type stubAuth struct {
	register func(domain.Registration, string) (*domain.User, error)
	login    func(email, password string) error
	loggedIn bool
}

func (s *stubAuth) Register(_ context.Context, in domain.Registration, confirm string) (*domain.User, error) {
	if s.register != nil {
		return s.register(in, confirm)
	}
	return &domain.User{ID: "u1", Name: in.Name, Email: in.Email}, nil
}

func (s *stubAuth) Login(_ context.Context, email, password string) error {
	if s.login != nil {
		if err := s.login(email, password); err != nil {
			return err
		}
	}
	s.loggedIn = true
	return nil
}

func (s *stubAuth) Logout(context.Context) error { s.loggedIn = false; return nil }

func (s *stubAuth) VerifyEmail(_ context.Context, token string) (*domain.Verification, error) {
	if token == "" {
		return nil, services.ErrMissingToken
	}
	return &domain.Verification{Success: true, Message: "Email verified"}, nil
}

func (s *stubAuth) Status(context.Context) (services.AuthStatus, error) {
	return services.AuthStatus{LoggedIn: s.loggedIn, LoginURL: "/login"}, nil
}

func (s *stubAuth) Me(context.Context) (*domain.User, error) {
	return &domain.User{ID: "u1"}, nil
}

type stubDetect struct {
	fn func(text, sessionID string) (*viewmodel.DetectionView, error)
}

func (s stubDetect) Detect(_ context.Context, text, sessionID string) (*viewmodel.DetectionView, error) {
	return s.fn(text, sessionID)
}

type stubHistory struct {
	session func(id string) (*viewmodel.HistoryView, error)
	user    func(detailed bool) (*viewmodel.HistoryView, error)
	search  func(q string, k int) ([]search.Result, error)
}

func (s stubHistory) Session(_ context.Context, id string) (*viewmodel.HistoryView, error) {
	return s.session(id)
}

func (s stubHistory) User(_ context.Context, detailed bool) (*viewmodel.HistoryView, error) {
	return s.user(detailed)
}

func (s stubHistory) Search(_ context.Context, q string, k int) ([]search.Result, error) {
	return s.search(q, k)
}

type stubVotes struct {
	cast     func(services.CastInput) ([]viewmodel.Vote, error)
	snapshot func(key string) ([]viewmodel.Vote, error)
	stats    func() (domain.VoteStats, error)
}

func (s stubVotes) Cast(_ context.Context, in services.CastInput) ([]viewmodel.Vote, error) {
	return s.cast(in)
}

func (s stubVotes) Snapshot(_ context.Context, key string) ([]viewmodel.Vote, error) {
	return s.snapshot(key)
}

func (s stubVotes) Stats(context.Context) (domain.VoteStats, error) {
	return s.stats()
}

type stubFeedback struct {
	submit func(key string, in validation.FeedbackInput) (*services.SubmitResult, error)
	list   func(limit int) ([]domain.FeedbackRecord, error)
}

func (s stubFeedback) Submit(_ context.Context, key string, in validation.FeedbackInput) (*services.SubmitResult, error) {
	return s.submit(key, in)
}

func (s stubFeedback) List(_ context.Context, limit int) ([]domain.FeedbackRecord, error) {
	return s.list(limit)
}

// ---- helpers ----

// newTestRouter mounts every handler the way the real router does, minus
// the outer middleware.
func newTestRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))

	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.GET("/auth/verify-email", h.VerifyEmail)
	r.GET("/auth/status", h.AuthStatus)
	r.GET("/auth/me", h.Me)
	r.GET("/events", h.Events)
	r.POST("/detect", h.Detect)
	r.GET("/labels", h.Labels)
	r.GET("/history/sessions/:id", h.SessionHistory)
	r.GET("/history/user", h.UserHistory)
	r.GET("/history/search", h.SearchHistory)
	r.POST("/votes", h.CastVote)
	r.GET("/votes/stats", h.VoteStats)
	r.GET("/votes/:entry", h.EntryVotes)
	r.POST("/feedback", h.SubmitFeedback)
	r.GET("/feedback", h.ListFeedback)
	return r
}

func newSession() *session.Context {
	return session.New(session.NewMemoryStore(""), "/login")
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			rd = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v (body=%s)", err, w.Body.String())
	}
	return v
}
