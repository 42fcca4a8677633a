package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/emotionwise-web/internal/domain"
	"github.com/tbourn/emotionwise-web/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// stubAPI implements every upstream interface with optional funcs and
// records the calls it received.
type stubAPI struct {
	mu sync.Mutex

	register     func(domain.Registration) (*domain.User, error)
	login        func(email, password string) (*domain.TokenGrant, error)
	me           func() (*domain.User, error)
	verify       func(token string) (*domain.Verification, error)
	detect       func(domain.DetectionRequest) (*domain.DetectionResult, error)
	submit       func(domain.FeedbackSubmission) (*domain.FeedbackReceipt, error)
	vote         func(domain.EmotionVote) error
	list         func() ([]domain.FeedbackRecord, error)
	sessionHist  func(id string) ([]domain.EmotionLogEntry, error)
	userHist     func() ([]domain.EmotionLogEntry, error)
	userHistFull func() ([]domain.EmotionLogEntry, error)

	calls       []string
	submissions []domain.FeedbackSubmission
	votes       []domain.EmotionVote
}

func (s *stubAPI) record(name string) {
	s.mu.Lock()
	s.calls = append(s.calls, name)
	s.mu.Unlock()
}

func (s *stubAPI) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (s *stubAPI) Register(_ context.Context, in domain.Registration) (*domain.User, error) {
	s.record("register")
	if s.register == nil {
		return &domain.User{ID: "u1", Name: in.Name, Email: in.Email}, nil
	}
	return s.register(in)
}

func (s *stubAPI) Login(_ context.Context, email, password string) (*domain.TokenGrant, error) {
	s.record("login")
	if s.login == nil {
		return &domain.TokenGrant{AccessToken: "tok"}, nil
	}
	return s.login(email, password)
}

func (s *stubAPI) Me(context.Context) (*domain.User, error) {
	s.record("me")
	if s.me == nil {
		return &domain.User{ID: "u1"}, nil
	}
	return s.me()
}

func (s *stubAPI) VerifyEmail(_ context.Context, token string) (*domain.Verification, error) {
	s.record("verify")
	if s.verify == nil {
		return &domain.Verification{Success: true, Message: "Email verified"}, nil
	}
	return s.verify(token)
}

func (s *stubAPI) DetectEmotion(_ context.Context, in domain.DetectionRequest) (*domain.DetectionResult, error) {
	s.record("detect")
	return s.detect(in)
}

func (s *stubAPI) SubmitFeedback(_ context.Context, in domain.FeedbackSubmission) (*domain.FeedbackReceipt, error) {
	s.record("submit")
	s.mu.Lock()
	s.submissions = append(s.submissions, in)
	s.mu.Unlock()
	if s.submit == nil {
		return &domain.FeedbackReceipt{ID: 1}, nil
	}
	return s.submit(in)
}

func (s *stubAPI) SubmitEmotionVote(_ context.Context, in domain.EmotionVote) error {
	s.record("vote")
	s.mu.Lock()
	s.votes = append(s.votes, in)
	s.mu.Unlock()
	if s.vote == nil {
		return nil
	}
	return s.vote(in)
}

func (s *stubAPI) ListFeedback(context.Context) ([]domain.FeedbackRecord, error) {
	s.record("list")
	if s.list == nil {
		return []domain.FeedbackRecord{}, nil
	}
	return s.list()
}

func (s *stubAPI) SessionHistory(_ context.Context, id string) ([]domain.EmotionLogEntry, error) {
	s.record("session_history")
	return s.sessionHist(id)
}

func (s *stubAPI) UserHistory(context.Context) ([]domain.EmotionLogEntry, error) {
	s.record("user_history")
	return s.userHist()
}

func (s *stubAPI) UserHistoryDetailed(context.Context) ([]domain.EmotionLogEntry, error) {
	s.record("user_history_detailed")
	return s.userHistFull()
}
