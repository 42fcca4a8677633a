package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/emotionwise-web/internal/domain"
	"github.com/tbourn/emotionwise-web/internal/search"
	"github.com/tbourn/emotionwise-web/internal/services"
	"github.com/tbourn/emotionwise-web/internal/session"
	"github.com/tbourn/emotionwise-web/internal/sysutil"
	"github.com/tbourn/emotionwise-web/internal/utils"
	"github.com/tbourn/emotionwise-web/internal/validation"
	"github.com/tbourn/emotionwise-web/internal/viewmodel"
)

//
// Service contracts (context-aware)
//

// AuthService covers account and session operations.
type AuthService interface {
	Register(ctx context.Context, in domain.Registration, confirm string) (*domain.User, error)
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
	VerifyEmail(ctx context.Context, token string) (*domain.Verification, error)
	Status(ctx context.Context) (services.AuthStatus, error)
	Me(ctx context.Context) (*domain.User, error)
}

// DetectionService runs emotion detection for one message.
type DetectionService interface {
	Detect(ctx context.Context, text, sessionID string) (*viewmodel.DetectionView, error)
}

// HistoryService loads grouped emotion history.
type HistoryService interface {
	Session(ctx context.Context, sessionID string) (*viewmodel.HistoryView, error)
	User(ctx context.Context, detailed bool) (*viewmodel.HistoryView, error)
	Search(ctx context.Context, query string, k int) ([]search.Result, error)
}

// VoteService casts and reports per-emotion accuracy votes.
type VoteService interface {
	Cast(ctx context.Context, in services.CastInput) ([]viewmodel.Vote, error)
	Snapshot(ctx context.Context, entryKey string) ([]viewmodel.Vote, error)
	Stats(ctx context.Context) (domain.VoteStats, error)
}

// FeedbackService submits and lists free-form feedback.
type FeedbackService interface {
	Submit(ctx context.Context, idemKey string, in validation.FeedbackInput) (*services.SubmitResult, error)
	List(ctx context.Context, limit int) ([]domain.FeedbackRecord, error)
}

// EventSource delivers session events to the SSE stream.
type EventSource interface {
	Subscribe() (<-chan session.Event, func())
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the local API.
type Handlers struct {
	auth      AuthService
	detect    DetectionService
	history   HistoryService
	votes     VoteService
	feedback  FeedbackService
	events    EventSource
	loginURL  string
	heartbeat time.Duration
}

// Services bundles the dependencies of New.
type Services struct {
	Auth      AuthService
	Detection DetectionService
	History   HistoryService
	Votes     VoteService
	Feedback  FeedbackService
	Events    EventSource
	// LoginURL is attached to unauthorized responses.
	LoginURL string
	// Heartbeat is the idle ping interval of /events; 0 means DefaultHeartbeat.
	Heartbeat time.Duration
}

// New constructs Handlers bound to the given services.
func New(s Services) *Handlers {
	return &Handlers{
		auth:      s.Auth,
		detect:    s.Detection,
		history:   s.History,
		votes:     s.Votes,
		feedback:  s.Feedback,
		events:    s.Events,
		loginURL:  s.LoginURL,
		heartbeat: s.Heartbeat,
	}
}

func queryBool(c *gin.Context, key string) bool {
	return sysutil.IsTruthy(c.Query(key))
}

// pageWindow reads page (default 1) and page_size (default 20, max 100)
// and applies them to a list of total items.
func pageWindow(c *gin.Context, total int) utils.Window {
	return utils.Paginate(total,
		utils.AtoiDefault(c.Query("page"), 1),
		utils.AtoiDefault(c.Query("page_size"), 20),
		100,
	)
}
