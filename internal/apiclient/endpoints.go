package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/tbourn/emotionwise-web/internal/domain"
)

// Register creates an account. A 400 means the email is taken and comes
// back as *ConflictError.
func (c *Client) Register(ctx context.Context, in domain.Registration) (*domain.User, error) {
	var out domain.User
	err := c.send(ctx, call{
		op:            "users.register",
		method:        http.MethodPost,
		path:          c.apiPath("/users/register"),
		body:          in,
		public:        true,
		conflictOn400: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a bearer token. The upstream expects an
// OAuth2 password form with the email in "username".
func (c *Client) Login(ctx context.Context, email, password string) (*domain.TokenGrant, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var out domain.TokenGrant
	err := c.send(ctx, call{
		op:     "users.login",
		method: http.MethodPost,
		path:   c.apiPath("/users/login"),
		form:   form,
		public: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return nil, &ServerError{Status: http.StatusOK, Message: "The server did not return an access token."}
	}
	return &out, nil
}

// Me returns the account the current token belongs to.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := c.send(ctx, call{
		op:     "users.me",
		method: http.MethodGet,
		path:   c.apiPath("/users/me"),
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyEmail confirms an address with the token from the verification mail.
func (c *Client) VerifyEmail(ctx context.Context, token string) (*domain.Verification, error) {
	var out domain.Verification
	err := c.send(ctx, call{
		op:     "users.verify_email",
		method: http.MethodGet,
		path:   c.apiPath("/users/verify-email"),
		query:  url.Values{"token": []string{token}},
		public: true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DetectEmotion runs the detector. Confidence scores are returned as
// percentages.
func (c *Client) DetectEmotion(ctx context.Context, in domain.DetectionRequest) (*domain.DetectionResult, error) {
	var out domain.DetectionResult
	if err := c.send(ctx, call{
		op:     "tools.emotion_detector",
		method: http.MethodPost,
		path:   c.toolsPath("/tools/emotion-detector"),
		body:   in,
	}, &out); err != nil {
		return nil, err
	}
	out.ConfidenceScores = domain.PercentScores(out.ConfidenceScores)
	return &out, nil
}

// SessionHistory lists the entries of one session in the order the server
// returns them. Entries without a session id inherit sessionID.
func (c *Client) SessionHistory(ctx context.Context, sessionID string) ([]domain.EmotionLogEntry, error) {
	entries, err := c.history(ctx, "tools.session_history", "/tools/emotion-history/"+url.PathEscape(sessionID))
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].SessionID == "" {
			entries[i].SessionID = sessionID
		}
	}
	return entries, nil
}

// UserHistory lists all entries of the current user.
func (c *Client) UserHistory(ctx context.Context) ([]domain.EmotionLogEntry, error) {
	return c.history(ctx, "tools.user_history", "/tools/emotion-history/user")
}

// UserHistoryDetailed is UserHistory with confidence scores.
func (c *Client) UserHistoryDetailed(ctx context.Context) ([]domain.EmotionLogEntry, error) {
	return c.history(ctx, "tools.user_history_detailed", "/tools/emotion-history/user/detailed")
}

func (c *Client) history(ctx context.Context, op, path string) ([]domain.EmotionLogEntry, error) {
	var out domain.HistoryResponse
	if err := c.send(ctx, call{
		op:     op,
		method: http.MethodGet,
		path:   c.toolsPath(path),
	}, &out); err != nil {
		return nil, err
	}
	if out.History == nil {
		return []domain.EmotionLogEntry{}, nil
	}
	for i := range out.History {
		out.History[i].ConfidenceScores = domain.PercentScores(out.History[i].ConfidenceScores)
	}
	return out.History, nil
}

// SubmitFeedback stores a feedback record and returns its id.
func (c *Client) SubmitFeedback(ctx context.Context, in domain.FeedbackSubmission) (*domain.FeedbackReceipt, error) {
	var out domain.FeedbackReceipt
	if err := c.send(ctx, call{
		op:     "feedback.submit",
		method: http.MethodPost,
		path:   c.apiPath("/feedback/submit"),
		body:   in,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitEmotionVote records one per-emotion accuracy vote.
func (c *Client) SubmitEmotionVote(ctx context.Context, in domain.EmotionVote) error {
	return c.send(ctx, call{
		op:     "feedback.emotion_vote",
		method: http.MethodPost,
		path:   c.apiPath("/feedback/emotion-vote"),
		body:   in,
	}, nil)
}

// ListFeedback returns the stored feedback records, newest first.
func (c *Client) ListFeedback(ctx context.Context) ([]domain.FeedbackRecord, error) {
	var out []domain.FeedbackRecord
	if err := c.send(ctx, call{
		op:     "feedback.list",
		method: http.MethodGet,
		path:   c.apiPath("/feedback/list"),
	}, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.FeedbackRecord{}
	}
	return out, nil
}
