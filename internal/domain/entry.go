package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Timestamp decodes the several time layouts the API emits. Python's
// isoformat() drops the zone for naive datetimes, so values without an
// offset are read as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses s using the accepted layouts.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{t.UTC()}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("domain: unrecognised timestamp %q", s)
}

// UnmarshalJSON accepts a string in any known layout, unix seconds, or null.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if b[0] != '"' {
		secs, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return fmt.Errorf("domain: timestamp: %w", err)
		}
		t.Time = time.Unix(0, int64(secs*float64(time.Second))).UTC()
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON writes RFC 3339 with nanoseconds, or null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// EmotionLogEntry is one past detection as returned by the history
// endpoints. ConfidenceScores holds percentages in [0,100]; a label with
// no score has unknown confidence, which is not the same as zero.
type EmotionLogEntry struct {
	SessionID        string                   `json:"session_id,omitempty"`
	Message          string                   `json:"message"`
	Emotions         []EmotionLabel           `json:"emotions"`
	ConfidenceScores map[EmotionLabel]float64 `json:"confidence_scores,omitempty"`
	SarcasmDetected  bool                     `json:"sarcasm_detected"`
	Context          string                   `json:"context,omitempty"`
	Timestamp        Timestamp                `json:"timestamp"`
}

// Confidence returns the score for label and whether one was reported.
func (e EmotionLogEntry) Confidence(label EmotionLabel) (float64, bool) {
	if e.ConfidenceScores == nil {
		return 0, false
	}
	v, ok := e.ConfidenceScores[label]
	return v, ok
}

// DetectionResult is the detector's reply for one submitted text.
type DetectionResult struct {
	SessionID        string                   `json:"session_id"`
	DetectedEmotions []EmotionLabel           `json:"detected_emotions"`
	ConfidenceScores map[EmotionLabel]float64 `json:"confidence_scores"`
	SarcasmDetected  bool                     `json:"sarcasm_detected"`
	Recommendation   string                   `json:"recommendation,omitempty"`
}

// DetectionRequest is the detector input. SessionID continues an existing
// session; empty starts a new one. Context defaults to "general" upstream.
type DetectionRequest struct {
	Message   string `json:"message"`
	Context   string `json:"context,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// PercentScores returns scores on the 0-100 scale. The detector reports
// sigmoid probabilities in [0,1]; a map whose values all lie in [0,1] is
// treated as fractional and scaled. Detected labels are above a 15%
// threshold, so a genuine percentage map never fits in [0,1].
func PercentScores(scores map[EmotionLabel]float64) map[EmotionLabel]float64 {
	if len(scores) == 0 {
		return scores
	}
	for _, v := range scores {
		if v > 1 || v < 0 {
			return scores
		}
	}
	out := make(map[EmotionLabel]float64, len(scores))
	for k, v := range scores {
		out[k] = math.Round(v*1000) / 10
	}
	return out
}

// HistoryResponse wraps the entries of a history call.
type HistoryResponse struct {
	History []EmotionLogEntry `json:"history"`
}

// FeedbackSubmission is the body of a feedback submit call.
type FeedbackSubmission struct {
	Text              string         `json:"text"`
	PredictedEmotions []EmotionLabel `json:"predicted_emotions"`
	SuggestedEmotions []EmotionLabel `json:"suggested_emotions"`
	Comment           string         `json:"comment,omitempty"`
	LanguageCode      string         `json:"language_code,omitempty"`
}

// FeedbackReceipt is returned by feedback submit. ID is the join key for
// later emotion votes.
type FeedbackReceipt struct {
	ID           int64  `json:"id"`
	LanguageID   *int64 `json:"language_id,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// FeedbackRecord is a stored feedback row as listed by the API.
type FeedbackRecord struct {
	ID                int64          `json:"id"`
	Text              string         `json:"text"`
	PredictedEmotions []EmotionLabel `json:"predicted_emotions"`
	SuggestedEmotions []EmotionLabel `json:"suggested_emotions"`
	Comment           string         `json:"comment,omitempty"`
	LanguageCode      string         `json:"language_code,omitempty"`
	CreatedAt         Timestamp      `json:"created_at"`
}

// EmotionVote is the per-emotion accuracy vote payload. Score is in [0,1].
type EmotionVote struct {
	FeedbackID int64        `json:"feedback_id"`
	Label      EmotionLabel `json:"label"`
	Score      float64      `json:"score"`
	Vote       bool         `json:"vote"`
	Comment    string       `json:"comment"`
}

// Registration is the body of a register call.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the account returned by register and /users/me.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt Timestamp `json:"created_at"`
}

// TokenGrant is the login reply.
type TokenGrant struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// Verification is the verify-email reply.
type Verification struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
