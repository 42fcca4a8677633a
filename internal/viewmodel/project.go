package viewmodel

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/emotionwise-web/internal/domain"
)

const (
	noEmotions      = "-"
	unknownScore    = "unknown"
	NoHistoryFound  = "No history found"
	noEmotionsFound = "No emotions detected"
)

var titler = cases.Title(language.English)

// DisplayLabel renders a label for humans, e.g. "Gratitude".
func DisplayLabel(l domain.EmotionLabel) string {
	return titler.String(string(l))
}

// YesNo renders the sarcasm flag.
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// ConfidenceText renders a percentage ("91%", "42.5%") or "unknown".
func ConfidenceText(percent float64, known bool) string {
	if !known {
		return unknownScore
	}
	return strconv.FormatFloat(percent, 'f', -1, 64) + "%"
}

// LabelConfidence is one emotion of a row with its rendered score.
type LabelConfidence struct {
	Label   domain.EmotionLabel `json:"label"`
	Display string              `json:"display"`
	Text    string              `json:"confidence"`
}

// Row is one history entry projected for a table. Votes is only set when
// VotingEnabled, that is when the entry is bound to a feedback record.
type Row struct {
	EntryKey      string            `json:"entry_key"`
	SessionID     string            `json:"session_id"`
	Message       string            `json:"message"`
	Emotions      string            `json:"emotions"`
	Sarcasm       string            `json:"sarcasm"`
	Context       string            `json:"context,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
	Confidence    []LabelConfidence `json:"confidence"`
	VotingEnabled bool              `json:"voting_enabled"`
	Votes         []Vote            `json:"votes,omitempty"`
}

// ProjectRows maps entries to table rows one-for-one, in input order.
func ProjectRows(entries []domain.EmotionLogEntry) []Row {
	keys := EntryKeys(entries)
	rows := make([]Row, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, projectRow(e, keys[i]))
	}
	return rows
}

func projectRow(e domain.EmotionLogEntry, key string) Row {
	r := Row{
		EntryKey:   key,
		SessionID:  e.SessionID,
		Message:    e.Message,
		Emotions:   noEmotions,
		Sarcasm:    YesNo(e.SarcasmDetected),
		Context:    e.Context,
		Timestamp:  e.Timestamp.Time,
		Confidence: make([]LabelConfidence, 0, len(e.Emotions)),
	}
	if len(e.Emotions) > 0 {
		names := make([]string, len(e.Emotions))
		for i, l := range e.Emotions {
			names[i] = string(l)
		}
		r.Emotions = strings.Join(names, ", ")
	}
	for _, l := range e.Emotions {
		v, ok := e.Confidence(l)
		r.Confidence = append(r.Confidence, LabelConfidence{
			Label:   l,
			Display: DisplayLabel(l),
			Text:    ConfidenceText(v, ok),
		})
	}
	return r
}

// SessionView is one rendered group.
type SessionView struct {
	SessionID string `json:"session_id"`
	Rows      []Row  `json:"rows"`
}

// HistoryView is the render-ready history page.
type HistoryView struct {
	Empty    bool          `json:"empty"`
	Message  string        `json:"message,omitempty"`
	Sessions []SessionView `json:"sessions"`
	Total    int           `json:"total"`
}

// NewHistoryView renders grouped history. Rows whose entry has a feedback id
// in tracker are voteable and carry their vote states; the others render
// without vote controls.
func NewHistoryView(g *SessionGroups, tracker *VoteTracker) HistoryView {
	v := HistoryView{Sessions: make([]SessionView, 0, g.Len()), Total: g.Size()}
	if g.Empty() {
		v.Empty = true
		v.Message = NoHistoryFound
		return v
	}
	for _, grp := range g.Groups() {
		rows := ProjectRows(grp.Entries)
		if tracker != nil {
			for i := range rows {
				if _, ok := tracker.FeedbackID(rows[i].EntryKey); !ok {
					continue
				}
				rows[i].VotingEnabled = true
				rows[i].Votes = tracker.Snapshot(rows[i].EntryKey, grp.Entries[i].Emotions)
			}
		}
		v.Sessions = append(v.Sessions, SessionView{SessionID: grp.SessionID, Rows: rows})
	}
	return v
}

// EmotionRow is one detected emotion with its vote control.
type EmotionRow struct {
	Label          domain.EmotionLabel `json:"label"`
	Display        string              `json:"display"`
	Confidence     *float64            `json:"confidence"`
	ConfidenceText string              `json:"confidence_text"`
	VoteScore      float64             `json:"vote_score"`
	State          VoteState           `json:"vote_state"`
}

// DetectionView is the render-ready result of one detection.
type DetectionView struct {
	EntryKey       string       `json:"entry_key"`
	SessionID      string       `json:"session_id"`
	Message        string       `json:"message"`
	Emotions       []EmotionRow `json:"emotions"`
	Summary        string       `json:"summary"`
	Sarcasm        bool         `json:"sarcasm_detected"`
	SarcasmBadge   string       `json:"sarcasm"`
	Recommendation string       `json:"recommendation,omitempty"`
	VotingEnabled  bool         `json:"voting_enabled"`
}

// NewDetectionView renders entry e. Voting is enabled when the tracker has
// a feedback id bound to the entry.
func NewDetectionView(e domain.EmotionLogEntry, recommendation string, tracker *VoteTracker) DetectionView {
	key := EntryKeyOf(e)
	v := DetectionView{
		EntryKey:       key,
		SessionID:      e.SessionID,
		Message:        e.Message,
		Emotions:       make([]EmotionRow, 0, len(e.Emotions)),
		Summary:        noEmotionsFound,
		Sarcasm:        e.SarcasmDetected,
		SarcasmBadge:   YesNo(e.SarcasmDetected),
		Recommendation: recommendation,
	}
	if tracker != nil {
		_, v.VotingEnabled = tracker.FeedbackID(key)
	}
	if len(e.Emotions) > 0 {
		names := make([]string, len(e.Emotions))
		for i, l := range e.Emotions {
			names[i] = DisplayLabel(l)
		}
		v.Summary = strings.Join(names, ", ")
	}
	for _, l := range e.Emotions {
		row := EmotionRow{Label: l, Display: DisplayLabel(l), State: VoteUnvoted}
		p, ok := e.Confidence(l)
		if ok {
			row.Confidence = &p
			row.VoteScore = VoteScore(p)
		}
		row.ConfidenceText = ConfidenceText(p, ok)
		if tracker != nil {
			row.State = tracker.State(key, l)
		}
		v.Emotions = append(v.Emotions, row)
	}
	return v
}

// EntryFromDetection builds the log entry for a fresh detection stamped at.
func EntryFromDetection(res domain.DetectionResult, message string, at time.Time) domain.EmotionLogEntry {
	return domain.EmotionLogEntry{
		SessionID:        res.SessionID,
		Message:          message,
		Emotions:         res.DetectedEmotions,
		ConfidenceScores: res.ConfidenceScores,
		SarcasmDetected:  res.SarcasmDetected,
		Timestamp:        domain.Timestamp{Time: at.UTC()},
	}
}
