package viewmodel

import (
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/tbourn/emotionwise-web/internal/domain"
)

// VoteState is the lifecycle of one (entry, label) vote.
type VoteState string

const (
	VoteUnvoted  VoteState = "unvoted"
	VotePending  VoteState = "pending"
	VoteAccepted VoteState = "accepted"
	VoteFailed   VoteState = "failed"
)

// Terminal reports whether s is accepted or failed.
func (s VoteState) Terminal() bool { return s == VoteAccepted || s == VoteFailed }

// Vote is a snapshot of one pair.
type Vote struct {
	EntryKey  string              `json:"entry_key"`
	Label     domain.EmotionLabel `json:"label"`
	State     VoteState           `json:"state"`
	UpdatedAt time.Time           `json:"updated_at,omitempty"`
}

type voteKey struct {
	entry string
	label domain.EmotionLabel
}

type voteSlot struct {
	state   VoteState
	updated time.Time
}

// VoteScore converts a display percentage to the wire score in [0,1].
func VoteScore(percent float64) float64 {
	s := percent / 100
	return math.Max(0, math.Min(1, s))
}

// TrackerOption configures a VoteTracker.
type TrackerOption func(*VoteTracker)

// WithTrackerClock sets the clock used for UpdatedAt stamps.
func WithTrackerClock(c clockwork.Clock) TrackerOption {
	return func(t *VoteTracker) { t.clock = c }
}

// VoteTracker owns the vote state of every (entry, label) pair and the
// feedback id each entry is bound to. Pairs are independent: a transition on
// one never touches another. Safe for concurrent use.
type VoteTracker struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	bindings map[string]int64
	votes    map[voteKey]voteSlot
}

func NewVoteTracker(opts ...TrackerOption) *VoteTracker {
	t := &VoteTracker{
		clock:    clockwork.NewRealClock(),
		bindings: make(map[string]int64),
		votes:    make(map[voteKey]voteSlot),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Bind attaches a feedback id to an entry. The first binding wins; it
// reports whether this call set it.
func (t *VoteTracker) Bind(entryKey string, feedbackID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.bindings[entryKey]; ok {
		return false
	}
	t.bindings[entryKey] = feedbackID
	return true
}

// FeedbackID returns the id bound to entryKey.
func (t *VoteTracker) FeedbackID(entryKey string) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.bindings[entryKey]
	return id, ok
}

// BeginVote moves a pair from unvoted or failed to pending and returns the
// feedback id to vote against. Any other state is rejected unchanged.
func (t *VoteTracker) BeginVote(entryKey string, label domain.EmotionLabel) (int64, error) {
	if !label.IsValid() {
		return 0, ErrInvalidLabel
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	id, ok := t.bindings[entryKey]
	if !ok {
		return 0, ErrVotingUnavailable
	}
	k := voteKey{entryKey, label}
	switch t.stateLocked(k) {
	case VotePending:
		return 0, ErrVoteInProgress
	case VoteAccepted:
		return 0, ErrAlreadyAccepted
	}
	t.votes[k] = voteSlot{state: VotePending, updated: t.clock.Now().UTC()}
	return id, nil
}

// ResolveVote finishes a pending vote. Resolving a pair that is already
// terminal is a no-op.
func (t *VoteTracker) ResolveVote(entryKey string, label domain.EmotionLabel, outcome VoteState) error {
	if !outcome.Terminal() {
		return ErrInvalidOutcome
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	k := voteKey{entryKey, label}
	switch t.stateLocked(k) {
	case VotePending:
		t.votes[k] = voteSlot{state: outcome, updated: t.clock.Now().UTC()}
		return nil
	case VoteAccepted, VoteFailed:
		return nil
	default:
		return ErrNoPendingVote
	}
}

// State returns the state of one pair.
func (t *VoteTracker) State(entryKey string, label domain.EmotionLabel) VoteState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked(voteKey{entryKey, label})
}

func (t *VoteTracker) stateLocked(k voteKey) VoteState {
	if s, ok := t.votes[k]; ok {
		return s.state
	}
	return VoteUnvoted
}

// Snapshot returns the given labels' votes for an entry in label order.
func (t *VoteTracker) Snapshot(entryKey string, labels []domain.EmotionLabel) []Vote {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Vote, 0, len(labels))
	for _, l := range labels {
		s := t.votes[voteKey{entryKey, l}]
		v := Vote{EntryKey: entryKey, Label: l, State: VoteUnvoted}
		if s.state != "" {
			v.State = s.state
			v.UpdatedAt = s.updated
		}
		out = append(out, v)
	}
	return out
}

// Votes returns every non-unvoted pair recorded for an entry.
func (t *VoteTracker) Votes(entryKey string) []Vote {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Vote
	for _, l := range domain.AllLabels() {
		if s, ok := t.votes[voteKey{entryKey, l}]; ok {
			out = append(out, Vote{EntryKey: entryKey, Label: l, State: s.state, UpdatedAt: s.updated})
		}
	}
	return out
}

// Restore loads persisted bindings and terminal votes. Only accepted and
// failed outcomes are persisted, so a vote pending at shutdown comes back
// as unvoted.
func (t *VoteTracker) Restore(bindings []domain.EntryBinding, records []domain.VoteRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, b := range bindings {
		if _, ok := t.bindings[b.EntryKey]; !ok {
			t.bindings[b.EntryKey] = b.FeedbackID
		}
	}
	for _, r := range records {
		st := VoteState(r.State)
		if !st.Terminal() {
			continue
		}
		t.votes[voteKey{r.EntryKey, domain.EmotionLabel(r.Label)}] = voteSlot{state: st, updated: r.UpdatedAt.UTC()}
	}
}
