// Package domain defines the value types exchanged with the EmotionWise API
// and the persistence models kept in the local session database.
package domain

import "strings"

// EmotionLabel is one of the fixed emotion categories produced by the
// detector. The set is closed; anything outside AllLabels is invalid.
type EmotionLabel string

const (
	Admiration     EmotionLabel = "admiration"
	Amusement      EmotionLabel = "amusement"
	Anger          EmotionLabel = "anger"
	Annoyance      EmotionLabel = "annoyance"
	Approval       EmotionLabel = "approval"
	Caring         EmotionLabel = "caring"
	Confusion      EmotionLabel = "confusion"
	Curiosity      EmotionLabel = "curiosity"
	Desire         EmotionLabel = "desire"
	Disappointment EmotionLabel = "disappointment"
	Disapproval    EmotionLabel = "disapproval"
	Disgust        EmotionLabel = "disgust"
	Embarrassment  EmotionLabel = "embarrassment"
	Excitement     EmotionLabel = "excitement"
	Fear           EmotionLabel = "fear"
	Gratitude      EmotionLabel = "gratitude"
	Grief          EmotionLabel = "grief"
	Joy            EmotionLabel = "joy"
	Love           EmotionLabel = "love"
	Nervousness    EmotionLabel = "nervousness"
	Optimism       EmotionLabel = "optimism"
	Pride          EmotionLabel = "pride"
	Realization    EmotionLabel = "realization"
	Relief         EmotionLabel = "relief"
	Remorse        EmotionLabel = "remorse"
	Sadness        EmotionLabel = "sadness"
	Surprise       EmotionLabel = "surprise"
	Neutral        EmotionLabel = "neutral"
)

var allLabels = []EmotionLabel{
	Admiration, Amusement, Anger, Annoyance, Approval, Caring, Confusion,
	Curiosity, Desire, Disappointment, Disapproval, Disgust, Embarrassment,
	Excitement, Fear, Gratitude, Grief, Joy, Love, Nervousness, Optimism,
	Pride, Realization, Relief, Remorse, Sadness, Surprise, Neutral,
}

var labelSet = func() map[EmotionLabel]struct{} {
	m := make(map[EmotionLabel]struct{}, len(allLabels))
	for _, l := range allLabels {
		m[l] = struct{}{}
	}
	return m
}()

// AllLabels returns the labels in canonical order. The slice is a copy.
func AllLabels() []EmotionLabel {
	out := make([]EmotionLabel, len(allLabels))
	copy(out, allLabels)
	return out
}

// IsValid reports whether l belongs to the label set.
func (l EmotionLabel) IsValid() bool {
	_, ok := labelSet[l]
	return ok
}

// String implements fmt.Stringer.
func (l EmotionLabel) String() string { return string(l) }

// ParseLabel trims and lowercases s and reports whether the result is a
// known label.
func ParseLabel(s string) (EmotionLabel, bool) {
	l := EmotionLabel(strings.ToLower(strings.TrimSpace(s)))
	return l, l.IsValid()
}
