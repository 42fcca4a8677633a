// Package viewmodel turns API results into render-ready structures: history
// grouped by session, table rows, the detection view and the per-emotion vote
// state machine.
package viewmodel

import (
	"fmt"
	"strconv"

	"github.com/tbourn/emotionwise-web/internal/domain"
)

// SessionGroup is one session and its entries in input order.
type SessionGroup struct {
	SessionID string                   `json:"session_id"`
	Entries   []domain.EmotionLogEntry `json:"entries"`
}

// SessionGroups is an ordered mapping from session id to entries. Groups
// appear in the order their session id was first seen.
type SessionGroups struct {
	order  []string
	groups map[string][]domain.EmotionLogEntry
}

// GroupBySession partitions entries by session id. Every entry lands in
// exactly one group; empty input gives an empty mapping.
func GroupBySession(entries []domain.EmotionLogEntry) *SessionGroups {
	g := &SessionGroups{groups: make(map[string][]domain.EmotionLogEntry)}
	for _, e := range entries {
		if _, seen := g.groups[e.SessionID]; !seen {
			g.order = append(g.order, e.SessionID)
		}
		g.groups[e.SessionID] = append(g.groups[e.SessionID], e)
	}
	return g
}

// Len is the number of groups.
func (g *SessionGroups) Len() int { return len(g.order) }

// Size is the total number of entries across groups.
func (g *SessionGroups) Size() int {
	n := 0
	for _, es := range g.groups {
		n += len(es)
	}
	return n
}

func (g *SessionGroups) Empty() bool { return len(g.order) == 0 }

// SessionIDs returns the group keys in first-appearance order.
func (g *SessionGroups) SessionIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Entries returns the entries of one session, or nil if unknown.
func (g *SessionGroups) Entries(sessionID string) []domain.EmotionLogEntry {
	return g.groups[sessionID]
}

// Groups returns the groups in order.
func (g *SessionGroups) Groups() []SessionGroup {
	out := make([]SessionGroup, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, SessionGroup{SessionID: id, Entries: g.groups[id]})
	}
	return out
}

// Find looks up an entry by its key.
func (g *SessionGroups) Find(key string) (domain.EmotionLogEntry, bool) {
	for _, id := range g.order {
		es := g.groups[id]
		for i, k := range EntryKeys(es) {
			if k == key {
				return es[i], true
			}
		}
	}
	return domain.EmotionLogEntry{}, false
}

// EntryKeyOf identifies a log entry on the client: "<session_id>@<unix-nanos>".
// Entries of one session with the same (or no) timestamp share this key; use
// EntryKeys to tell them apart within a list.
func EntryKeyOf(e domain.EmotionLogEntry) string {
	if e.Timestamp.IsZero() {
		return e.SessionID + "@0"
	}
	return fmt.Sprintf("%s@%d", e.SessionID, e.Timestamp.UnixNano())
}

// EntryKeys returns the key of every entry in input order. The n-th entry
// (n >= 2) sharing a key with earlier ones gets "#n" appended, so keys within
// the list are distinct. Ties only happen inside one session, so keys of a
// session group match the keys of the full list it came from.
func EntryKeys(entries []domain.EmotionLogEntry) []string {
	keys := make([]string, len(entries))
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		base := EntryKeyOf(e)
		seen[base]++
		keys[i] = base
		if n := seen[base]; n > 1 {
			keys[i] = base + "#" + strconv.Itoa(n)
		}
	}
	return keys
}
