package viewmodel

import (
	"sync"

	"github.com/tbourn/emotionwise-web/internal/domain"
)

// EntryIndex remembers the entries the user has seen (fresh detections and
// loaded history) by entry key, so votes can find their confidence scores.
type EntryIndex struct {
	mu sync.RWMutex
	m  map[string]domain.EmotionLogEntry
}

func NewEntryIndex() *EntryIndex {
	return &EntryIndex{m: make(map[string]domain.EmotionLogEntry)}
}

// Put stores e and returns its key. A later Put for the same key overwrites.
func (x *EntryIndex) Put(e domain.EmotionLogEntry) string {
	key := EntryKeyOf(e)
	x.mu.Lock()
	x.m[key] = e
	x.mu.Unlock()
	return key
}

// PutAll stores every entry under the keys EntryKeys gives them.
func (x *EntryIndex) PutAll(entries []domain.EmotionLogEntry) {
	keys := EntryKeys(entries)
	x.mu.Lock()
	defer x.mu.Unlock()
	for i, e := range entries {
		x.m[keys[i]] = e
	}
}

func (x *EntryIndex) Get(key string) (domain.EmotionLogEntry, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	e, ok := x.m[key]
	return e, ok
}

func (x *EntryIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.m)
}

// Snapshot returns a copy of every remembered entry by key.
func (x *EntryIndex) Snapshot() map[string]domain.EmotionLogEntry {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make(map[string]domain.EmotionLogEntry, len(x.m))
	for k, e := range x.m {
		out[k] = e
	}
	return out
}
