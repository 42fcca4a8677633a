// Package search ranks history messages against a free-text query.
//
// Scoring is Jaccard similarity between the query token set and each
// message's token set: score = |Q ∩ M| / |Q ∪ M|. Tokens are lower-cased
// and accent-folded, so "cafe" matches "Café". An Index is immutable after
// construction and safe for concurrent use.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultK is used when TopK is asked for k <= 0.
const DefaultK = 5

// Doc is one searchable message.
type Doc struct {
	Key       string
	SessionID string
	Text      string
}

// Result is a ranked message with its similarity score.
type Result struct {
	EntryKey  string  `json:"entry_key"`
	SessionID string  `json:"session_id"`
	Message   string  `json:"message"`
	Score     float64 `json:"score"`
}

type Option func(*config)

type config struct {
	stopwords map[string]struct{}
	maxDocs   int
}

// WithStopwords drops the given words from both messages and queries.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			if w = fold(strings.TrimSpace(w)); w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxDocs caps how many documents are indexed; the rest are ignored.
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// EnglishStopwords is a short list of function words that carry no signal
// for emotion messages.
var EnglishStopwords = []string{
	"a", "an", "and", "are", "at", "be", "but", "for", "i", "im", "in", "is",
	"it", "me", "my", "of", "on", "or", "so", "that", "the", "this", "to", "was",
}

type doc struct {
	Doc
	text   string
	tokens map[string]struct{}
}

type Index struct {
	cfg  config
	docs []doc
}

// NewIndex indexes docs. Blank messages and messages without any word
// token are skipped.
func NewIndex(docs []Doc, opts ...Option) *Index {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}
	idx := &Index{cfg: cfg, docs: make([]doc, 0, len(docs))}
	for _, d := range docs {
		t := strings.Join(strings.Fields(d.Text), " ")
		if t == "" {
			continue
		}
		toks := tokenize(t, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		idx.docs = append(idx.docs, doc{Doc: d, text: t, tokens: toks})
		if cfg.maxDocs > 0 && len(idx.docs) >= cfg.maxDocs {
			break
		}
	}
	return idx
}

// Len reports the number of indexed documents.
func (i *Index) Len() int { return len(i.docs) }

// TopK returns up to k best matches. Ties go to the shorter message, then
// to the smaller entry key, so results are deterministic.
func (i *Index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = DefaultK
	}
	qt := tokenize(q, i.cfg.stopwords)
	if len(qt) == 0 {
		return nil
	}

	type scored struct {
		d     *doc
		score float64
		runes int
	}
	buf := make([]scored, 0, min(k*4, len(i.docs)))
	for n := range i.docs {
		d := &i.docs[n]
		over := overlap(qt, d.tokens)
		if over == 0 {
			continue
		}
		union := len(qt) + len(d.tokens) - over
		buf = append(buf, scored{d: d, score: float64(over) / float64(union), runes: utf8.RuneCountInString(d.text)})
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if buf[a].runes != buf[b].runes {
			return buf[a].runes < buf[b].runes
		}
		return buf[a].d.Key < buf[b].d.Key
	})

	out := make([]Result, 0, min(k, len(buf)))
	for _, s := range buf[:min(k, len(buf))] {
		out = append(out, Result{EntryKey: s.d.Key, SessionID: s.d.SessionID, Message: s.d.text, Score: s.score})
	}
	return out
}

var wordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(fold(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

// fold lower-cases s and strips combining marks (é -> e).
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
