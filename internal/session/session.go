// Package session owns the persisted bearer token of the local profile and
// broadcasts session lifecycle events (logged in, logged out, redirect to
// login) to interested observers such as the SSE endpoint.
//
// The token is never cached: every call to Token reads the Store, so a
// logout performed elsewhere (another process sharing the database file) is
// honoured by the next outbound request.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// EventKind identifies a session lifecycle event.
type EventKind string

const (
	EventLoggedIn  EventKind = "logged_in"
	EventLoggedOut EventKind = "logged_out"
	EventRedirect  EventKind = "redirect"
)

// Logout reasons carried by EventLoggedOut.
const (
	ReasonLogout      = "logout"
	ReasonAuthFailure = "auth_failure"
)

// Event is delivered to subscribers.
type Event struct {
	Kind     EventKind `json:"kind"`
	Reason   string    `json:"reason,omitempty"`
	Location string    `json:"location,omitempty"`
	At       time.Time `json:"at"`
}

// Store persists the single bearer token.
type Store interface {
	// Load returns the token, or "" when none is stored.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
	// DeleteIf removes the token only if it equals token.
	DeleteIf(ctx context.Context, token string) (bool, error)
}

// Option configures a Context.
type Option func(*Context)

// WithClock sets the clock used to stamp events.
func WithClock(c clockwork.Clock) Option { return func(s *Context) { s.clock = c } }

// WithLogger sets the component logger.
func WithLogger(l zerolog.Logger) Option { return func(s *Context) { s.log = l } }

// WithBuffer sets the per-subscriber channel capacity.
func WithBuffer(n int) Option {
	return func(s *Context) {
		if n > 0 {
			s.buffer = n
		}
	}
}

// Context is the explicit session object shared by the API client and the
// HTTP layer. It is safe for concurrent use.
type Context struct {
	store     Store
	loginPath string
	clock     clockwork.Clock
	log       zerolog.Logger
	buffer    int

	// mu serializes token writes made by this process.
	mu sync.Mutex

	subMu sync.RWMutex
	subs  map[uint64]chan Event
	next  uint64
}

// New returns a Context over store. loginPath is the location sent with
// redirect events.
func New(store Store, loginPath string, opts ...Option) *Context {
	s := &Context{
		store:     store,
		loginPath: loginPath,
		clock:     clockwork.NewRealClock(),
		log:       zerolog.Nop(),
		buffer:    16,
		subs:      make(map[uint64]chan Event),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// LoginURL is the login entry point sent with redirect events.
func (s *Context) LoginURL() string { return s.loginPath }

// Token reads the current token from the store. An empty string means the
// profile is logged out.
func (s *Context) Token(ctx context.Context) (string, error) {
	return s.store.Load(ctx)
}

// LoggedIn reports whether a token is stored.
func (s *Context) LoggedIn(ctx context.Context) (bool, error) {
	tok, err := s.store.Load(ctx)
	return tok != "", err
}

// SetToken stores token and publishes EventLoggedIn.
func (s *Context) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	err := s.store.Save(ctx, token)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.Publish(Event{Kind: EventLoggedIn})
	return nil
}

// Clear removes the token and publishes EventLoggedOut with ReasonLogout.
func (s *Context) Clear(ctx context.Context) error {
	s.mu.Lock()
	err := s.store.Delete(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.Publish(Event{Kind: EventLoggedOut, Reason: ReasonLogout})
	return nil
}

// ExpireIfCurrent clears the stored token if it is still token, publishing
// EventLoggedOut with ReasonAuthFailure. It reports whether this call
// cleared it; concurrent callers holding the same token see true once.
func (s *Context) ExpireIfCurrent(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	s.mu.Lock()
	cleared, err := s.store.DeleteIf(ctx, token)
	s.mu.Unlock()
	if err != nil {
		return false, err
	}
	if cleared {
		s.log.Info().Msg("session token expired by upstream")
		s.Publish(Event{Kind: EventLoggedOut, Reason: ReasonAuthFailure})
	}
	return cleared, nil
}

// RedirectToLogin publishes EventRedirect pointing at the login entry point.
func (s *Context) RedirectToLogin(ctx context.Context) {
	s.Publish(Event{Kind: EventRedirect, Location: s.loginPath})
}

// Subscribe registers an observer. The returned cancel func removes it and
// closes the channel; it is safe to call more than once.
func (s *Context) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, s.buffer)
	s.subMu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber without blocking. Subscribers
// whose buffer is full miss the event.
func (s *Context) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = s.clock.Now().UTC()
	}
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.log.Warn().Uint64("subscriber", id).Str("kind", string(ev.Kind)).Msg("session event dropped")
		}
	}
}

// Subscribers returns the number of registered observers.
func (s *Context) Subscribers() int {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return len(s.subs)
}
