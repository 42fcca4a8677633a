package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// TokenSource yields the bearer token for the next request. An empty token
// means the request is sent unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// sentToken records the token a request actually carried so a 401 can be
// matched against it (compare-and-clear).
type sentToken struct {
	value string
}

type sentTokenKey struct{}

func sentTokenFrom(ctx context.Context) *sentToken {
	st, _ := ctx.Value(sentTokenKey{}).(*sentToken)
	return st
}

type bearerTransport struct {
	base   http.RoundTripper
	tokens TokenSource
}

// RoundTrip reads the token exactly once and attaches it unless the caller
// already set an Authorization header.
func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is nil")
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.tokens == nil {
		return base.RoundTrip(req)
	}

	token, err := t.tokens.Token(req.Context())
	if err != nil {
		return nil, fmt.Errorf("read session token: %w", err)
	}
	if st := sentTokenFrom(req.Context()); st != nil {
		st.value = token
	}

	req2 := req.Clone(req.Context())
	if req2.Header == nil {
		req2.Header = make(http.Header)
	}
	if token != "" && strings.TrimSpace(req2.Header.Get("Authorization")) == "" {
		req2.Header.Set("Authorization", "Bearer "+token)
	}
	return base.RoundTrip(req2)
}

// NewBearerTransport wraps base so every request carries the current token.
func NewBearerTransport(base http.RoundTripper, tokens TokenSource) http.RoundTripper {
	return &bearerTransport{base: base, tokens: tokens}
}
