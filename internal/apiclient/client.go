// Package apiclient is the HTTP client for the EmotionWise API. Every request
// carries the current bearer token, and a 401 on an authenticated call clears
// the session (compare-and-clear on the token that was sent) and asks the
// session to redirect to login. Recovery runs at most once per failure and
// never for login, register or verify-email.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/emotionwise-web/internal/config"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// Session is the part of the session context the client depends on.
type Session interface {
	TokenSource
	// ExpireIfCurrent clears the stored token only if it still equals token.
	ExpireIfCurrent(ctx context.Context, token string) (bool, error)
	RedirectToLogin(ctx context.Context)
}

// Option configures a Client.
type Option func(*Client)

// WithTransport sets the base transport below the bearer layer.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

// WithLogger sets the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client talks to the EmotionWise API. It is safe for concurrent use.
type Client struct {
	baseURL     string
	apiPrefix   string
	toolsPrefix string

	base    http.RoundTripper
	http    *http.Client
	session Session
	cb      *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// New builds a Client for cfg. sess may be nil, in which case requests are
// sent without a token and 401s are returned without recovery.
func New(cfg config.UpstreamConfig, sess Session, opts ...Option) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiPrefix:   cfg.APIPrefix,
		toolsPrefix: cfg.ToolsPrefix,
		session:     sess,
		log:         log.With().Str("component", "apiclient").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	var tokens TokenSource
	if sess != nil {
		tokens = sess
	}
	c.http = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: NewBearerTransport(c.base, tokens),
	}

	maxFailures := cfg.BreakerMaxFailures
	if maxFailures < 1 {
		maxFailures = 5
	}
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "emotionwise-upstream",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		// A caller giving up is not an upstream failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			breakerState.Set(float64(to))
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("upstream breaker state change")
		},
	})
	return c
}

type attemptKey struct{}

// Attempt reports how many auth recoveries are in progress on ctx. Session
// hooks that call back into the client see a value above zero, which
// suppresses a second recovery.
func Attempt(ctx context.Context) int {
	n, _ := ctx.Value(attemptKey{}).(int)
	return n
}

func withAttempt(ctx context.Context) context.Context {
	return context.WithValue(ctx, attemptKey{}, Attempt(ctx)+1)
}

// call describes one API request.
type call struct {
	op     string // metric and span label
	method string
	path   string
	query  url.Values
	body   any
	form   url.Values

	// public calls are exempt from 401 recovery.
	public bool
	// conflictOn400 maps a 400 to ConflictError.
	conflictOn400 bool
}

type response struct {
	status int
	body   []byte
}

func (c *Client) apiPath(p string) string   { return c.apiPrefix + p }
func (c *Client) toolsPath(p string) string { return c.toolsPrefix + p }

// Do sends an authenticated JSON request to path (relative to the base URL)
// and decodes the reply into out when out is non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	return c.send(ctx, call{op: "custom", method: method, path: path, body: body}, out)
}

func (c *Client) send(ctx context.Context, cl call, out any) (err error) {
	ctx, span := otel.Tracer("apiclient").Start(ctx, cl.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", cl.method),
			attribute.String("url.path", cl.path),
		))
	defer span.End()

	start := time.Now()
	outcome := outcomeOK
	defer func() {
		upstreamReqs.WithLabelValues(cl.op, outcome).Inc()
		upstreamLat.WithLabelValues(cl.op).Observe(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
	}()

	st := &sentToken{}
	req, err := c.newRequest(context.WithValue(ctx, sentTokenKey{}, st), cl)
	if err != nil {
		outcome = outcomeClientError
		return fmt.Errorf("apiclient: %s: build request: %w", cl.op, err)
	}

	raw, err := c.cb.Execute(func() (interface{}, error) {
		return c.roundTrip(req)
	})
	if err != nil {
		var se *ServerError
		switch {
		case errors.As(err, &se):
			outcome = outcomeServerError
			c.log.Warn().Str("op", cl.op).Int("status", se.Status).Msg("upstream server error")
			return se
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			outcome = outcomeBreakerOpen
		default:
			outcome = outcomeNetwork
		}
		c.log.Warn().Err(err).Str("op", cl.op).Msg("upstream request failed")
		return &NetworkError{Op: cl.op, Err: err}
	}

	rsp := raw.(*response)
	span.SetAttributes(attribute.Int("http.response.status_code", rsp.status))
	c.log.Debug().Str("op", cl.op).Int("status", rsp.status).Dur("latency", time.Since(start)).Msg("upstream call")

	switch {
	case rsp.status >= 200 && rsp.status < 300:
		if out == nil || len(bytes.TrimSpace(rsp.body)) == 0 {
			return nil
		}
		if derr := json.Unmarshal(rsp.body, out); derr != nil {
			outcome = outcomeDecode
			c.log.Warn().Err(derr).Str("op", cl.op).Msg("undecodable upstream response")
			return &ServerError{Status: rsp.status, Message: "The server sent an unreadable response."}
		}
		return nil

	case rsp.status == http.StatusUnauthorized:
		outcome = outcomeAuth
		if cl.public {
			msg := serverMessage(rsp.body)
			if msg == "" {
				msg = "Incorrect email or password."
			}
			return &AuthError{Message: msg}
		}
		ae := &AuthError{Message: msgSessionExpired}
		if Attempt(ctx) == 0 {
			ae.Recovered = c.recoverAuth(ctx, st.value)
		}
		return ae

	case rsp.status == http.StatusBadRequest && cl.conflictOn400:
		outcome = outcomeClientError
		return &ConflictError{Message: msgAccountExists}

	default:
		outcome = outcomeClientError
		return &ServerError{Status: rsp.status, Message: messageFor(rsp.status, rsp.body)}
	}
}

// recoverAuth clears the session if it still holds the token that failed,
// then redirects to login. A request that carried no token has nothing to
// clear but still redirects. It reports whether a redirect was issued.
func (c *Client) recoverAuth(ctx context.Context, token string) bool {
	if c.session == nil {
		return false
	}
	// The triggering request may have been cancelled; clearing must not be.
	rctx := withAttempt(context.WithoutCancel(ctx))
	if token != "" {
		cleared, err := c.session.ExpireIfCurrent(rctx, token)
		if err != nil {
			c.log.Error().Err(err).Msg("failed to clear expired session")
			return false
		}
		if !cleared {
			return false
		}
	}
	authRecoveries.Inc()
	c.log.Info().Msg("session expired, redirecting to login")
	c.session.RedirectToLogin(rctx)
	return true
}

func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var (
		body  io.Reader
		ctype string
	)
	switch {
	case cl.form != nil:
		body = strings.NewReader(cl.form.Encode())
		ctype = "application/x-www-form-urlencoded"
	case cl.body != nil:
		b, err := json.Marshal(cl.body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
		ctype = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return req, nil
}

// roundTrip performs the request. 5xx replies are returned as errors so the
// breaker counts them.
func (c *Client) roundTrip(req *http.Request) (*response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 500 {
		return nil, &ServerError{Status: resp.StatusCode, Message: messageFor(resp.StatusCode, body)}
	}
	return &response{status: resp.StatusCode, body: body}, nil
}
