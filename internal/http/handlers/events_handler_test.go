package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/emotionwise-web/internal/session"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestEvents_StreamsSessionEventsUntilClientLeaves(t *testing.T) {
	sess := newSession()
	h := New(Services{Auth: &stubAuth{loggedIn: true}, Events: sess, Heartbeat: 5 * time.Millisecond})
	r := newTestRouter(h)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, req)
		close(done)
	}()

	waitFor(t, func() bool { return sess.Subscribers() == 1 })
	sess.Publish(session.Event{Kind: session.EventLoggedOut, Reason: session.ReasonAuthFailure})
	sess.RedirectToLogin(context.Background())
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after the client left")
	}
	if n := sess.Subscribers(); n != 0 {
		t.Fatalf("subscriber leaked: %d", n)
	}

	body := w.Body.String()
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type = %q", ct)
	}
	for _, want := range []string{
		"event:status", `"logged_in":true`,
		"event:logged_out", `"reason":"auth_failure"`,
		"event:redirect", `"location":"/login"`,
		"event:ping",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in stream:\n%s", want, body)
		}
	}
	if strings.Index(body, "event:status") > strings.Index(body, "event:logged_out") {
		t.Fatalf("status must be the first event:\n%s", body)
	}
}
