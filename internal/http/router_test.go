package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/emotionwise-web/internal/apiclient"
	"github.com/tbourn/emotionwise-web/internal/config"
	"github.com/tbourn/emotionwise-web/internal/domain"
	"github.com/tbourn/emotionwise-web/internal/http/middleware"
	"github.com/tbourn/emotionwise-web/internal/repo"
	"github.com/tbourn/emotionwise-web/internal/services"
	"github.com/tbourn/emotionwise-web/internal/session"
	"github.com/tbourn/emotionwise-web/internal/viewmodel"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite("file:router-" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func baseConfig() config.Config {
	return config.Config{
		APIBasePath: "/api",
		RateRPS:     100,
		RateBurst:   50,
		LoginPath:   "/login",
		Upstream: config.UpstreamConfig{
			APIPrefix: "/api/v1",
			Timeout:   2 * time.Second,
		},
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
		IdempotencyTTL: time.Hour,
	}
}

// newServer registers every route against db and an upstream served by
// upstream (nil means no upstream calls are expected).
func newServer(t *testing.T, cfg config.Config, db *gorm.DB, token string, upstream http.Handler) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if upstream != nil {
		srv := httptest.NewServer(upstream)
		t.Cleanup(srv.Close)
		cfg.Upstream.BaseURL = srv.URL
	}
	sess := session.New(session.NewMemoryStore(token), cfg.LoginPath)

	r := gin.New()
	RegisterRoutes(r, Deps{
		DB:       db,
		Session:  sess,
		Upstream: apiclient.New(cfg.Upstream, sess),
		Tracker:  viewmodel.NewVoteTracker(),
		Entries:  viewmodel.NewEntryIndex(),
		Log:      zerolog.Nop(),
	}, cfg)
	return r
}

func serve(r *gin.Engine, method, path, body string, hdr ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r := newServer(t, baseConfig(), newTestDB(t), "", nil)

	w := serve(r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}
	if got := w.Header().Get("Content-Security-Policy"); got != middleware.DefaultAPICSP {
		t.Fatalf("CSP = %q", got)
	}

	w = serve(r, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "emotionwise_http_") {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	if w = serve(r, http.MethodGet, "/nope", ""); w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}
	if w = serve(r, http.MethodPost, "/health", ""); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := baseConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}}
	r := newServer(t, cfg, newTestDB(t), "", nil)

	w := serve(r, http.MethodGet, "/health", "", "Origin", "http://localhost:3000")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}

	w = serve(r, http.MethodGet, "/health", "", "Origin", "http://evil.test")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unlisted origin must not be echoed, got %q", got)
	}
}

func TestRegisterRoutes_Labels_EndToEnd(t *testing.T) {
	r := newServer(t, baseConfig(), newTestDB(t), "", nil)

	w := serve(r, http.MethodGet, "/api/labels", "", "Accept-Encoding", "gzip")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/labels = %d", w.Code)
	}
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip response, headers=%v", w.Header())
	}
	if w.Header().Get("ETag") == "" {
		t.Fatal("missing ETag")
	}
}

func TestRegisterRoutes_AuthRoutesAreNoStore(t *testing.T) {
	r := newServer(t, baseConfig(), newTestDB(t), "", nil)

	w := serve(r, http.MethodGet, "/api/auth/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/auth/status = %d body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("auth responses must not be cached: %v", w.Header())
	}
	var st services.AuthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.LoggedIn || st.LoginURL != "/login" {
		t.Fatalf("status = %+v", st)
	}

	if w = serve(r, http.MethodGet, "/api/labels", ""); w.Header().Get("Cache-Control") == "no-store" {
		t.Fatal("only auth routes are no-store")
	}
}

func TestRegisterRoutes_MeForwardsToken(t *testing.T) {
	var auth string
	upstream := http.NewServeMux()
	upstream.HandleFunc("/api/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u1","name":"Ada","email":"ada@example.com","is_active":true}`))
	})
	r := newServer(t, baseConfig(), newTestDB(t), "tok-1", upstream)

	w := serve(r, http.MethodGet, "/api/auth/me", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/auth/me = %d body=%s", w.Code, w.Body.String())
	}
	if auth != "Bearer tok-1" {
		t.Fatalf("Authorization = %q", auth)
	}
	var u domain.User
	if err := json.Unmarshal(w.Body.Bytes(), &u); err != nil || u.Name != "Ada" {
		t.Fatalf("user = %+v err=%v", u, err)
	}
}

func TestRegisterRoutes_FeedbackReplayFromStore(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	if err := db.Create(&domain.Idempotency{
		ID:         uuid.NewString(),
		Scope:      services.FeedbackScope,
		Key:        "k-1",
		ResourceID: "42",
		Status:     http.StatusOK,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
	}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	r := newServer(t, baseConfig(), db, "tok", nil)

	body := `{"text":"I love this!","predicted_emotions":["love"],"suggested_emotions":["joy"]}`
	w := serve(r, http.MethodPost, "/api/feedback", body, middleware.HeaderIdempotencyKey, "k-1")
	if w.Code != http.StatusOK || w.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("replay: %d %v %s", w.Code, w.Header(), w.Body.String())
	}
	var rc domain.FeedbackReceipt
	if err := json.Unmarshal(w.Body.Bytes(), &rc); err != nil || rc.ID != 42 {
		t.Fatalf("receipt = %+v err=%v", rc, err)
	}

	w = serve(r, http.MethodPost, "/api/feedback", body, middleware.HeaderIdempotencyKey, "bad key!")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("malformed key: %d", w.Code)
	}
}

func TestIdempotencyLookup(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	if err := db.Create(&domain.Idempotency{
		ID: uuid.NewString(), Scope: services.FeedbackScope, Key: "live",
		ResourceID: "1", Status: 200, CreatedAt: now, ExpiresAt: now.Add(time.Minute),
	}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	lookup := idempotencyLookup(db)
	ctx := context.Background()

	if ok, err := lookup(ctx, services.FeedbackScope, "live", now); !ok || err != nil {
		t.Fatalf("hit: ok=%v err=%v", ok, err)
	}
	if ok, err := lookup(ctx, services.FeedbackScope, "missing", now); ok || err != nil {
		t.Fatalf("miss must not be an error: ok=%v err=%v", ok, err)
	}
	if ok, _ := lookup(ctx, services.FeedbackScope, "live", now.Add(2*time.Minute)); ok {
		t.Fatal("expired record must be a miss")
	}
	if err := db.Create(&domain.Idempotency{
		ID: uuid.NewString(), Scope: services.FeedbackScope, Key: "pending",
		CreatedAt: now, ExpiresAt: now.Add(time.Minute),
	}).Error; err != nil {
		t.Fatalf("seed pending: %v", err)
	}
	if ok, err := lookup(ctx, services.FeedbackScope, "pending", now); ok || err != nil {
		t.Fatalf("reservation in flight must be a miss: ok=%v err=%v", ok, err)
	}
	if ok, err := idempotencyLookup(nil)(ctx, services.FeedbackScope, "live", now); ok || err != nil {
		t.Fatalf("nil db: ok=%v err=%v", ok, err)
	}

	sqlDB, _ := db.DB()
	_ = sqlDB.Close()
	if _, err := lookup(ctx, services.FeedbackScope, "live", now); err == nil {
		t.Fatal("closed db must surface an error")
	}
}

func TestRegisterRoutes_FeedbackRouteLimiter(t *testing.T) {
	r := newServer(t, baseConfig(), newTestDB(t), "", nil)

	// Malformed bodies are rejected by the handler but still spend tokens.
	for i := 0; i < feedbackBurst; i++ {
		if w := serve(r, http.MethodPost, "/api/feedback", "{"); w.Code != http.StatusBadRequest {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
	w := serve(r, http.MethodPost, "/api/feedback", "{")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}

	if w = serve(r, http.MethodGet, "/api/labels", ""); w.Code != http.StatusOK {
		t.Fatalf("other routes keep their own budget: %d", w.Code)
	}
}

func TestRegisterRoutes_SwaggerToggle(t *testing.T) {
	r := newServer(t, baseConfig(), newTestDB(t), "", nil)
	if w := serve(r, http.MethodGet, "/swagger/doc.json", ""); w.Code != http.StatusNotFound {
		t.Fatalf("swagger disabled: %d", w.Code)
	}

	cfg := baseConfig()
	cfg.SwaggerEnabled = true
	r = newServer(t, cfg, newTestDB(t), "", nil)
	w := serve(r, http.MethodGet, "/swagger/doc.json", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"/detect"`) {
		t.Fatalf("swagger enabled: %d", w.Code)
	}
	if w.Header().Get("Content-Security-Policy") != "" {
		t.Fatal("swagger UI is exempt from CSP")
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// "/" and "" should mount at root
	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}
