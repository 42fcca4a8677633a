// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, compression and rate limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/emotionwise-web/docs"
	"github.com/tbourn/emotionwise-web/internal/apiclient"
	"github.com/tbourn/emotionwise-web/internal/config"
	"github.com/tbourn/emotionwise-web/internal/http/handlers"
	"github.com/tbourn/emotionwise-web/internal/http/middleware"
	"github.com/tbourn/emotionwise-web/internal/repo"
	"github.com/tbourn/emotionwise-web/internal/services"
	"github.com/tbourn/emotionwise-web/internal/session"
	"github.com/tbourn/emotionwise-web/internal/viewmodel"
)

// Feedback submissions are throttled harder than the rest of the API: every
// accepted one lands in the upstream training set.
const (
	feedbackRate  = 10.0 / 60
	feedbackBurst = 10
	restoreWait   = 5 * time.Second
)

// Deps carries the long-lived collaborators built by main.
type Deps struct {
	DB       *gorm.DB
	Session  *session.Context
	Upstream *apiclient.Client
	Tracker  *viewmodel.VoteTracker
	Entries  *viewmodel.EntryIndex
	Clock    clockwork.Clock
	Log      zerolog.Logger
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the local API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry
//  2. RequestID
//  3. RedactingLogger (sole access log, masks credentials)
//  4. Recovery
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before the rate limiter so replays bypass it)
//  8. Rate limiter per IP
//  9. CORS, security headers and compression
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	base := cfg.APIBasePath
	if base == "/" {
		base = ""
	}
	eventsPath := base + "/events"

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-Auth-Token"},
		MaskParams:  []string{"confirm_password"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	feedbackRoute := base + "/feedback"
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
			Scope: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost && c.FullPath() == feedbackRoute {
					return services.FeedbackScope
				}
				return ""
			},
		},
		idempotencyLookup(d.DB),
	))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:        cfg.Security.EnableHSTS,
		HSTSMaxAge:        cfg.Security.HSTSMaxAge,
		NoStorePrefixes:   []string{base + "/auth", eventsPath},
		EnablePolicy:      true,
		CSP:               middleware.DefaultAPICSP,
		CSPExemptPrefixes: []string{"/swagger"},
	}))

	// The event stream must reach the browser unbuffered.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", eventsPath})))

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	h := handlers.New(buildServices(d, cfg))

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		auth := api.Group("/auth")
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/verify-email", h.VerifyEmail)
		auth.GET("/status", h.AuthStatus)
		auth.GET("/me", h.Me)

		api.GET("/events", h.Events)

		api.POST("/detect", h.Detect)
		api.GET("/labels", h.Labels)

		api.GET("/history/sessions/:id", h.SessionHistory)
		api.GET("/history/user", h.UserHistory)
		api.GET("/history/search", h.SearchHistory)

		api.POST("/votes", h.CastVote)
		api.GET("/votes/stats", h.VoteStats)
		api.GET("/votes/:entry", h.EntryVotes)

		fbLimit := middleware.NewRateLimiter(feedbackRate, feedbackBurst, middleware.KeyByIPAndRoute())
		api.POST("/feedback", fbLimit.Handler(), h.SubmitFeedback)
		api.GET("/feedback", h.ListFeedback)
	}
}

// buildServices assembles the service layer and reloads persisted vote state
// so entries voted on before a restart keep their outcome.
func buildServices(d Deps, cfg config.Config) handlers.Services {
	clock := d.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	votes := &services.VoteService{API: d.Upstream, DB: d.DB, Tracker: d.Tracker, Entries: d.Entries, Log: d.Log}
	if d.DB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), restoreWait)
		if err := votes.Restore(ctx); err != nil {
			d.Log.Warn().Err(err).Msg("restore vote state")
		}
		cancel()
	}

	return handlers.Services{
		Auth:      &services.AuthService{API: d.Upstream, Session: d.Session},
		Detection: &services.DetectionService{API: d.Upstream, DB: d.DB, Tracker: d.Tracker, Entries: d.Entries, Clock: clock, Log: d.Log},
		History:   &services.HistoryService{API: d.Upstream, Tracker: d.Tracker, Entries: d.Entries},
		Votes:     votes,
		Feedback:  &services.FeedbackService{API: d.Upstream, DB: d.DB, IdempotencyTTL: cfg.IdempotencyTTL, Log: d.Log},
		Events:    d.Session,
		LoginURL:  d.Session.LoginURL(),
	}
}

// idempotencyLookup reports a replay when an unexpired, completed record
// exists for the scope and key. Reservations still in flight and missing
// records are plain misses.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, scope, key string, now time.Time) (bool, error) {
		if db == nil {
			return false, nil
		}
		rec, err := repo.GetIdempotency(ctx, db, scope, key, now)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return false, nil
		case err != nil:
			return false, err
		}
		return rec != nil && rec.ResourceID != "", nil
	}
}

// corsMiddleware allows every origin when none are configured, otherwise
// echoes allowlisted origins back.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	methods := []string{"GET", "POST", "OPTIONS"}
	headers := []string{"Origin", "Content-Type", "Accept", middleware.HeaderIdempotencyKey}
	expose := []string{"X-Request-ID", "Content-Length", "ETag", middleware.HeaderIdempotencyReplayed}

	if len(origins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     methods,
				AllowHeaders:     headers,
				ExposeHeaders:    expose,
				AllowCredentials: false,
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     methods,
			AllowHeaders:     headers,
			ExposeHeaders:    expose,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
	}
}

// limitBody caps the request body size to maxBytes using
// http.MaxBytesReader. Oversized bodies make downstream reads fail.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
