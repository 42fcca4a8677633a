// Command emotionwise runs the local backend of the EmotionWise web client.
//
// @title       EmotionWise Web API
// @version     1.0
// @description Local backend for the EmotionWise web client: authentication, emotion detection, history, per-emotion voting and feedback.
// @BasePath    /api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/emotionwise-web/internal/apiclient"
	"github.com/tbourn/emotionwise-web/internal/config"
	httpapi "github.com/tbourn/emotionwise-web/internal/http"
	"github.com/tbourn/emotionwise-web/internal/observability"
	"github.com/tbourn/emotionwise-web/internal/repo"
	"github.com/tbourn/emotionwise-web/internal/session"
	"github.com/tbourn/emotionwise-web/internal/sysutil"
	"github.com/tbourn/emotionwise-web/internal/viewmodel"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func setupConfig() config.Config {
	// A missing .env is fine; the environment wins anyway.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	return cfg
}

func setupDB(cfg config.Config) *gorm.DB {
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open session database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate session database")
	}
	return db
}

func runGracefulShutdown(srv *http.Server, flush observability.ShutdownFunc, logger zerolog.Logger) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info().Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}

		otelCtx, otelCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer otelCancel()
		if err := flush(otelCtx); err != nil {
			logger.Error().Err(err).Msg("flush traces")
		}

		close(done)
	}()

	return done
}

func main() {
	cfg := setupConfig()

	logger := sysutil.SetupLogger(os.Stdout, cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)
	logger.Info().Str("version", version).Str("upstream", cfg.Upstream.BaseURL).Str("port", cfg.Port).Msg("starting")

	flush, err := observability.SetupOTel(context.Background(), cfg.OTEL, cfg.Upstream.BaseURL, version)
	if err != nil {
		logger.Fatal().Err(err).Msg("set up tracing")
	}

	db := setupDB(cfg)
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}

	clock := clockwork.NewRealClock()
	sess := session.New(session.DBStore{DB: db}, cfg.LoginPath,
		session.WithClock(clock),
		session.WithLogger(logger.With().Str("component", "session").Logger()))
	upstream := apiclient.New(cfg.Upstream, sess,
		apiclient.WithLogger(logger.With().Str("component", "apiclient").Logger()))

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:       db,
		Session:  sess,
		Upstream: upstream,
		Tracker:  viewmodel.NewVoteTracker(viewmodel.WithTrackerClock(clock)),
		Entries:  viewmodel.NewEntryIndex(),
		Clock:    clock,
		Log:      logger,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	done := runGracefulShutdown(srv, flush, logger)

	logger.Info().Str("addr", srv.Addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server error")
	}

	<-done
	logger.Info().Msg("stopped")
}
