package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pairmatch/compat-server-go/internal/config"
	"github.com/pairmatch/compat-server-go/internal/database"
	"github.com/pairmatch/compat-server-go/internal/handler"
	"github.com/pairmatch/compat-server-go/internal/jobs"
	"github.com/pairmatch/compat-server-go/internal/middleware"
	"github.com/pairmatch/compat-server-go/internal/redis"
	"github.com/pairmatch/compat-server-go/internal/repository"
	"github.com/pairmatch/compat-server-go/internal/scorer"
	"github.com/pairmatch/compat-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setLogLevel(cfg.LogLevel)

	var sessionRepo repository.SessionRepository
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
		if err := db.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		cancel()
		log.Info().Msg("database connected")

		sessionRepo = repository.NewPostgresSessionRepository(db)
	} else {
		log.Info().Msg("DATABASE_URL not set, using in-memory session store")
		sessionRepo = repository.NewMemorySessionRepository()
	}

	var rateLimit func(http.Handler) http.Handler
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")

		rateLimit = middleware.NewRedisRateLimitMiddleware(redisClient.Client, cfg.RateLimitPerMin).Handler
	} else {
		log.Info().Msg("REDIS_URL not set, using in-memory rate limiter")
		rateLimit = middleware.NewRateLimitMiddleware(cfg.RateLimitPerMin).Handler
	}

	resultService := service.NewResultService(sessionRepo, scorer.NewLocal(), service.DefaultResultPolicy())
	sessionService := service.NewSessionService(sessionRepo, cfg.SessionTTL())
	submissionService := service.NewSubmissionService(sessionRepo, resultService)
	statusService := service.NewStatusService(sessionRepo)

	sessionHandler := handler.NewSessionHandler(sessionService, statusService, resultService)
	answersHandler := handler.NewAnswersHandler(submissionService)
	questionsHandler := handler.NewQuestionsHandler()

	corsMiddleware := middleware.NewCORSMiddleware(cfg.CORSAllowedOrigin)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(corsMiddleware.Handler)
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit)
		r.Get("/questions", questionsHandler.List)
		r.Mount("/session", sessionHandler.Routes())
		r.Mount("/answers", answersHandler.Routes())
	})

	cleanupJob := jobs.NewCleanupJob(sessionRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// Let in-flight scoring computations land before exiting.
	resultService.Wait()

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
