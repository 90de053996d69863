package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/blog-api/internal/api"
	"github.com/isdelr/blog-api/internal/auth"
	"github.com/isdelr/blog-api/internal/config"
	"github.com/isdelr/blog-api/internal/database"
	"github.com/isdelr/blog-api/internal/logger"
	"github.com/isdelr/blog-api/internal/metrics"
	"github.com/isdelr/blog-api/internal/monitoring"
	"github.com/isdelr/blog-api/internal/ratelimit"
	"github.com/isdelr/blog-api/internal/services"
	"github.com/isdelr/blog-api/internal/storage"
	"github.com/isdelr/blog-api/internal/storage/postgres"
	"github.com/isdelr/blog-api/internal/storage/sqlite"
	"github.com/isdelr/blog-api/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, !cfg.IsProduction())
	if cfg.JWTSecretGenerated {
		log.Warn().Msg("JWT_SECRET_KEY is not set; using a random signing key. Tokens will not survive a restart")
	}

	ctx := context.Background()
	shutdownTracing, err := telemetry.Init(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.AppEnv)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tracing")
	}

	// Set up database
	store, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("Failed to initialize database")
	}
	defer store.Close()

	// Set up services
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	eventService := services.NewEventService(store)

	deps := api.Deps{
		Users:          services.NewUserService(store, hasher, eventService),
		Posts:          services.NewPostService(store, eventService),
		Comments:       services.NewCommentService(store, eventService),
		Tags:           services.NewTagService(store, eventService),
		Events:         eventService,
		Health:         store,
		Tokens:         tokens,
		Metrics:        metrics.New(),
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		deps.Limiter = ratelimit.New(rdb, cfg.LoginRateLimit, cfg.LoginRateWindow)
		log.Info().Str("addr", cfg.RedisAddr).Int("limit", cfg.LoginRateLimit).Msg("Login rate limiting enabled")
	}

	// Set up and run the background scheduler
	if cfg.EventRetention > 0 {
		scheduler, err := monitoring.NewScheduler(eventService, cfg.EventPruneSchedule, cfg.EventRetention)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize scheduler")
		}
		go scheduler.Run()
		defer scheduler.Stop()
	}

	// Set up router
	router := api.NewRouter(deps)

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           otelhttp.NewHandler(router, "http.server"),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("driver", cfg.StorageDriver).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Failed to flush traces")
	}

	log.Info().Msg("Server exiting")
}

// openStore connects to the configured backend and applies its schema.
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case "postgres":
		db, err := database.OpenPostgres(cfg.DatabaseURL, cfg.DatabaseReplicaURLs)
		if err != nil {
			return nil, err
		}
		if err := database.MigratePostgres(db); err != nil {
			return nil, err
		}
		return postgres.New(db), nil
	default:
		db, err := database.New(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply database migrations: %w", err)
		}
		return sqlite.New(db), nil
	}
}
