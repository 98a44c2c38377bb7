package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/thiagodifaria/MoodAPI/internal/analytics"
	"github.com/thiagodifaria/MoodAPI/internal/cache"
	"github.com/thiagodifaria/MoodAPI/internal/classify"
	"github.com/thiagodifaria/MoodAPI/internal/config"
	"github.com/thiagodifaria/MoodAPI/internal/database"
	"github.com/thiagodifaria/MoodAPI/internal/logging"
	"github.com/thiagodifaria/MoodAPI/internal/ratelimit"
	"github.com/thiagodifaria/MoodAPI/internal/redis"
	"github.com/thiagodifaria/MoodAPI/internal/sentiment"
	"github.com/thiagodifaria/MoodAPI/internal/server"
)

func setupConfig() *config.Config {
	// Local development reads a .env file; in production the variables
	// come from the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config) *redis.Client {
	client, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(cfg)
	defer func() { _ = redisClient.Close() }()

	resultCache := cache.New(redisClient.Underlying(), cache.Options{
		OpTimeout:    cfg.CacheOpTimeout,
		FallbackSize: cfg.FallbackCacheSize,
		FallbackTTL:  cfg.FallbackCacheTTL,
	})

	limiter := ratelimit.New(clock, cfg.DefaultQuota)
	limiter.SetQuota("analyze", cfg.AnalyzeQuota)
	limiter.SetQuota("batch", cfg.BatchQuota)

	records := database.NewRecordRepo(pool, clock)
	aggregator := analytics.New(records, resultCache, clock, cfg.HighConfidenceThreshold)

	classifier := classify.NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	svc := sentiment.New(classifier, resultCache, records, clock, sentiment.Options{
		MaxTextLength: cfg.MaxTextLength,
		MaxBatchSize:  cfg.MaxBatchSize,
		CacheTTL:      cfg.CacheTTL,
	})

	srv := server.NewServer(cfg, svc, records, aggregator, limiter, resultCache, redisClient, pool, clock)

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("Shutdown complete")
}
