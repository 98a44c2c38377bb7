package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/thiagodifaria/MoodAPI/internal/config"
	"github.com/thiagodifaria/MoodAPI/internal/domain"
	apperrors "github.com/thiagodifaria/MoodAPI/internal/errors"
)

// analyzeService is the slice of the sentiment facade the handlers use.
type analyzeService interface {
	Analyze(ctx context.Context, text, language string) (*domain.Analysis, error)
	AnalyzeBatch(ctx context.Context, texts []string, language string) ([]domain.Analysis, error)
}

// historyStore is the slice of the record store the handlers use.
type historyStore interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.AnalysisRecord, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	Query(ctx context.Context, filter domain.Filter, sort domain.Sort, page domain.Page) ([]domain.AnalysisRecord, int, error)
}

// analyticsProvider serves the aggregate endpoints.
type analyticsProvider interface {
	Distribution(ctx context.Context, from, to time.Time) (map[string]int, error)
	DailyVolume(ctx context.Context, from, to time.Time) ([]domain.DayVolume, error)
	Stats(ctx context.Context, period string) (*domain.Stats, error)
}

// rateLimiter admits or rejects a request for a client/endpoint pair.
type rateLimiter interface {
	Allow(clientID, endpoint string) error
}

// pinger is the health-check surface of redis and postgres.
type pinger interface {
	Ping(ctx context.Context) error
}

// cacheHealth reports the result cache's tier state for readiness output.
type cacheHealth interface {
	Health() domain.CacheHealth
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	analyzer  analyzeService
	history   historyStore
	analytics analyticsProvider
	limiter   rateLimiter
	cache     cacheHealth
	redis     pinger
	postgres  pinger
	clock     clockwork.Clock
	startTime time.Time
}

func NewServer(
	cfg *config.Config,
	analyzer analyzeService,
	history historyStore,
	analytics analyticsProvider,
	limiter rateLimiter,
	cache cacheHealth,
	redis pinger,
	postgres pinger,
	clock clockwork.Clock,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:      e,
		config:    cfg,
		analyzer:  analyzer,
		history:   history,
		analytics: analytics,
		limiter:   limiter,
		cache:     cache,
		redis:     redis,
		postgres:  postgres,
		clock:     clock,
		startTime: clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
