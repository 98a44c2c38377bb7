package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/thiagodifaria/MoodAPI/internal/logging"
	"github.com/thiagodifaria/MoodAPI/internal/version"
)

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := s.clock.Now().Sub(s.startTime).Seconds()
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": uptime,
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Postgres is the only hard dependency: without it every analyze and
	// history request fails.
	if err := s.postgres.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status":       "unhealthy",
			"failed_check": "postgres",
			"error":        err.Error(),
		})
	}

	// Redis going away degrades the cache to its fallback tier without
	// taking the instance out of rotation, so the ping only informs the
	// body, same as the cache health.
	redisStatus := "ok"
	if err := s.redis.Ping(ctx); err != nil {
		logging.WithError(err).Warn("readiness redis ping failed")
		redisStatus = "degraded"
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status": "ready",
		"redis":  redisStatus,
		"cache":  s.cache.Health(),
	})
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, version.Get())
}
