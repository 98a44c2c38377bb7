package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thiagodifaria/MoodAPI/internal/logging"
)

// Endpoint classes for rate limiting. Analyze and batch carry their own
// quotas; everything else shares the default class.
const (
	endpointAnalyze = "analyze"
	endpointBatch   = "batch"
	endpointHistory = "history"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (never rate limited)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	api := s.echo.Group("/api/v1")

	api.POST("/sentiment/analyze", s.handleAnalyze, s.rateLimit(endpointAnalyze))
	api.POST("/sentiment/analyze/batch", s.handleAnalyzeBatch, s.rateLimit(endpointBatch))

	api.GET("/history", s.handleHistoryList, s.rateLimit(endpointHistory))
	api.GET("/history/analytics", s.handleAnalytics, s.rateLimit(endpointHistory))
	api.GET("/history/stats", s.handleStats, s.rateLimit(endpointHistory))
	api.GET("/history/:id", s.handleHistoryGet, s.rateLimit(endpointHistory))
	api.DELETE("/history/:id", s.handleHistoryDelete, s.rateLimit(endpointHistory))
}

// rateLimit admits requests per client and endpoint class. Rejections flow
// through the error middleware, which sets the Retry-After header.
func (s *Server) rateLimit(endpoint string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			clientID := c.RealIP()
			if err := s.limiter.Allow(clientID, endpoint); err != nil {
				logging.WithClient(clientID).Debug("request rejected by rate limiter",
					"endpoint", endpoint)
				return err
			}
			return next(c)
		}
	}
}
