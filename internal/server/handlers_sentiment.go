package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/thiagodifaria/MoodAPI/internal/domain"
	apperrors "github.com/thiagodifaria/MoodAPI/internal/errors"
)

type analyzeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type batchRequest struct {
	Texts    []string `json:"texts"`
	Language string   `json:"language"`
}

type batchResponse struct {
	Results []domain.Analysis `json:"results"`
	Count   int               `json:"count"`
}

func (s *Server) handleAnalyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("request body must be a JSON object with a text field")
	}

	analysis, err := s.analyzer.Analyze(c.Request().Context(), req.Text, req.Language)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, analysis)
}

func (s *Server) handleAnalyzeBatch(c echo.Context) error {
	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("request body must be a JSON object with a texts array")
	}

	results, err := s.analyzer.AnalyzeBatch(c.Request().Context(), req.Texts, req.Language)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, batchResponse{Results: results, Count: len(results)})
}
