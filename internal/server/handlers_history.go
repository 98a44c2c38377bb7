package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/thiagodifaria/MoodAPI/internal/domain"
	apperrors "github.com/thiagodifaria/MoodAPI/internal/errors"
)

const (
	defaultPageSize = 20
	dateOnlyLayout  = "2006-01-02"
)

type historyResponse struct {
	Items      []domain.AnalysisRecord `json:"items"`
	Total      int                     `json:"total"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	TotalPages int                     `json:"total_pages"`
}

func (s *Server) handleHistoryList(c echo.Context) error {
	filter, err := parseFilter(c)
	if err != nil {
		return err
	}

	sort := domain.Sort{Field: c.QueryParam("sort_by")}
	switch order := c.QueryParam("order"); order {
	case "", "asc":
	case "desc":
		sort.Desc = true
	default:
		return apperrors.ValidationError("order must be asc or desc").WithContext("order", order)
	}

	page := domain.Page{Number: 1, Size: defaultPageSize}
	if err := parseIntParam(c, "page", &page.Number); err != nil {
		return err
	}
	if err := parseIntParam(c, "page_size", &page.Size); err != nil {
		return err
	}

	items, total, err := s.history.Query(c.Request().Context(), filter, sort, page)
	if err != nil {
		return err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + page.Size - 1) / page.Size
	}

	return c.JSON(http.StatusOK, historyResponse{
		Items:      items,
		Total:      total,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: totalPages,
	})
}

func (s *Server) handleHistoryGet(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid record id").WithContext("id", c.Param("id"))
	}

	rec, err := s.history.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleHistoryDelete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid record id").WithContext("id", c.Param("id"))
	}

	deleted, err := s.history.Delete(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NotFoundError("analysis not found").WithContext("id", id.String())
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleAnalytics(c echo.Context) error {
	from, to, err := parseRange(c, s.clock.Now().UTC())
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	distribution, err := s.analytics.Distribution(ctx, from, to)
	if err != nil {
		return err
	}
	volume, err := s.analytics.DailyVolume(ctx, from, to)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"from":         from,
		"to":           to,
		"distribution": distribution,
		"daily_volume": volume,
	})
}

func (s *Server) handleStats(c echo.Context) error {
	period := c.QueryParam("period")
	if period == "" {
		period = "7d"
	}

	stats, err := s.analytics.Stats(c.Request().Context(), period)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// parseFilter reads the history filter from query parameters.
func parseFilter(c echo.Context) (domain.Filter, error) {
	filter := domain.Filter{
		Sentiment:    c.QueryParam("sentiment"),
		Language:     c.QueryParam("language"),
		TextContains: c.QueryParam("contains"),
	}

	for name, dst := range map[string]**float64{
		"min_confidence": &filter.MinConfidence,
		"max_confidence": &filter.MaxConfidence,
	} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.Filter{}, apperrors.ValidationError(name + " must be a number").WithContext(name, raw)
		}
		*dst = &v
	}

	if raw := c.QueryParam("start_date"); raw != "" {
		t, err := parseDate(raw, false)
		if err != nil {
			return domain.Filter{}, apperrors.ValidationError("start_date must be RFC 3339 or YYYY-MM-DD").WithContext("start_date", raw)
		}
		filter.StartDate = &t
	}
	if raw := c.QueryParam("end_date"); raw != "" {
		t, err := parseDate(raw, true)
		if err != nil {
			return domain.Filter{}, apperrors.ValidationError("end_date must be RFC 3339 or YYYY-MM-DD").WithContext("end_date", raw)
		}
		filter.EndDate = &t
	}

	return filter, nil
}

// parseDate accepts RFC 3339 timestamps or bare dates. A bare end date is
// pushed to the end of its day so the range stays inclusive.
func parseDate(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateOnlyLayout, raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t.UTC(), nil
}

// parseRange reads from/to for the analytics endpoint, defaulting to the
// trailing 30 days.
func parseRange(c echo.Context, now time.Time) (time.Time, time.Time, error) {
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := c.QueryParam("from"); raw != "" {
		t, err := parseDate(raw, false)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.ValidationError("from must be RFC 3339 or YYYY-MM-DD").WithContext("from", raw)
		}
		from = t
	}
	if raw := c.QueryParam("to"); raw != "" {
		t, err := parseDate(raw, true)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.ValidationError("to must be RFC 3339 or YYYY-MM-DD").WithContext("to", raw)
		}
		to = t
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, apperrors.ValidationError("from must not be after to")
	}
	return from, to, nil
}

func parseIntParam(c echo.Context, name string, dst *int) error {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return apperrors.ValidationError(name + " must be an integer").WithContext(name, raw)
	}
	*dst = v
	return nil
}
