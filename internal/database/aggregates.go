package database

import (
	"context"
	"time"

	"github.com/thiagodifaria/MoodAPI/internal/domain"
)

// SentimentCounts returns the number of records per sentiment label inside
// the range. Labels with no records are absent from the map.
func (r *RecordRepo) SentimentCounts(ctx context.Context, start, end time.Time) (map[string]int, error) {
	defer observe("sentiment_counts")()

	rows, err := r.pool.Query(ctx, `
		SELECT sentiment, COUNT(*)
		FROM analyses
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY sentiment
	`, start, end)
	if err != nil {
		return nil, translateError("sentiment_counts", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, translateError("sentiment_counts", err)
		}
		counts[label] = n
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("sentiment_counts", err)
	}
	return counts, nil
}

// DailyVolume returns per-day record counts and average confidence for days
// that have records. Densifying the series is the aggregator's job. Records
// bucket by UTC calendar day regardless of the session timezone.
func (r *RecordRepo) DailyVolume(ctx context.Context, start, end time.Time) ([]domain.DayVolume, error) {
	defer observe("daily_volume")()

	rows, err := r.pool.Query(ctx, `
		SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day, COUNT(*), AVG(confidence)
		FROM analyses
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY day
		ORDER BY day
	`, start, end)
	if err != nil {
		return nil, translateError("daily_volume", err)
	}
	defer rows.Close()

	var days []domain.DayVolume
	for rows.Next() {
		var d domain.DayVolume
		if err := rows.Scan(&d.Date, &d.Count, &d.AvgConfidence); err != nil {
			return nil, translateError("daily_volume", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("daily_volume", err)
	}
	return days, nil
}

// LanguageCounts returns the top languages by record count inside the range.
// Percentage is left at zero; the aggregator derives it from the total.
func (r *RecordRepo) LanguageCounts(ctx context.Context, start, end time.Time, limit int) ([]domain.LanguageCount, error) {
	defer observe("language_counts")()

	rows, err := r.pool.Query(ctx, `
		SELECT language, COUNT(*)
		FROM analyses
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY language
		ORDER BY COUNT(*) DESC, language
		LIMIT $3
	`, start, end, limit)
	if err != nil {
		return nil, translateError("language_counts", err)
	}
	defer rows.Close()

	var langs []domain.LanguageCount
	for rows.Next() {
		var lc domain.LanguageCount
		if err := rows.Scan(&lc.Language, &lc.Count); err != nil {
			return nil, translateError("language_counts", err)
		}
		langs = append(langs, lc)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("language_counts", err)
	}
	return langs, nil
}

// CountAndAvgConfidence returns the record count and mean confidence for the
// range. The average is zero, not NULL, when the range is empty.
func (r *RecordRepo) CountAndAvgConfidence(ctx context.Context, start, end time.Time) (int, float64, error) {
	defer observe("count_avg_confidence")()

	var count int
	var avg float64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(AVG(confidence), 0)
		FROM analyses
		WHERE created_at >= $1 AND created_at <= $2
	`, start, end).Scan(&count, &avg)
	if err != nil {
		return 0, 0, translateError("count_avg_confidence", err)
	}
	return count, avg, nil
}

// HighConfidenceCount returns how many records in the range meet or exceed
// the confidence threshold.
func (r *RecordRepo) HighConfidenceCount(ctx context.Context, start, end time.Time, threshold float64) (int, error) {
	defer observe("high_confidence_count")()

	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM analyses
		WHERE created_at >= $1 AND created_at <= $2 AND confidence >= $3
	`, start, end, threshold).Scan(&count)
	if err != nil {
		return 0, translateError("high_confidence_count", err)
	}
	return count, nil
}

// DailySentimentCounts returns per-day per-label counts for days that have
// records, ordered by day. Days are UTC calendar days, as in DailyVolume.
func (r *RecordRepo) DailySentimentCounts(ctx context.Context, start, end time.Time) ([]domain.TrendPoint, error) {
	defer observe("daily_sentiment_counts")()

	rows, err := r.pool.Query(ctx, `
		SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day, sentiment, COUNT(*)
		FROM analyses
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY day, sentiment
		ORDER BY day
	`, start, end)
	if err != nil {
		return nil, translateError("daily_sentiment_counts", err)
	}
	defer rows.Close()

	var points []domain.TrendPoint
	for rows.Next() {
		var day time.Time
		var label string
		var n int
		if err := rows.Scan(&day, &label, &n); err != nil {
			return nil, translateError("daily_sentiment_counts", err)
		}
		if len(points) == 0 || !points[len(points)-1].Date.Equal(day) {
			points = append(points, domain.TrendPoint{
				Date:            day,
				SentimentCounts: make(map[string]int),
			})
		}
		p := &points[len(points)-1]
		p.SentimentCounts[label] = n
		p.TotalCount += n
	}
	if err := rows.Err(); err != nil {
		return nil, translateError("daily_sentiment_counts", err)
	}
	return points, nil
}
