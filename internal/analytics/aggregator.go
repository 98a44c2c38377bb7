// Package analytics derives read-only aggregates from the analysis history.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/thiagodifaria/MoodAPI/internal/domain"
	"github.com/thiagodifaria/MoodAPI/internal/errors"
)

// Cache TTLs are shorter than the result cache's default because aggregates
// go stale with every appended record.
const (
	distributionTTL = 30 * time.Minute
	statsTTL        = time.Hour
)

// DefaultHighConfidenceThreshold marks a prediction as high-confidence.
const DefaultHighConfidenceThreshold = 0.8

// Store is the aggregation surface of the record store. The database
// package returns sparse results; densifying them is this package's job.
type Store interface {
	SentimentCounts(ctx context.Context, start, end time.Time) (map[string]int, error)
	DailyVolume(ctx context.Context, start, end time.Time) ([]domain.DayVolume, error)
	LanguageCounts(ctx context.Context, start, end time.Time, limit int) ([]domain.LanguageCount, error)
	CountAndAvgConfidence(ctx context.Context, start, end time.Time) (int, float64, error)
	HighConfidenceCount(ctx context.Context, start, end time.Time, threshold float64) (int, error)
	DailySentimentCounts(ctx context.Context, start, end time.Time) ([]domain.TrendPoint, error)
}

// Periods accepted by Stats.
var periods = map[string]int{
	"7d":  7,
	"30d": 30,
	"90d": 90,
	"1y":  365,
}

// topLanguageLimit caps the languages returned by Stats.
const topLanguageLimit = 5

// Aggregator computes distribution, volume and stats views over the
// history. It never mutates records. A non-nil cache short-circuits
// repeated identical reads.
type Aggregator struct {
	store     Store
	cache     domain.ResultCache
	clock     clockwork.Clock
	threshold float64
}

// New creates an Aggregator. cache may be nil to disable acceleration.
func New(store Store, cache domain.ResultCache, clock clockwork.Clock, highConfidenceThreshold float64) *Aggregator {
	if highConfidenceThreshold <= 0 {
		highConfidenceThreshold = DefaultHighConfidenceThreshold
	}
	return &Aggregator{store: store, cache: cache, clock: clock, threshold: highConfidenceThreshold}
}

// Distribution returns per-label record counts for the range. Every label
// of the closed set is present, zero-count labels included, so the values
// always sum to the range's total record count.
func (a *Aggregator) Distribution(ctx context.Context, from, to time.Time) (map[string]int, error) {
	key := fmt.Sprintf("analytics:distribution:%d:%d", from.Unix(), to.Unix())

	var cached map[string]int
	if a.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	raw, err := a.store.SentimentCounts(ctx, from, to)
	if err != nil {
		return nil, err
	}

	dist := make(map[string]int, len(domain.SentimentLabels()))
	for _, label := range domain.SentimentLabels() {
		dist[label] = raw[label]
	}

	a.cachePut(ctx, key, dist, distributionTTL)
	return dist, nil
}

// DailyVolume returns one entry per calendar day in [from, to], days
// without records included with a zero count.
func (a *Aggregator) DailyVolume(ctx context.Context, from, to time.Time) ([]domain.DayVolume, error) {
	key := fmt.Sprintf("analytics:volume:%d:%d", from.Unix(), to.Unix())

	var cached []domain.DayVolume
	if a.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	sparse, err := a.store.DailyVolume(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]domain.DayVolume, len(sparse))
	for _, d := range sparse {
		byDay[d.Date.UTC()] = d
	}

	var dense []domain.DayVolume
	for day := truncateDay(from); !day.After(truncateDay(to)); day = day.AddDate(0, 0, 1) {
		if d, ok := byDay[day]; ok {
			d.Date = day
			dense = append(dense, d)
		} else {
			dense = append(dense, domain.DayVolume{Date: day})
		}
	}

	a.cachePut(ctx, key, dense, distributionTTL)
	return dense, nil
}

// Stats summarizes the trailing period ("7d", "30d", "90d" or "1y").
func (a *Aggregator) Stats(ctx context.Context, period string) (*domain.Stats, error) {
	days, ok := periods[period]
	if !ok {
		return nil, errors.ValidationError("period must be one of 7d, 30d, 90d, 1y").
			WithContext("period", period)
	}

	key := "analytics:stats:" + period
	var cached domain.Stats
	if a.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	to := a.clock.Now().UTC()
	from := to.AddDate(0, 0, -days)

	total, avg, err := a.store.CountAndAvgConfidence(ctx, from, to)
	if err != nil {
		return nil, err
	}

	high, err := a.store.HighConfidenceCount(ctx, from, to, a.threshold)
	if err != nil {
		return nil, err
	}

	langs, err := a.store.LanguageCounts(ctx, from, to, topLanguageLimit)
	if err != nil {
		return nil, err
	}
	for i := range langs {
		if total > 0 {
			langs[i].Percentage = float64(langs[i].Count) / float64(total) * 100
		}
	}

	trend, err := a.trend(ctx, from, to)
	if err != nil {
		return nil, err
	}

	stats := &domain.Stats{
		Period:        period,
		TotalCount:    total,
		AvgConfidence: avg,
		TopLanguages:  langs,
		Trend:         trend,
	}
	if total > 0 {
		stats.HighConfidenceRatio = float64(high) / float64(total)
	}

	a.cachePut(ctx, key, stats, statsTTL)
	return stats, nil
}

// trend densifies the per-day label counts: every day of the range appears,
// and every day carries the full label set with zeros filled in.
func (a *Aggregator) trend(ctx context.Context, from, to time.Time) ([]domain.TrendPoint, error) {
	sparse, err := a.store.DailySentimentCounts(ctx, from, to)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]domain.TrendPoint, len(sparse))
	for _, p := range sparse {
		byDay[p.Date.UTC()] = p
	}

	var dense []domain.TrendPoint
	for day := truncateDay(from); !day.After(truncateDay(to)); day = day.AddDate(0, 0, 1) {
		point := domain.TrendPoint{Date: day, SentimentCounts: make(map[string]int)}
		if p, ok := byDay[day]; ok {
			point.TotalCount = p.TotalCount
			for label, n := range p.SentimentCounts {
				point.SentimentCounts[label] = n
			}
		}
		for _, label := range domain.SentimentLabels() {
			if _, ok := point.SentimentCounts[label]; !ok {
				point.SentimentCounts[label] = 0
			}
		}
		dense = append(dense, point)
	}
	return dense, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// cacheGet reads a cached aggregate. Corrupt entries are dropped and
// treated as misses.
func (a *Aggregator) cacheGet(ctx context.Context, key string, out any) bool {
	if a.cache == nil {
		return false
	}
	raw, ok := a.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		slog.Warn("dropping undecodable analytics cache entry", "key", key, "error", err)
		a.cache.Invalidate(ctx, key)
		return false
	}
	return true
}

func (a *Aggregator) cachePut(ctx context.Context, key string, val any, ttl time.Duration) {
	if a.cache == nil {
		return
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return
	}
	a.cache.Put(ctx, key, string(raw), ttl)
}
