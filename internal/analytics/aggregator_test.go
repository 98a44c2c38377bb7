package analytics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagodifaria/MoodAPI/internal/domain"
	"github.com/thiagodifaria/MoodAPI/internal/errors"
)

// fakeStore serves canned aggregation results and counts calls.
type fakeStore struct {
	sentimentCounts  map[string]int
	dailyVolume      []domain.DayVolume
	languageCounts   []domain.LanguageCount
	total            int
	avgConfidence    float64
	highCount        int
	dailySentiments  []domain.TrendPoint
	err              error
	sentimentCalls   int
	volumeCalls      int
	statsCalls       int
	lastThreshold    float64
	lastStart        time.Time
	lastEnd          time.Time
	lastLanguageCap  int
}

func (f *fakeStore) SentimentCounts(_ context.Context, start, end time.Time) (map[string]int, error) {
	f.sentimentCalls++
	f.lastStart, f.lastEnd = start, end
	return f.sentimentCounts, f.err
}

func (f *fakeStore) DailyVolume(_ context.Context, start, end time.Time) ([]domain.DayVolume, error) {
	f.volumeCalls++
	return f.dailyVolume, f.err
}

func (f *fakeStore) LanguageCounts(_ context.Context, start, end time.Time, limit int) ([]domain.LanguageCount, error) {
	f.lastLanguageCap = limit
	return f.languageCounts, f.err
}

func (f *fakeStore) CountAndAvgConfidence(_ context.Context, start, end time.Time) (int, float64, error) {
	f.statsCalls++
	f.lastStart, f.lastEnd = start, end
	return f.total, f.avgConfidence, f.err
}

func (f *fakeStore) HighConfidenceCount(_ context.Context, start, end time.Time, threshold float64) (int, error) {
	f.lastThreshold = threshold
	return f.highCount, f.err
}

func (f *fakeStore) DailySentimentCounts(_ context.Context, start, end time.Time) ([]domain.TrendPoint, error) {
	return f.dailySentiments, f.err
}

// memoryCache is an in-process ResultCache for tests; TTLs are ignored.
type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
	puts int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]string)}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memoryCache) Put(_ context.Context, key, value string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	m.data[key] = value
}

func (m *memoryCache) Invalidate(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

func (m *memoryCache) Health() domain.CacheHealth {
	return domain.CacheHealth{PrimaryUp: true}
}

func day(y int, mo time.Month, d int) time.Time {
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func TestDistribution_ZeroFillsLabels(t *testing.T) {
	store := &fakeStore{sentimentCounts: map[string]int{
		domain.SentimentPositive: 2,
		domain.SentimentNegative: 1,
	}}
	agg := New(store, nil, clockwork.NewFakeClock(), 0.8)

	dist, err := agg.Distribution(context.Background(), day(2025, 3, 10), day(2025, 3, 12))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{
		domain.SentimentPositive: 2,
		domain.SentimentNegative: 1,
		domain.SentimentNeutral:  0,
	}, dist)

	// Sum of the distribution equals the range's record count.
	sum := 0
	for _, n := range dist {
		sum += n
	}
	assert.Equal(t, 3, sum)
}

func TestDistribution_EmptyRange(t *testing.T) {
	store := &fakeStore{sentimentCounts: map[string]int{}}
	agg := New(store, nil, clockwork.NewFakeClock(), 0.8)

	dist, err := agg.Distribution(context.Background(), day(2025, 3, 10), day(2025, 3, 12))
	require.NoError(t, err)

	require.Len(t, dist, 3)
	for _, label := range domain.SentimentLabels() {
		assert.Zero(t, dist[label])
	}
}

func TestDailyVolume_DensifiesGaps(t *testing.T) {
	// Records on day 1 and day 3, nothing on day 2.
	store := &fakeStore{dailyVolume: []domain.DayVolume{
		{Date: day(2025, 3, 10), Count: 2, AvgConfidence: 0.87},
		{Date: day(2025, 3, 12), Count: 1, AvgConfidence: 0.60},
	}}
	agg := New(store, nil, clockwork.NewFakeClock(), 0.8)

	days, err := agg.DailyVolume(context.Background(), day(2025, 3, 10), day(2025, 3, 12))
	require.NoError(t, err)

	require.Len(t, days, 3)
	assert.Equal(t, day(2025, 3, 10), days[0].Date)
	assert.Equal(t, 2, days[0].Count)
	assert.Equal(t, day(2025, 3, 11), days[1].Date)
	assert.Zero(t, days[1].Count)
	assert.Zero(t, days[1].AvgConfidence)
	assert.Equal(t, day(2025, 3, 12), days[2].Date)
	assert.Equal(t, 1, days[2].Count)
}

func TestDailyVolume_MidDayBoundsStillCoverWholeDays(t *testing.T) {
	store := &fakeStore{}
	agg := New(store, nil, clockwork.NewFakeClock(), 0.8)

	from := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	to := time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)

	days, err := agg.DailyVolume(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, day(2025, 3, 10), days[0].Date)
	assert.Equal(t, day(2025, 3, 11), days[1].Date)
}

func TestStats_ComputesRatiosAndPercentages(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	store := &fakeStore{
		total:         3,
		avgConfidence: 0.78,
		highCount:     2,
		languageCounts: []domain.LanguageCount{
			{Language: "en", Count: 2},
			{Language: "pt", Count: 1},
		},
	}
	agg := New(store, nil, clock, 0.8)

	stats, err := agg.Stats(context.Background(), "7d")
	require.NoError(t, err)

	assert.Equal(t, "7d", stats.Period)
	assert.Equal(t, 3, stats.TotalCount)
	assert.InDelta(t, 0.78, stats.AvgConfidence, 1e-9)
	assert.InDelta(t, 2.0/3.0, stats.HighConfidenceRatio, 1e-9)
	assert.InDelta(t, 0.8, store.lastThreshold, 1e-9)
	assert.Equal(t, topLanguageLimit, store.lastLanguageCap)

	require.Len(t, stats.TopLanguages, 2)
	assert.InDelta(t, 200.0/3.0, stats.TopLanguages[0].Percentage, 1e-9)
	assert.InDelta(t, 100.0/3.0, stats.TopLanguages[1].Percentage, 1e-9)

	// 7 day trailing window plus today, each day zero-filled.
	require.Len(t, stats.Trend, 8)
	for _, p := range stats.Trend {
		require.Len(t, p.SentimentCounts, 3)
	}

	// Window anchored to the injected clock.
	assert.Equal(t, clock.Now().UTC(), store.lastEnd)
	assert.Equal(t, clock.Now().UTC().AddDate(0, 0, -7), store.lastStart)
}

func TestStats_EmptyHistory(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	agg := New(&fakeStore{}, nil, clock, 0.8)

	stats, err := agg.Stats(context.Background(), "30d")
	require.NoError(t, err)

	assert.Zero(t, stats.TotalCount)
	assert.Zero(t, stats.AvgConfidence)
	assert.Zero(t, stats.HighConfidenceRatio)
	assert.Empty(t, stats.TopLanguages)
	assert.Len(t, stats.Trend, 31)
}

func TestStats_TrendMergesSparseDays(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC))
	store := &fakeStore{
		total: 3,
		dailySentiments: []domain.TrendPoint{
			{
				Date:            day(2025, 6, 3),
				SentimentCounts: map[string]int{domain.SentimentPositive: 1, domain.SentimentNegative: 1},
				TotalCount:      2,
			},
		},
	}
	agg := New(store, nil, clock, 0.8)

	stats, err := agg.Stats(context.Background(), "7d")
	require.NoError(t, err)

	var withData *domain.TrendPoint
	for i := range stats.Trend {
		if stats.Trend[i].Date.Equal(day(2025, 6, 3)) {
			withData = &stats.Trend[i]
		} else {
			assert.Zero(t, stats.Trend[i].TotalCount)
		}
	}
	require.NotNil(t, withData)
	assert.Equal(t, 2, withData.TotalCount)
	assert.Equal(t, 1, withData.SentimentCounts[domain.SentimentPositive])
	assert.Equal(t, 1, withData.SentimentCounts[domain.SentimentNegative])
	assert.Zero(t, withData.SentimentCounts[domain.SentimentNeutral])
}

func TestStats_RejectsUnknownPeriod(t *testing.T) {
	agg := New(&fakeStore{}, nil, clockwork.NewFakeClock(), 0.8)

	_, err := agg.Stats(context.Background(), "14d")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeValidation))
}

func TestDistribution_ServesCachedResult(t *testing.T) {
	store := &fakeStore{sentimentCounts: map[string]int{domain.SentimentPositive: 1}}
	cache := newMemoryCache()
	agg := New(store, cache, clockwork.NewFakeClock(), 0.8)
	ctx := context.Background()

	first, err := agg.Distribution(ctx, day(2025, 3, 10), day(2025, 3, 12))
	require.NoError(t, err)

	second, err := agg.Distribution(ctx, day(2025, 3, 10), day(2025, 3, 12))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.sentimentCalls, "second read must come from the cache")
	assert.Equal(t, 1, cache.puts)
}

func TestStats_CorruptCacheEntryIsDroppedAndRecomputed(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	store := &fakeStore{total: 1}
	cache := newMemoryCache()
	cache.data["analytics:stats:7d"] = "{not json"

	agg := New(store, cache, clock, 0.8)

	stats, err := agg.Stats(context.Background(), "7d")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalCount)
	assert.Equal(t, 1, store.statsCalls)
}

func TestAggregator_PropagatesStoreErrors(t *testing.T) {
	store := &fakeStore{err: errors.UnavailableError("record store unreachable", nil)}
	agg := New(store, nil, clockwork.NewFakeClock(), 0.8)
	ctx := context.Background()

	_, err := agg.Distribution(ctx, day(2025, 3, 10), day(2025, 3, 12))
	assert.True(t, errors.IsType(err, errors.TypeUnavailable))

	_, err = agg.DailyVolume(ctx, day(2025, 3, 10), day(2025, 3, 12))
	assert.True(t, errors.IsType(err, errors.TypeUnavailable))

	_, err = agg.Stats(ctx, "7d")
	assert.True(t, errors.IsType(err, errors.TypeUnavailable))
}
