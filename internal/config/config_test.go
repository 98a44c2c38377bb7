package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/moodapi")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 2*time.Second, cfg.CacheOpTimeout)
	assert.Equal(t, 1000, cfg.FallbackCacheSize)
	assert.Equal(t, 5*time.Minute, cfg.FallbackCacheTTL)
	assert.Equal(t, 2000, cfg.MaxTextLength)
	assert.Equal(t, 100, cfg.MaxBatchSize)
	assert.Equal(t, 0.8, cfg.HighConfidenceThreshold)
	assert.Equal(t, RateQuota{PerMinute: 100, PerHour: 1000}, cfg.DefaultQuota)
	assert.Equal(t, RateQuota{PerMinute: 50, PerHour: 500}, cfg.AnalyzeQuota)
	assert.Equal(t, RateQuota{PerMinute: 10, PerHour: 100}, cfg.BatchQuota)
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadMissingRedisURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/moodapi")
	t.Setenv("REDIS_URL", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("CACHE_TTL_SECONDS", "60")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "5")
	t.Setenv("RATE_LIMIT_PER_HOUR", "50")
	t.Setenv("HIGH_CONFIDENCE_THRESHOLD", "0.9")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, RateQuota{PerMinute: 5, PerHour: 50}, cfg.DefaultQuota)
	assert.Equal(t, 0.9, cfg.HighConfidenceThreshold)
}

func TestLoadRejectsMalformedNumbers(t *testing.T) {
	setRequired(t)
	t.Setenv("FALLBACK_CACHE_SIZE", "many")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FALLBACK_CACHE_SIZE")
}

func TestLoadRejectsOutOfRangeThreshold(t *testing.T) {
	setRequired(t)
	t.Setenv("HIGH_CONFIDENCE_THRESHOLD", "1.5")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HIGH_CONFIDENCE_THRESHOLD")
}
