package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// RateQuota holds per-endpoint request ceilings. Minute and hour limits are
// evaluated independently; a request must pass both.
type RateQuota struct {
	PerMinute int
	PerHour   int
}

type Config struct {
	AppEnv      string
	Port        string
	LogLevel    string
	LogFormat   string
	DatabaseURL string
	RedisURL    string

	OpenAIAPIKey string
	OpenAIModel  string

	CacheTTL          time.Duration
	CacheOpTimeout    time.Duration
	FallbackCacheSize int
	FallbackCacheTTL  time.Duration

	MaxTextLength           int
	MaxBatchSize            int
	HighConfidenceThreshold float64

	DefaultQuota RateQuota
	AnalyzeQuota RateQuota
	BatchQuota   RateQuota
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	var err error
	if cfg.CacheTTL, err = getDurationSeconds("CACHE_TTL_SECONDS", 3600); err != nil {
		return nil, err
	}
	if cfg.CacheOpTimeout, err = getDurationMillis("CACHE_OP_TIMEOUT_MS", 2000); err != nil {
		return nil, err
	}
	if cfg.FallbackCacheSize, err = getInt("FALLBACK_CACHE_SIZE", 1000); err != nil {
		return nil, err
	}
	if cfg.FallbackCacheTTL, err = getDurationSeconds("FALLBACK_CACHE_TTL_SECONDS", 300); err != nil {
		return nil, err
	}
	if cfg.MaxTextLength, err = getInt("MAX_TEXT_LENGTH", 2000); err != nil {
		return nil, err
	}
	if cfg.MaxBatchSize, err = getInt("MAX_BATCH_SIZE", 100); err != nil {
		return nil, err
	}
	if cfg.HighConfidenceThreshold, err = getFloat("HIGH_CONFIDENCE_THRESHOLD", 0.8); err != nil {
		return nil, err
	}

	if cfg.DefaultQuota, err = getQuota("RATE_LIMIT", 100, 1000); err != nil {
		return nil, err
	}
	if cfg.AnalyzeQuota, err = getQuota("RATE_LIMIT_ANALYZE", 50, 500); err != nil {
		return nil, err
	}
	if cfg.BatchQuota, err = getQuota("RATE_LIMIT_BATCH", 10, 100); err != nil {
		return nil, err
	}

	if cfg.FallbackCacheSize < 1 {
		return nil, fmt.Errorf("FALLBACK_CACHE_SIZE must be >= 1")
	}
	if cfg.HighConfidenceThreshold < 0 || cfg.HighConfidenceThreshold > 1 {
		return nil, fmt.Errorf("HIGH_CONFIDENCE_THRESHOLD must be in [0, 1]")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return v, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return v, nil
}

func getDurationSeconds(key string, defaultSeconds int) (time.Duration, error) {
	secs, err := getInt(key, defaultSeconds)
	if err != nil {
		return 0, err
	}
	if secs < 1 {
		return 0, fmt.Errorf("%s must be >= 1", key)
	}
	return time.Duration(secs) * time.Second, nil
}

func getDurationMillis(key string, defaultMillis int) (time.Duration, error) {
	ms, err := getInt(key, defaultMillis)
	if err != nil {
		return 0, err
	}
	if ms < 1 {
		return 0, fmt.Errorf("%s must be >= 1", key)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func getQuota(prefix string, perMinute, perHour int) (RateQuota, error) {
	minute, err := getInt(prefix+"_PER_MINUTE", perMinute)
	if err != nil {
		return RateQuota{}, err
	}
	hour, err := getInt(prefix+"_PER_HOUR", perHour)
	if err != nil {
		return RateQuota{}, err
	}
	if minute < 1 || hour < 1 {
		return RateQuota{}, fmt.Errorf("%s limits must be >= 1", prefix)
	}
	return RateQuota{PerMinute: minute, PerHour: hour}, nil
}
