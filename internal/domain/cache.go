package domain

import (
	"context"
	"time"
)

// CacheHealth reports the result cache's tier state for health checks.
type CacheHealth struct {
	PrimaryUp     bool `json:"primary_up"`
	UsingFallback bool `json:"using_fallback"`
}

// ResultCache is a fingerprint-keyed cache for serialized analysis results.
// Implementations never surface primary-tier failures to callers: a failed
// read is a miss, a failed write lands in the fallback tier.
type ResultCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Put(ctx context.Context, key, value string, ttl time.Duration)
	Invalidate(ctx context.Context, key string)
	Health() CacheHealth
}
