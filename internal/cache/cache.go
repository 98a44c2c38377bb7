package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/thiagodifaria/MoodAPI/internal/domain"
	"github.com/thiagodifaria/MoodAPI/internal/metrics"
)

// RedisCmds is the slice of the go-redis API the cache needs. Narrowed for
// testability; *goredis.Client satisfies it.
type RedisCmds interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// Options tune the cache tiers. Zero values fall back to defaults.
type Options struct {
	// OpTimeout bounds every primary-tier operation.
	OpTimeout time.Duration
	// FallbackSize is the hard maximum entry count of the in-process tier.
	FallbackSize int
	// FallbackTTL is the independent, short TTL of fallback entries.
	FallbackTTL time.Duration
	// BreakerFailures is the consecutive-failure count that marks the
	// primary down.
	BreakerFailures uint32
	// BreakerTimeout is how long the primary stays marked down before a
	// probe is allowed through.
	BreakerTimeout time.Duration
}

func (o *Options) applyDefaults() {
	if o.OpTimeout <= 0 {
		o.OpTimeout = 2 * time.Second
	}
	if o.FallbackSize <= 0 {
		o.FallbackSize = 1000
	}
	if o.FallbackTTL <= 0 {
		o.FallbackTTL = 5 * time.Minute
	}
	if o.BreakerFailures == 0 {
		o.BreakerFailures = 3
	}
	if o.BreakerTimeout <= 0 {
		o.BreakerTimeout = 15 * time.Second
	}
}

// Cache is the two-tier result cache. The circuit breaker is the shared
// health cell: while it is open all operations go straight to the fallback
// tier, and half-open probes detect primary recovery. The fallback tier is
// not reconciled on recovery; its entries age out by their own TTL.
type Cache struct {
	rdb       RedisCmds
	fallback  *expirable.LRU[string, string]
	breaker   *gobreaker.CircuitBreaker[primaryValue]
	opTimeout time.Duration

	// degraded flips on when an operation falls back and off when a
	// primary operation succeeds. Reads may briefly be stale; eventual
	// detection is enough here.
	degraded atomic.Bool
}

var _ domain.ResultCache = (*Cache)(nil)

type primaryValue struct {
	value string
	found bool
}

// New creates a two-tier cache over the given Redis client.
func New(rdb RedisCmds, opts Options) *Cache {
	opts.applyDefaults()

	c := &Cache{
		rdb:       rdb,
		fallback:  expirable.NewLRU[string, string](opts.FallbackSize, nil, opts.FallbackTTL),
		opTimeout: opts.OpTimeout,
	}

	c.breaker = gobreaker.NewCircuitBreaker[primaryValue](gobreaker.Settings{
		Name:        "result-cache-primary",
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Result cache primary state changed",
				"component", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.CacheBreakerState.Set(stateToFloat(to))
		},
	})

	return c
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Get returns the cached value for key. Primary failures and misses are
// both observed as "not found"; on failure the fallback tier is consulted.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	res, err := c.breaker.Execute(func() (primaryValue, error) {
		return c.primaryGet(ctx, key)
	})
	if err == nil {
		c.degraded.Store(false)
		if !res.found {
			metrics.CacheMisses.Inc()
			return "", false
		}
		metrics.CacheHits.WithLabelValues("primary").Inc()
		return res.value, true
	}

	c.notePrimaryFailure("get", err)
	if v, ok := c.fallback.Get(key); ok {
		metrics.CacheHits.WithLabelValues("fallback").Inc()
		return v, true
	}
	metrics.CacheMisses.Inc()
	return "", false
}

// Put stores the value in whichever tier is currently live. Last writer
// wins; content is a pure function of the key, so no versioning is needed.
func (c *Cache) Put(ctx context.Context, key, value string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	_, err := c.breaker.Execute(func() (primaryValue, error) {
		return primaryValue{}, c.primarySet(ctx, key, value, ttl)
	})
	if err == nil {
		c.degraded.Store(false)
		return
	}

	c.notePrimaryFailure("put", err)
	c.fallback.Add(key, value)
}

// Invalidate removes the key from both tiers. The primary delete is
// best-effort: entries there expire by TTL anyway.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	c.fallback.Remove(key)

	_, err := c.breaker.Execute(func() (primaryValue, error) {
		return primaryValue{}, c.primaryDel(ctx, key)
	})
	if err == nil {
		c.degraded.Store(false)
		return
	}
	c.notePrimaryFailure("invalidate", err)
}

// Health reports the tier state for external health checks. Primary
// failures are reported here, never thrown to callers.
func (c *Cache) Health() domain.CacheHealth {
	open := c.breaker.State() == gobreaker.StateOpen
	return domain.CacheHealth{
		PrimaryUp:     !open,
		UsingFallback: open || c.degraded.Load(),
	}
}

func (c *Cache) notePrimaryFailure(op string, err error) {
	c.degraded.Store(true)
	metrics.CacheFallbackOps.WithLabelValues(op).Inc()
	if !errors.Is(err, gobreaker.ErrOpenState) && !errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CachePrimaryErrors.Inc()
		slog.Debug("Result cache primary failure", "operation", op, "error", err)
	}
}

// primaryGet reads from Redis, retrying once with a fresh timeout before
// giving up. A Redis nil reply is a miss, not an error.
func (c *Cache) primaryGet(ctx context.Context, key string) (primaryValue, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
		val, err := c.rdb.Get(opCtx, key).Result()
		cancel()

		if err == nil {
			return primaryValue{value: val, found: true}, nil
		}
		if errors.Is(err, goredis.Nil) {
			return primaryValue{}, nil
		}
		lastErr = err
	}
	return primaryValue{}, lastErr
}

func (c *Cache) primarySet(ctx context.Context, key, value string, ttl time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
		err := c.rdb.Set(opCtx, key, value, ttl).Err()
		cancel()

		if err == nil {
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (c *Cache) primaryDel(ctx context.Context, key string) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, c.opTimeout)
		err := c.rdb.Del(opCtx, key).Err()
		cancel()

		if err == nil {
			return nil
		}
		lastErr = err
	}
	return lastErr
}
