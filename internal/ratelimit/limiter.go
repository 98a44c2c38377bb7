package ratelimit

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/thiagodifaria/MoodAPI/internal/config"
	"github.com/thiagodifaria/MoodAPI/internal/errors"
	"github.com/thiagodifaria/MoodAPI/internal/metrics"
)

const gcInterval = 10 * time.Minute

type windowKey struct {
	clientID string
	endpoint string
	unit     time.Duration
}

type window struct {
	start time.Time
	count int
}

// Limiter tracks per-(client, endpoint) request counts across rolling
// minute and hour windows. Windows are created lazily on first use and
// garbage-collected once they age past both horizons.
type Limiter struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	defaults config.RateQuota
	quotas   map[string]config.RateQuota
	windows  map[windowKey]*window
	lastGC   time.Time
}

// New creates a limiter with the given default quota. Per-endpoint quotas
// are registered with SetQuota.
func New(clock clockwork.Clock, defaults config.RateQuota) *Limiter {
	return &Limiter{
		clock:    clock,
		defaults: defaults,
		quotas:   make(map[string]config.RateQuota),
		windows:  make(map[windowKey]*window),
		lastGC:   clock.Now(),
	}
}

// SetQuota overrides the default quota for one endpoint.
func (l *Limiter) SetQuota(endpoint string, quota config.RateQuota) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quotas[endpoint] = quota
}

// Allow records one request for (clientID, endpoint) and returns nil if it
// fits within both the per-minute and per-hour ceilings. When a ceiling is
// exceeded it returns a rate-limited error carrying the time until that
// window resets; the counters are left untouched so a rejected request
// consumes no quota. The check and the increment happen under one lock, so
// two simultaneous requests cannot both take the last slot.
func (l *Limiter) Allow(clientID, endpoint string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.maybeGC(now)

	quota := l.defaults
	if q, ok := l.quotas[endpoint]; ok {
		quota = q
	}

	checks := []struct {
		unit  time.Duration
		limit int
	}{
		{time.Minute, quota.PerMinute},
		{time.Hour, quota.PerHour},
	}

	// Check both horizons before counting the request against either.
	wins := make([]*window, len(checks))
	for i, check := range checks {
		key := windowKey{clientID: clientID, endpoint: endpoint, unit: check.unit}
		w := l.windows[key]
		start := now.Truncate(check.unit)

		if w == nil {
			w = &window{start: start}
			l.windows[key] = w
		} else if w.start.Before(start) {
			// The window rolled over: reset, don't delete.
			w.start = start
			w.count = 0
		}

		if w.count >= check.limit {
			retryAfter := w.start.Add(check.unit).Sub(now)
			metrics.RateLimitRejections.WithLabelValues(endpoint).Inc()
			return errors.RateLimitedError(retryAfter).
				WithContext("endpoint", endpoint).
				WithContext("limit", check.limit)
		}
		wins[i] = w
	}

	for _, w := range wins {
		w.count++
	}
	return nil
}

// maybeGC drops windows that aged past both horizons. Called with the lock
// held; runs at most once per gcInterval.
func (l *Limiter) maybeGC(now time.Time) {
	if now.Sub(l.lastGC) < gcInterval {
		return
	}
	l.lastGC = now

	for key, w := range l.windows {
		if now.Sub(w.start) > key.unit+time.Hour {
			delete(l.windows, key)
		}
	}
	metrics.RateLimitWindows.Set(float64(len(l.windows)))
}

// WindowCount returns the number of live counter windows. For tests and
// introspection.
func (l *Limiter) WindowCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
