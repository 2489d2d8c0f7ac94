package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/logger"
)

const (
	headerLimit     = "x-ratelimit-limit"
	headerRemaining = "x-ratelimit-remaining"
	headerReset     = "x-ratelimit-reset"

	// DefaultRemainingThreshold is deliberately below the platform's usual
	// reporting granularity so jitter in the remaining counter does not
	// trigger premature sleeps.
	DefaultRemainingThreshold = 50

	// DefaultFallbackSleep is used when the reset timestamp is absent or
	// already in the past, to avoid a tight retry loop when clocks disagree.
	DefaultFallbackSleep = 10 * time.Second
)

// Governor tracks the server-reported rate-limit state of one client and
// sleeps when the next call would risk rejection. State is sticky: headers
// absent from a response leave the corresponding field unchanged.
type Governor struct {
	mu        sync.Mutex
	limit     int
	remaining int
	resetAt   time.Time

	// remaining is meaningless until the first header has been seen
	seenRemaining bool

	threshold int
	fallback  time.Duration

	logger logger.Logger

	// injectable for tests
	now   func() time.Time
	sleep func(time.Duration)
}

// NewGovernor creates a governor with the given safety threshold and
// fallback sleep duration.
func NewGovernor(threshold int, fallback time.Duration, log logger.Logger) *Governor {
	if threshold < 0 {
		threshold = DefaultRemainingThreshold
	}
	if fallback <= 0 {
		fallback = DefaultFallbackSleep
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Governor{
		remaining: -1,
		threshold: threshold,
		fallback:  fallback,
		logger:    log,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// Observe updates the rate-limit state from response headers and blocks the
// caller when the remaining quota has dropped to the safety threshold. It
// must be called after every HTTP response, page fetch or not.
func (g *Governor) Observe(h http.Header) {
	g.mu.Lock()

	if v := h.Get(headerLimit); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			g.limit = n
		}
	}
	if v := h.Get(headerRemaining); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			g.remaining = n
			g.seenRemaining = true
		}
	}
	if v := h.Get(headerReset); v != "" {
		if t, err := parseResetTime(v); err == nil {
			g.resetAt = t
		} else {
			g.logger.WarnWithFields("unparseable rate limit reset header", map[string]interface{}{
				"value": v,
			})
		}
	}

	if !g.seenRemaining || g.remaining > g.threshold {
		g.mu.Unlock()
		return
	}

	wait := g.resetAt.Sub(g.now())
	if wait <= 0 {
		wait = g.fallback
	}
	resetAt := g.resetAt
	remaining := g.remaining
	g.mu.Unlock()

	// Rate-limit sleeps are policy, not errors; logged at warning level for
	// operator visibility.
	g.logger.WarnWithFields("rate limit low, sleeping until reset", map[string]interface{}{
		"remaining": remaining,
		"reset_at":  resetAt.UTC().Format(time.RFC3339),
		"sleep":     wait,
	})
	g.sleep(wait)
}

// Snapshot returns the current rate-limit state: limit, remaining and the
// reset time. Remaining is -1 until the server has reported it.
func (g *Governor) Snapshot() (limit, remaining int, resetAt time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.limit, g.remaining, g.resetAt
}

// parseResetTime accepts the formats the platform has been seen sending:
// RFC 3339, HTTP-date, and epoch seconds.
func parseResetTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	if t, err := http.ParseTime(v); err == nil {
		return t.UTC(), nil
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0).UTC(), nil
}
