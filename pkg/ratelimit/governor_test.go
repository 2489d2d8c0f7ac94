package ratelimit

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/logger"
)

func newTestGovernor(now time.Time) (*Governor, *[]time.Duration) {
	g := NewGovernor(50, 10*time.Second, logger.NewTestLogger())
	slept := &[]time.Duration{}
	g.now = func() time.Time { return now }
	g.sleep = func(d time.Duration) { *slept = append(*slept, d) }
	return g, slept
}

func headers(limit, remaining, reset string) http.Header {
	h := http.Header{}
	if limit != "" {
		h.Set("x-ratelimit-limit", limit)
	}
	if remaining != "" {
		h.Set("x-ratelimit-remaining", remaining)
	}
	if reset != "" {
		h.Set("x-ratelimit-reset", reset)
	}
	return h
}

func TestGovernorSleepsUntilReset(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	g, slept := newTestGovernor(now)

	reset := now.Add(5 * time.Second).Format(time.RFC3339)
	g.Observe(headers("300", "49", reset))

	require.Len(t, *slept, 1)
	assert.Equal(t, 5*time.Second, (*slept)[0])

	// After the window replenishes, a fresh observation must not block.
	g.Observe(headers("300", "300", now.Add(15*time.Minute).Format(time.RFC3339)))
	assert.Len(t, *slept, 1)
}

func TestGovernorAboveThresholdDoesNotSleep(t *testing.T) {
	now := time.Now()
	g, slept := newTestGovernor(now)

	g.Observe(headers("300", "51", now.Add(time.Minute).Format(time.RFC3339)))
	assert.Empty(t, *slept)
}

func TestGovernorNoHeadersDoesNotSleep(t *testing.T) {
	g, slept := newTestGovernor(time.Now())

	// Remaining quota is unknown until the server reports it.
	g.Observe(http.Header{})
	assert.Empty(t, *slept)
}

func TestGovernorFallbackWhenResetInPast(t *testing.T) {
	now := time.Now()
	g, slept := newTestGovernor(now)

	g.Observe(headers("300", "10", now.Add(-time.Minute).Format(time.RFC3339)))

	require.Len(t, *slept, 1)
	assert.Equal(t, 10*time.Second, (*slept)[0])
}

func TestGovernorStateIsSticky(t *testing.T) {
	// Truncate so the RFC3339 round-trip of the reset header (whole-second
	// precision) matches the injected clock exactly.
	now := time.Now().Truncate(time.Second)
	g, slept := newTestGovernor(now)

	g.Observe(headers("300", "40", ""))
	require.Len(t, *slept, 1, "low remaining with no reset uses fallback")
	assert.Equal(t, 10*time.Second, (*slept)[0])

	// A later response with only a reset header keeps the old remaining.
	g.Observe(headers("", "", now.Add(3*time.Second).Format(time.RFC3339)))
	require.Len(t, *slept, 2)
	assert.Equal(t, 3*time.Second, (*slept)[1])

	limit, remaining, _ := g.Snapshot()
	assert.Equal(t, 300, limit)
	assert.Equal(t, 40, remaining)
}

func TestParseResetTime(t *testing.T) {
	rfc := "2025-03-01T12:00:00Z"
	got, err := parseResetTime(rfc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), got)

	httpDate := "Sat, 01 Mar 2025 12:00:00 GMT"
	got, err = parseResetTime(httpDate)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), got)

	epoch := "1740830400"
	got, err = parseResetTime(epoch)
	require.NoError(t, err)
	assert.Equal(t, int64(1740830400), got.Unix())

	_, err = parseResetTime("not a time")
	assert.Error(t, err)
}
