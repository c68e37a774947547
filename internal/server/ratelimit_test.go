package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"talentmatch/internal/config"
	"talentmatch/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedLimiter(t *testing.T, cfg config.RateLimitConfig) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	l := NewRateLimiter(cfg, errors.Discard())
	l.now = clock.now
	t.Cleanup(l.Close)
	return l, clock
}

func TestRateLimiterAllow(t *testing.T) {
	l, clock := newClockedLimiter(t, config.RateLimitConfig{RequestsPerMin: 60, BurstCapacity: 2})

	ok, _ := l.Allow("ip:a")
	assert.True(t, ok)
	ok, _ = l.Allow("ip:a")
	assert.True(t, ok)

	ok, wait := l.Allow("ip:a")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	// a rejected request does not consume a token
	clock.advance(time.Second)
	ok, _ = l.Allow("ip:a")
	assert.True(t, ok)

	ok, _ = l.Allow("ip:b")
	assert.True(t, ok, "clients have separate buckets")
}

func TestRateLimiterZeroBurstStillAllowsOne(t *testing.T) {
	l, _ := newClockedLimiter(t, config.RateLimitConfig{RequestsPerMin: 60, BurstCapacity: 0})

	ok, _ := l.Allow("ip:a")
	assert.True(t, ok)
	assert.Equal(t, 1, l.GetStats()["burst_capacity"])
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	l, clock := newClockedLimiter(t, config.RateLimitConfig{RequestsPerMin: 60, BurstCapacity: 1, Window: time.Minute})

	l.Allow("ip:old")
	clock.advance(45 * time.Second)
	l.Allow("ip:new")

	clock.advance(30 * time.Second)
	assert.Equal(t, 1, l.evictIdle())
	assert.Equal(t, 1, l.GetStats()["active_clients"])

	// an evicted client starts again with a full bucket
	ok, _ := l.Allow("ip:old")
	assert.True(t, ok)
}

func TestRateLimiterDefaults(t *testing.T) {
	l := NewRateLimiter(config.RateLimitConfig{RequestsPerMin: 120, BurstCapacity: 5}, errors.Discard())
	defer l.Close()
	l.Close()

	stats := l.GetStats()
	assert.Equal(t, "10m0s", stats["idle_eviction"])
	assert.InDelta(t, 120.0, stats["rate_per_minute"], 0.001)
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, "1", retryAfterSeconds(0))
	assert.Equal(t, "1", retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, "2", retryAfterSeconds(1500*time.Millisecond))
	assert.Equal(t, "60", retryAfterSeconds(59999*time.Millisecond))
}

func TestGetRateLimitKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	req.RemoteAddr = "192.0.2.1:1234"

	assert.Equal(t, "ip:192.0.2.1", getRateLimitKey(req, true, true))
	assert.Empty(t, getRateLimitKey(req, true, false))

	req.Header.Set("X-API-Key", "key-123456789")
	assert.Equal(t, "api:key-123456789", getRateLimitKey(req, true, true))
	assert.Equal(t, "ip:192.0.2.1", getRateLimitKey(req, false, true))

	require.Equal(t, "api:key-1234****", maskRateLimitKey("api:key-123456789"))
	assert.Equal(t, "ip:192.0.2.1", maskRateLimitKey("ip:192.0.2.1"))
}
