package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"talentmatch/internal/config"
	"talentmatch/internal/errors"
	"talentmatch/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

const defaultLimiterIdle = 10 * time.Minute

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client key. Buckets idle for
// longer than the configured window are evicted.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time

	done   chan struct{}
	once   sync.Once
	logger *errors.Logger
}

// NewRateLimiter creates a limiter allowing cfg.RequestsPerMin per client
// with cfg.BurstCapacity tokens. cfg.Window is the idle eviction window.
func NewRateLimiter(cfg config.RateLimitConfig, logger *errors.Logger) *RateLimiter {
	idle := cfg.Window
	if idle <= 0 {
		idle = defaultLimiterIdle
	}
	l := &RateLimiter{
		clients: make(map[string]*clientBucket),
		limit:   rate.Limit(float64(cfg.RequestsPerMin) / 60.0),
		burst:   max(cfg.BurstCapacity, 1),
		idle:    idle,
		now:     time.Now,
		done:    make(chan struct{}),
		logger:  logger,
	}
	go l.evictLoop()
	return l
}

// Allow takes a token for key. When none is available it returns false and
// the wait until the next token.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	b, ok := l.clients[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, l.idle
	}
	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)
		return false, wait
	}
	return true, 0
}

// GetStats returns current rate limiter statistics
func (l *RateLimiter) GetStats() map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()

	return map[string]any{
		"enabled":         true,
		"active_clients":  len(l.clients),
		"rate_per_minute": float64(l.limit) * 60.0,
		"burst_capacity":  l.burst,
		"idle_eviction":   l.idle.String(),
	}
}

func (l *RateLimiter) evictLoop() {
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.done:
			return
		}
	}
}

// evictIdle drops buckets not seen within the idle window.
func (l *RateLimiter) evictIdle() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idle)
	evicted := 0
	for key, b := range l.clients {
		if b.lastSeen.Before(cutoff) {
			delete(l.clients, key)
			evicted++
		}
	}
	if evicted > 0 {
		l.logger.Debug("Evicted idle rate limiters", "evicted", evicted, "remaining", len(l.clients))
	}
	return evicted
}

// Close stops the eviction goroutine. Safe to call more than once.
func (l *RateLimiter) Close() {
	l.once.Do(func() { close(l.done) })
}

// rateLimitMiddleware rejects over-limit clients with 429 and a
// Retry-After header, and counts each rejection.
func (s *Server) rateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := getRateLimitKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if key == "" {
				next(w, r)
				return
			}

			ok, wait := s.RateLimiter.Allow(key)
			if !ok {
				s.Logger.Info("Rate limit exceeded",
					"key", maskRateLimitKey(key),
					"endpoint", r.URL.Path,
					"retry_after", wait.String())
				om.GetMetrics().RecordRateLimitHit(r.Context(),
					attribute.String("endpoint", r.Pattern),
					attribute.String("method", r.Method))

				w.Header().Set("Retry-After", retryAfterSeconds(wait))
				writeErrorResponse(w, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
				return
			}
			next(w, r)
		}
	}
}

// retryAfterSeconds rounds up to whole seconds, at least one.
func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(max(int(math.Ceil(d.Seconds())), 1))
}

// getRateLimitKey prefers the API key over the client IP when both are enabled.
func getRateLimitKey(r *http.Request, byAPIKey, byIP bool) string {
	if byAPIKey {
		if apiKey := requestAPIKey(r); apiKey != "" {
			return "api:" + apiKey
		}
	}
	if byIP {
		return "ip:" + getClientIP(r)
	}
	return ""
}

func maskRateLimitKey(key string) string {
	if apiKey, ok := strings.CutPrefix(key, "api:"); ok {
		return "api:" + maskAPIKey(apiKey)
	}
	return key
}

// getClientIP trusts X-Forwarded-For, then X-Real-IP, then RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for ip := range strings.SplitSeq(xff, ",") {
			if ip = strings.TrimSpace(ip); net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
