package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipLimiter pairs a token-bucket limiter with its last access time so
// stale entries can be evicted.
type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter manages per-IP limiters with automatic eviction of stale entries.
type rateLimiter struct {
	mu                sync.Mutex
	limiters          map[string]*ipLimiter
	requestsPerMinute int
	maxLimiters       int
	trustProxy        bool
}

func newRateLimiter(requestsPerMinute int, trustProxy bool) *rateLimiter {
	rl := &rateLimiter{
		limiters:          make(map[string]*ipLimiter),
		requestsPerMinute: requestsPerMinute,
		maxLimiters:       10000,
		trustProxy:        trustProxy,
	}
	go rl.evictionLoop()
	return rl
}

// evictionLoop periodically removes stale limiters to prevent unbounded memory growth.
func (rl *rateLimiter) evictionLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		rl.evictStale(10 * time.Minute)
	}
}

// evictStale removes limiters not accessed within maxAge.
func (rl *rateLimiter) evictStale(maxAge time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for ip, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, ip)
		}
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[ip]
	if !ok {
		// If we've hit maxLimiters, reject new IPs to prevent memory exhaustion.
		if len(rl.limiters) >= rl.maxLimiters {
			return false
		}
		entry = &ipLimiter{
			limiter: rate.NewLimiter(
				rate.Limit(float64(rl.requestsPerMinute)/60.0),
				rl.requestsPerMinute,
			),
		}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// NewRateLimiter returns a middleware that limits requests per minute per
// remote IP. trustProxy stays off: interaction deliveries come straight
// from the platform, not through a proxy we control.
func NewRateLimiter(requestsPerMinute int) func(http.Handler) http.Handler {
	rl := newRateLimiter(requestsPerMinute, false)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.allow(remoteIP(r, rl.trustProxy)) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// remoteIP extracts the client IP from the request.
// Only trusts X-Forwarded-For when trustProxy is true (i.e., behind a known reverse proxy).
func remoteIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// Take the first (client) IP in the list.
			if idx := strings.IndexByte(xff, ','); idx != -1 {
				return strings.TrimSpace(xff[:idx])
			}
			return strings.TrimSpace(xff)
		}
	}
	// Strip port from RemoteAddr.
	addr := r.RemoteAddr
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}
