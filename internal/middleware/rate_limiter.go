package middleware

import (
	"log"
	"net"
	"net/http"
	"sync"
	"time"
)

// RateLimiter enforces a per-client request budget on the public API.
//
// Sliding one-minute windows per client key; expired windows are
// garbage-collected periodically. Worker routes are not limited; the
// token gate is their admission control.
type RateLimiter struct {
	mu        sync.RWMutex
	windows   map[string]*rateLimitWindow
	perMinute int
	burst     int
	logger    *log.Logger
}

type rateLimitWindow struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a limiter allowing perMinute requests per
// client key. Burst tolerance is twice the limit.
func NewRateLimiter(perMinute int) *RateLimiter {
	rl := &RateLimiter{
		windows:   make(map[string]*rateLimitWindow),
		perMinute: perMinute,
		burst:     perMinute * 2,
		logger:    log.New(log.Writer(), "[RATE-LIMIT] ", log.LstdFlags),
	}
	go rl.cleanup()
	return rl
}

// Allow checks whether a request from the given key is within budget.
// Read-first: existing active windows are checked under RLock; the
// write lock is taken only to open a window. The count increment under
// RLock is a benign race, this is a soft limit.
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()

	rl.mu.RLock()
	window, exists := rl.windows[key]
	if exists && now.Sub(window.windowStart) <= time.Minute {
		window.count++
		count := window.count
		rl.mu.RUnlock()

		if count > rl.burst {
			rl.logger.Printf("🚫 rate limit exceeded (burst): key=%s count=%d limit=%d", key, count, rl.burst)
			return false
		}
		if count > rl.perMinute {
			rl.logger.Printf("⚠️ rate limit exceeded: key=%s count=%d limit=%d", key, count, rl.perMinute)
			return false
		}
		return true
	}
	rl.mu.RUnlock()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	window, exists = rl.windows[key]
	if exists && now.Sub(window.windowStart) <= time.Minute {
		window.count++
		return window.count <= rl.burst
	}

	rl.windows[key] = &rateLimitWindow{count: 1, windowStart: now}
	return true
}

// Middleware enforces the limit, keyed by X-Client-ID falling back to
// the remote host.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Client-ID")
		if key == "" {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			key = host
		}

		if !rl.Allow(key) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded","retry_after_seconds":60}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// cleanup drops stale windows so idle clients don't accumulate.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, window := range rl.windows {
			if now.Sub(window.windowStart) > 2*time.Minute {
				delete(rl.windows, key)
			}
		}
		rl.mu.Unlock()
	}
}
