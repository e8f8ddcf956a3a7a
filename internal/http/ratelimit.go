package http

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// rateLimiter is a fixed-window per-client limiter. It exists to keep a
// misbehaving dashboard from hammering the upstream API through us, not
// to be a precise traffic shaper.
type rateLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	counters map[string]*windowCounter
}

type windowCounter struct {
	windowStart time.Time
	count       int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:    limit,
		window:   window,
		counters: make(map[string]*windowCounter),
	}
}

func (rl *rateLimiter) allow(clientKey string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	counter, ok := rl.counters[clientKey]
	if !ok || now.Sub(counter.windowStart) >= rl.window {
		rl.counters[clientKey] = &windowCounter{windowStart: now, count: 1}
		return true
	}
	if counter.count >= rl.limit {
		return false
	}
	counter.count++
	return true
}

// CleanExpired drops counters whose window has long passed, so the map
// does not grow with every client ever seen. Satisfies cache.Cleaner.
func (rl *rateLimiter) CleanExpired() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, counter := range rl.counters {
		if now.Sub(counter.windowStart) >= 2*rl.window {
			delete(rl.counters, key)
			removed++
		}
	}
	return removed
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !rl.allow(host) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
