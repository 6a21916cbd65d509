package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/homebase/internal/auth"
)

// Headers set by the reverse proxy, most specific first.
var clientIPHeaders = []string{"CF-Connecting-IP", "X-Forwarded-For"}

// RealIP returns the originating client address, trusting proxy headers.
func RealIP(r *http.Request) string {
	for _, h := range clientIPHeaders {
		if v := r.Header.Get(h); v != "" {
			first, _, _ := strings.Cut(v, ",")
			return strings.TrimSpace(first)
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

type window struct {
	hits  int
	reset time.Time
}

// RateLimiter counts hits per key in fixed windows held in process memory.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]window
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{windows: make(map[string]window), now: time.Now}
}

// Allow records a hit for key and reports whether it is within limit.
func (rl *RateLimiter) Allow(key string, limit int, per time.Duration) bool {
	ok, _ := rl.take(key, limit, per)
	return ok
}

// take records a hit and returns how long until the key's window resets.
func (rl *RateLimiter) take(key string, limit int, per time.Duration) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || !now.Before(w.reset) {
		w = window{reset: now.Add(per)}
	}
	w.hits++
	rl.windows[key] = w
	return w.hits <= limit, w.reset.Sub(now)
}

// Cleanup forgets windows that have already reset.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, w := range rl.windows {
		if !now.Before(w.reset) {
			delete(rl.windows, key)
		}
	}
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (rl *RateLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Cleanup()
		}
	}
}

// ByUser keys on the authenticated user, falling back to the client IP.
func ByUser(r *http.Request) string {
	if id := auth.UserID(r.Context()); id != 0 {
		return "user:" + strconv.FormatInt(id, 10)
	}
	return "ip:" + RealIP(r)
}

// RateLimit rejects requests over limit per window with 429 and a
// Retry-After header counting down to the window reset.
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string, limit int, per time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := limiter.take(keyFunc(r), limit, per)
			if !ok {
				secs := int(math.Ceil(wait.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
