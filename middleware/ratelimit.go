package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// KeyFunc maps a request to the bucket it is counted against. An empty key
// exempts the request.
type KeyFunc func(*http.Request) string

type window struct {
	start time.Time
	hits  int
}

// RateLimiter counts hits per key in fixed windows of equal length.
type RateLimiter struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu        sync.Mutex
	windows   map[string]window
	nextSweep time.Time
}

// NewRateLimiter allows limit hits per key in every period.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		period:  period,
		now:     time.Now,
		windows: make(map[string]window),
	}
}

// Allow records a hit for key. When the key is over its limit it returns
// false and the time left until its window closes.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if !now.Before(rl.nextSweep) {
		rl.sweep(now)
		rl.nextSweep = now.Add(rl.period)
	}

	w, ok := rl.windows[key]
	if !ok || !now.Before(w.start.Add(rl.period)) {
		w = window{start: now}
	}
	if w.hits >= rl.limit {
		return false, w.start.Add(rl.period).Sub(now)
	}
	w.hits++
	rl.windows[key] = w
	return true, 0
}

// sweep drops closed windows; rl.mu must be held.
func (rl *RateLimiter) sweep(now time.Time) {
	for key, w := range rl.windows {
		if !now.Before(w.start.Add(rl.period)) {
			delete(rl.windows, key)
		}
	}
}

// ClientIP keys a request by the first X-Forwarded-For address, falling
// back to the connection's remote address. The forwarded header is trusted,
// so the service must sit behind a proxy that overwrites it.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return "ip:" + ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// RateLimit rejects requests over the limiter's quota with 429 and a
// Retry-After header. A nil limiter disables it.
func RateLimit(limiter *RateLimiter, key KeyFunc) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if limiter == nil || key == nil {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next(w, r)
				return
			}

			ok, wait := limiter.Allow(k)
			if ok {
				next(w, r)
				return
			}

			seconds := int((wait + time.Second - 1) / time.Second)
			slog.Warn("Too many auth attempts", "key", k, "path", sanitizePath(r.URL.Path), "retry_after", seconds)
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeJSONError(w, "Rate limit exceeded", http.StatusTooManyRequests)
		}
	}
}
