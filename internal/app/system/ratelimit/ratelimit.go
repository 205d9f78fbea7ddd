// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Limiter counts writes per key in fixed windows. Safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	counts map[string]*bucket
	swept  time.Time
	now    func() time.Time
}

type bucket struct {
	n     int
	reset time.Time
}

// New allows limit writes per key in every window.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:  limit,
		window: window,
		counts: map[string]*bucket{},
		now:    time.Now,
	}
}

// Allow counts one write for key. When the key is over its limit it returns
// false and the time left until its window resets.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b := l.counts[key]
	if b == nil || !now.Before(b.reset) {
		l.counts[key] = &bucket{n: 1, reset: now.Add(l.window)}
		return true, 0
	}
	if b.n >= l.limit {
		return false, b.reset.Sub(now)
	}
	b.n++
	return true, 0
}

// sweep drops expired buckets, at most once per window.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.swept) < l.window {
		return
	}
	l.swept = now
	for k, b := range l.counts {
		if !now.Before(b.reset) {
			delete(l.counts, k)
		}
	}
}

// ClientIP is the first X-Forwarded-For hop, then X-Real-IP, then the host
// part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// KeyFunc picks the bucket a request is counted against.
type KeyFunc func(r *http.Request) string

// Writes limits state-changing requests (anything but GET, HEAD and
// OPTIONS). Reads pass through uncounted. Limited requests get 429.
func Writes(l *Limiter, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if ok, wait := l.Allow(key(r)); !ok {
				secs := int(wait.Round(time.Second) / time.Second)
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
