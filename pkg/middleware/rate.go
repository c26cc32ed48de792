// Package middleware provides the HTTP middleware used by the painel kernel.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/multidelivery/painel/pkg/response"
)

// bucket tracks a fixed-window request count for one IP.
type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

func (b *bucket) allow(max int, window time.Duration, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(window)
	}

	b.count++
	return b.count <= max
}

// RateLimiter limits each client IP to max requests per window.
type RateLimiter struct {
	max    int
	window time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	sweep   sync.Once
}

func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{max: max, window: window, buckets: map[string]*bucket{}}
}

func (l *RateLimiter) get(ip string) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[ip]; ok {
		return b
	}
	b := &bucket{resetAt: time.Now().Add(l.window)}
	l.buckets[ip] = b
	return b
}

// Evict drops buckets whose window ended before now.
func (l *RateLimiter) Evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, b := range l.buckets {
		b.mu.Lock()
		expired := now.After(b.resetAt)
		b.mu.Unlock()
		if expired {
			delete(l.buckets, ip)
		}
	}
}

func (l *RateLimiter) startSweeper() {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for now := range ticker.C {
			l.Evict(now)
		}
	}()
}

// Middleware rejects requests over the limit with 429.
// Push streams are long-lived and not counted.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	l.sweep.Do(l.startSweeper)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.max <= 0 || strings.HasSuffix(r.URL.Path, "/events") || strings.HasSuffix(r.URL.Path, "/ws") {
			next.ServeHTTP(w, r)
			return
		}

		ip := r.RemoteAddr
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			ip = strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
		}

		if !l.get(ip).allow(l.max, l.window, time.Now()) {
			w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
			response.TooManyRequests(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimit is shorthand for NewRateLimiter(max, window).Middleware.
func RateLimit(max int, window time.Duration) func(http.Handler) http.Handler {
	return NewRateLimiter(max, window).Middleware
}
