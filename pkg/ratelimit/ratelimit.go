// Package ratelimit guards the auth surface against brute-force
// attempts with a per-client token bucket.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/render"

	"github.com/tendant/simple-bff/pkg/apierror"
)

// bucket is a token bucket refilled continuously by elapsed time.
type bucket struct {
	mu       sync.Mutex
	tokens   float64
	lastSeen time.Time
}

// Limiter rate-limits requests per client IP.
type Limiter struct {
	capacity   int
	refillRate float64
	ttl        time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
}

// Option configures a Limiter
type Option func(*Limiter)

// WithBucketTTL sets how long idle client buckets stay in memory.
func WithBucketTTL(ttl time.Duration) Option {
	return func(l *Limiter) {
		l.ttl = ttl
	}
}

// NewLimiter creates a Limiter allowing a burst of capacity requests and
// refilling at refillRate requests per second per client.
func NewLimiter(capacity int, refillRate float64, opts ...Option) *Limiter {
	l := &Limiter{
		capacity:   capacity,
		refillRate: refillRate,
		ttl:        time.Hour,
		buckets:    make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(l)
	}
	go l.cleanup()
	return l
}

// Allow reports whether a request from key is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.capacity), lastSeen: time.Now()}
		l.buckets[key] = b
	}
	l.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.lastSeen).Seconds() * l.refillRate
	if max := float64(l.capacity); b.tokens > max {
		b.tokens = max
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (l *Limiter) cleanup() {
	ticker := time.NewTicker(l.ttl)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-l.ttl)
		l.mu.Lock()
		for key, b := range l.buckets {
			b.mu.Lock()
			idle := b.lastSeen.Before(cutoff)
			b.mu.Unlock()
			if idle {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

// Handler is a chi middleware rejecting over-limit clients with 429 and
// the classified error shape the front-end already understands.
func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, map[string]any{
				"success": false,
				"error": &apierror.ApiError{
					Status:  http.StatusTooManyRequests,
					Code:    apierror.CodeTooManyRequests,
					Message: "Too many requests. Please try again later.",
				},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP resolves the originating client address, preferring the
// first X-Forwarded-For hop set by the fronting proxy.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
