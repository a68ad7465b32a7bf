// Package ratelimit throttles anonymous write endpoints per client IP with
// token buckets from golang.org/x/time/rate.
//
// Buckets live in process memory, so on their own each instance enforces
// the limit separately and N instances admit N times the traffic. With
// WithSharedWindow every instance also counts hits in one shared
// per-minute window (Redis in production), which caps the total.
package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"civic/pkg/platform/privacy"
	"civic/pkg/requestcontext"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per key.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	now      func() time.Time
	logger   *slog.Logger

	perMinute int
	shared    Window
}

// Window counts hits per key in fixed windows shared by every instance.
// Hit records one hit and returns the total for the current window.
type Window interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type Option func(*Limiter)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

// WithSharedWindow caps each key at perMinute hits per minute across all
// instances sharing w. When w errors the local bucket decides alone.
func WithSharedWindow(w Window) Option {
	return func(l *Limiter) { l.shared = w }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New allows perMinute requests per key per minute with the given burst.
func New(perMinute, burst int, opts ...Option) *Limiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	l := &Limiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		now:      time.Now,
		logger:   slog.Default(),

		perMinute: perMinute,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether one more request for key fits in its bucket.
func (l *Limiter) Allow(key string) bool {
	return l.AllowContext(context.Background(), key)
}

// AllowContext is Allow plus the shared window, when one is configured.
func (l *Limiter) AllowContext(ctx context.Context, key string) bool {
	if !l.allowLocal(key) {
		return false
	}
	if l.shared == nil {
		return true
	}
	hits, err := l.shared.Hit(ctx, key, time.Minute)
	if err != nil {
		l.logger.WarnContext(ctx, "shared rate limit window unavailable", "error", err)
		return true
	}
	return hits <= int64(l.perMinute)
}

func (l *Limiter) allowLocal(key string) bool {
	now := l.now()
	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mu.Unlock()
	return v.limiter.AllowN(now, 1)
}

// Prune drops buckets idle for longer than idle and returns how many were removed.
func (l *Limiter) Prune(idle time.Duration) int {
	cutoff := l.now().Add(-idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

// Run prunes idle buckets every interval until ctx is cancelled.
func (l *Limiter) Run(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Prune(idle); n > 0 {
				l.logger.Debug("pruned idle rate limit buckets", "count", n)
			}
		}
	}
}

// PerIP rejects requests over the limit with 429. It keys on the client IP
// resolved by the metadata middleware.
func (l *Limiter) PerIP(next http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(math.Ceil(1 / float64(l.limit))))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)
		if ip == "" {
			ip = r.RemoteAddr
		}
		if !l.AllowContext(ctx, ip) {
			l.logger.WarnContext(ctx, "rate limit exceeded",
				"ip_prefix", privacy.AnonymizeIP(ip),
				"path", r.URL.Path,
				"request_id", requestcontext.RequestID(ctx),
			)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", retryAfter)
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limited","error_description":"Too many requests, try again later"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
