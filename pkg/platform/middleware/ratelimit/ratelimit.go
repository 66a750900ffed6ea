// Package ratelimit throttles callers with an in-memory sliding window.
// Requests are keyed by reviewer ID when authenticated, client IP otherwise,
// so one noisy caller cannot starve the analysis pipeline for everyone else.
package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"fraudlens/pkg/platform/httputil"
	"fraudlens/pkg/requestcontext"
)

// Class names an endpoint class and its request budget per window.
type Class struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Default classes. Analysis fans out to every agent per request, so its
// budget is much tighter than plain reads.
var (
	ClassDefault  = Class{Name: "default", Limit: 120, Window: time.Minute}
	ClassAnalysis = Class{Name: "analysis", Limit: 10, Window: time.Minute}
)

// Result reports one admission decision.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds until the caller should retry
}

// Limiter decides whether a keyed request fits within a class budget.
type Limiter interface {
	Allow(ctx context.Context, key string, class Class) (*Result, error)
}

// MemoryLimiter implements Limiter with per-key sliding windows. The sliding
// window avoids the burst-at-boundary problem of fixed counters.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	timestamps []time.Time
	span       time.Duration
}

// NewMemoryLimiter creates an empty in-memory limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow records the request if it fits within the class budget.
func (l *MemoryLimiter) Allow(_ context.Context, key string, class Class) (*Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.windows[key]
	if w == nil {
		w = &window{span: class.Window}
		l.windows[key] = w
	}
	w.expire(now)

	if len(w.timestamps) >= class.Limit {
		resetAt := w.timestamps[0].Add(w.span)
		retry := int(time.Until(resetAt).Seconds())
		if retry < 1 {
			retry = 1
		}
		return &Result{
			Allowed:    false,
			Limit:      class.Limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retry,
		}, nil
	}

	w.timestamps = append(w.timestamps, now)
	return &Result{
		Allowed:   true,
		Limit:     class.Limit,
		Remaining: class.Limit - len(w.timestamps),
		ResetAt:   w.timestamps[0].Add(w.span),
	}, nil
}

// Reset clears the window for a key.
func (l *MemoryLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

func (w *window) expire(now time.Time) {
	cutoff := now.Add(-w.span)
	i := 0
	for ; i < len(w.timestamps); i++ {
		if w.timestamps[i].After(cutoff) {
			break
		}
	}
	w.timestamps = w.timestamps[i:]
}

// Middleware applies class budgets to routed handlers.
type Middleware struct {
	limiter  Limiter
	logger   *slog.Logger
	disabled bool
}

// Option customizes the middleware.
type Option func(*Middleware)

// WithDisabled turns rate limiting off entirely, for tests and local runs.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// New creates rate limiting middleware backed by the given limiter.
func New(limiter Limiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{limiter: limiter, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Limit enforces the class budget for every request passing through.
// Limiter errors fail open: dropping traffic because the limiter broke
// would turn a bookkeeping fault into an outage.
func (m *Middleware) Limit(class Class) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := callerKey(ctx)

			result, err := m.limiter.Allow(ctx, key, class)
			if err != nil {
				m.logger.WarnContext(ctx, "rate limit check failed", "class", class.Name, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			setRateHeaders(w, result)
			if !result.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
					"error":       "rate_limit_exceeded",
					"message":     "Request budget for this operation is exhausted. Retry later.",
					"retry_after": result.RetryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(ctx context.Context) string {
	if reviewer := requestcontext.ReviewerID(ctx); reviewer != "" {
		return "reviewer:" + reviewer
	}
	return "ip:" + requestcontext.ClientIP(ctx)
}

func setRateHeaders(w http.ResponseWriter, result *Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
