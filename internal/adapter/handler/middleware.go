package handler

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RequestLogger logs each request with its id, status and duration.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := middleware.GetReqID(r.Context())
			if reqID == "" {
				reqID = r.Header.Get("X-Request-ID")
			}
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", reqID)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("request_id", reqID),
				zap.Int("status", ww.Status()),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)
		})
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than idleTTL are dropped by Sweep.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	entries map[string]*limiterEntry
}

func NewRateLimiter(perSecond float64, burst int, idleTTL time.Duration, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &RateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idleTTL: idleTTL,
		logger:  logger,
		entries: make(map[string]*limiterEntry),
	}
}

func (l *RateLimiter) Allow(ip string) bool {
	return l.allowAt(ip, time.Now())
}

func (l *RateLimiter) allowAt(ip string, now time.Time) bool {
	l.mu.Lock()
	e, ok := l.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[ip] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Sweep drops buckets not used since now minus the idle TTL and returns how
// many were dropped.
func (l *RateLimiter) Sweep(now time.Time) int {
	cutoff := now.Add(-l.idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for ip, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, ip)
			evicted++
		}
	}
	return evicted
}

// Len is the number of tracked client IPs.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// RunCleanup sweeps idle buckets every interval until ctx is done.
func (l *RateLimiter) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := l.Sweep(now); n > 0 {
				l.logger.Debug("evicted idle rate limiters", zap.Int("count", n))
			}
		}
	}
}

// Middleware answers 429 once a client IP exceeds its bucket.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !l.Allow(ip) {
			l.logger.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", r.URL.Path))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
