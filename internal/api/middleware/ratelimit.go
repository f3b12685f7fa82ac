package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/phrazzld/task-api/internal/api/shared"
	"github.com/phrazzld/task-api/internal/platform/logger"
	"github.com/phrazzld/task-api/internal/platform/metrics"
)

// RateLimitMessage is returned with every 429.
const RateLimitMessage = "Too many requests from this IP, please try again later"

// WindowCounter counts hits per key within a fixed window.
// cache.RedisCache implements it with INCR and EXPIRE.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimiter is a fixed-window limiter keyed by client IP.
type RateLimiter struct {
	counter WindowCounter
	max     int64
	window  time.Duration
	scope   string
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewRateLimiter allows max requests per window for each client IP. scope
// labels the blocked-request metric. m may be nil.
func NewRateLimiter(counter WindowCounter, max int, window time.Duration, scope string, m *metrics.Metrics) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		max:     int64(max),
		window:  window,
		scope:   scope,
		metrics: m,
		now:     time.Now,
	}
}

// Limit is the middleware. When the counter store fails the request is let
// through and a warning is logged.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := l.now()
		windowStart := now.Truncate(l.window)
		key := fmt.Sprintf("rl:%d:%s", windowStart.Unix(), clientIP(r))

		count, err := l.counter.IncrWindow(r.Context(), key, l.window)
		if err != nil {
			logger.FromContext(r.Context()).Warn("rate limiter unavailable, allowing request",
				"error", err)
			next.ServeHTTP(w, r)
			return
		}

		remaining := l.max - count
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(l.max, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > l.max {
			reset := windowStart.Add(l.window).Sub(now)
			w.Header().Set("Retry-After", strconv.Itoa(int(reset.Seconds())+1))
			l.metrics.RateLimited(l.scope)
			shared.RespondWithError(w, r, http.StatusTooManyRequests, RateLimitMessage)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the host part of RemoteAddr, which chi's RealIP
// middleware has already rewritten from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
