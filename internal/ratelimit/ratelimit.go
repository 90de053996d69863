// Package ratelimit throttles requests with expiring counters in Redis.
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/isdelr/blog-api/internal/api/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// MsgTooManyRequests is returned with 429 responses.
const MsgTooManyRequests = "Too many requests. Try again later."

// Limiter counts requests per key in Redis.
type Limiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// New creates a Limiter allowing limit requests per key in each window.
func New(client *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: int64(limit), window: window}
}

// Allow increments the counter for key and reports whether it is still within
// the limit, along with the current count. Every hit pushes the expiry out by
// a full window, so a client is only forgiven after a quiet window.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, int64, error) {
	k := "rl:" + key
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}
	n := incr.Val()
	return n <= l.limit, n, nil
}

// Middleware limits requests per client IP under prefix. Redis failures let
// the request through.
func (l *Limiter) Middleware(prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := prefix + ":" + clientIP(r)
			ok, n, err := l.Allow(r.Context(), key)
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("Rate limiter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				log.Warn().Str("key", key).
					Int64("count", n).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("Rate limit exceeded")
				w.Header().Set("Retry-After", strconv.Itoa(int(l.window.Seconds())))
				response.Error(w, http.StatusTooManyRequests, MsgTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP strips the port from RemoteAddr, which chi's RealIP middleware has
// already replaced with the forwarded address when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
