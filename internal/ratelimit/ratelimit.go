// Package ratelimit throttles requests per client with a Redis fixed window.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter allows Limit requests per Window for each resource and client.
// A nil Limiter allows everything.
type Limiter struct {
	Client *redis.Client
	Limit  int
	Window time.Duration
}

// New connects a Limiter to the Redis server at redisURL. An empty URL or a
// non-positive limit disables limiting and returns nil.
func New(redisURL string, limit int, window time.Duration) (*Limiter, error) {
	if redisURL == "" || limit <= 0 {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}
	return &Limiter{Client: redis.NewClient(opts), Limit: limit, Window: window}, nil
}

// Close releases the Redis connection.
func (l *Limiter) Close() error {
	if l == nil {
		return nil
	}
	return l.Client.Close()
}

// Allow records one request for id against resource and reports whether it
// is within the limit.
func (l *Limiter) Allow(ctx context.Context, resource, id string) (bool, error) {
	if l == nil {
		return true, nil
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	// INCR and set EXPIRE if new.
	cnt, err := l.Client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		if err := l.Client.Expire(ctx, key, l.Window).Err(); err != nil {
			return false, err
		}
	}
	return cnt <= int64(l.Limit), nil
}

// ClientIP returns the host part of the request's remote address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware limits requests to next by client IP. Redis failures let the
// request through.
func (l *Limiter) Middleware(resource string, onLimited http.Handler, next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, err := l.Allow(r.Context(), resource, ClientIP(r))
		if err != nil {
			slog.Warn("rate limit check failed", "resource", resource, "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			slog.Warn("rate limit exceeded", "resource", resource, "remote", ClientIP(r))
			onLimited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
