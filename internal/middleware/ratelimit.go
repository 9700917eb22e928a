package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	KeyPrefix         string
	// ExemptPaths are served without consuming a visitor's budget
	ExemptPaths []string
}

// fixedWindow counts hits per key in redis; the first hit of a window sets its expiry
type fixedWindow struct {
	client *redis.Client
	config RateLimitConfig
}

func (l fixedWindow) hit(ctx context.Context, clientID string) (int64, time.Duration, error) {
	key := l.config.KeyPrefix + ":" + clientID

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, l.config.Window)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	remaining := ttl.Val()
	if remaining <= 0 {
		remaining = l.config.Window
	}
	return incr.Val(), remaining, nil
}

// RateLimitMiddleware limits each visitor address to a fixed number of requests per window.
// When redis is unreachable requests pass through unlimited.
func RateLimitMiddleware(redisClient *redis.Client, config RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	limiter := fixedWindow{client: redisClient, config: config}
	exempt := make(map[string]bool, len(config.ExemptPaths))
	for _, p := range config.ExemptPaths {
		exempt[p] = true
	}
	limit := strconv.Itoa(config.RequestsPerWindow)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exempt[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			// RealIP runs first, so RemoteAddr already carries the forwarded address
			clientID := clientAddr(r.RemoteAddr)
			count, ttl, err := limiter.hit(r.Context(), clientID)
			if err != nil {
				logger.Error("Failed to count request for rate limit",
					zap.Error(err),
					zap.String("client", clientID),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", limit)
			if count > int64(config.RequestsPerWindow) {
				logger.Warn("Rate limit exceeded",
					zap.String("client", clientID),
					zap.String("path", r.URL.Path),
					zap.Int64("count", count),
				)

				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))
				w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Round(time.Second).Seconds())))
				RespondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(config.RequestsPerWindow)-count, 10))
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
