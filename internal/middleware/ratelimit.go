package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pagehub/pagehub-backend/internal/config"
	"github.com/pagehub/pagehub-backend/internal/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Counter counts hits on key within a window and returns the new total.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter counts with INCR and EXPIRE sent in one transaction, so a
// counter key never outlives its window. Every hit restarts the window.
type RedisCounter struct {
	rdb redis.Cmdable
}

// NewRedisCounter creates a RedisCounter.
func NewRedisCounter(rdb redis.Cmdable) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

// Hit implements Counter.
func (r *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimiter implements a per-IP window limiter backed by Redis, so the
// limit holds across server instances.
type RateLimiter struct {
	counter Counter
	limit   int64
	window  time.Duration
	log     zerolog.Logger
}

// NewRateLimiter creates a RateLimiter (e.g., 30 requests per minute).
func NewRateLimiter(counter Counter, limit int, window time.Duration, log zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		limit:   int64(limit),
		window:  window,
		log:     log.With().Str("component", "rate_limiter").Logger(),
	}
}

// Middleware returns a Gin middleware that rate-limits requests by IP.
// Redis failures let the request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := config.CacheKey.AuthRateKey(c.ClientIP())

		n, err := rl.counter.Hit(ctx, key, rl.window)
		if err != nil {
			rl.log.Warn().Err(err).Msg("Rate limit check failed, allowing request")
			c.Next()
			return
		}

		remaining := rl.limit - n
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(rl.limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if n > rl.limit {
			c.Header("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}

		c.Next()
	}
}
