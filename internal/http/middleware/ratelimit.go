package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const submissionWindow = 24 * time.Hour

// Counter counts hits on a key within a fixed window.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, retryAfter time.Duration, err error)
}

type RedisCounter struct {
	client *redis.Client
	prefix string
}

func NewRedisCounter(client *redis.Client, prefix string) *RedisCounter {
	return &RedisCounter{client: client, prefix: prefix}
}

func (r *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	fullKey := r.prefix + ":" + key

	count, err := r.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return 0, 0, err
	}
	// The window starts with the first hit.
	if count == 1 {
		if err := r.client.Expire(ctx, fullKey, window).Err(); err != nil {
			return 0, 0, err
		}
		return count, window, nil
	}

	ttl, err := r.client.TTL(ctx, fullKey).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		// Repair a key that lost its expiry.
		if err := r.client.Expire(ctx, fullKey, window).Err(); err != nil {
			return 0, 0, err
		}
		ttl = window
	}
	return count, ttl, nil
}

// SubmissionLimit caps citizen submissions per client IP per day. Counter
// failures let the request through.
func SubmissionLimit(counter Counter, limit int, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, retryAfter, err := counter.Hit(c.Request.Context(), c.ClientIP(), submissionWindow)
		if err != nil {
			log.Error().Err(err).Msg("rate limiter unavailable")
			c.Next()
			return
		}

		if count > int64(limit) {
			seconds := int64(math.Ceil(retryAfter.Seconds()))
			c.Header("Retry-After", strconv.FormatInt(seconds, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": seconds,
			})
			return
		}

		c.Next()
	}
}
