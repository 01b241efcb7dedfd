package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"payments_backend/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window limiter keyed by client IP. Counters live in
// Redis when a client is given; otherwise, and whenever Redis errors, an
// in-process window is used.
type RateLimiter struct {
	rdb         *redis.Client
	maxRequests int
	window      time.Duration
	local       *windowCounter
	now         func() time.Time
}

// NewRateLimiter returns a limiter. rdb may be nil. A maxRequests of zero
// disables limiting.
func NewRateLimiter(rdb *redis.Client, maxRequests int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		rdb:         rdb,
		maxRequests: maxRequests,
		window:      window,
		local:       newWindowCounter(window),
		now:         time.Now,
	}
}

// key format: rl:<window_seconds>:<identifier>
func (l *RateLimiter) key(ident string) string {
	return "rl:" + strconv.FormatInt(int64(l.window.Seconds()), 10) + ":" + ident
}

func (l *RateLimiter) count(ctx context.Context, ident string) int64 {
	if l.rdb != nil {
		key := l.key(ident)
		val, err := l.rdb.Incr(ctx, key).Result()
		if err == nil {
			if val == 1 {
				l.rdb.Expire(ctx, key, l.window)
			}
			return val
		}
		logger.WithContext(ctx).Warn("rate limiter redis error, using local window", "error", err)
	}
	return int64(l.local.hit(ident, l.now()))
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.maxRequests <= 0 {
			c.Next()
			return
		}

		val := l.count(c.Request.Context(), c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(l.maxRequests)-val), 10))

		if val > int64(l.maxRequests) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int(l.window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
