package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateLimitPrefix = "fieldkit:rate_limit:"

// RateLimit allows limit requests per client IP in each fixed window. Redis
// failures let the request through.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	if window < time.Second {
		window = time.Second
	}
	retryAfter := strconv.Itoa(int(window / time.Second))

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := rateLimitKey(ip, time.Now(), window)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Debug("rate limit unavailable", zap.Error(err))
			c.Next()
			return
		}

		if count == 1 {
			rdb.PExpire(ctx, key, window+time.Second)
		}

		if count > int64(limit) {
			log.Info("rate limited", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"ok":      0,
				"code":    http.StatusTooManyRequests,
				"message": "too many requests, slow down",
			})
			return
		}

		c.Next()
	}
}

func rateLimitKey(ip string, now time.Time, window time.Duration) string {
	return fmt.Sprintf("%s%s:%d", rateLimitPrefix, ip, now.UnixNano()/int64(window))
}
