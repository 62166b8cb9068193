package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotenceHeader = "x-idempotence"

	idempotencePrefix = "fieldkit:idempotence:"
	idempotenceTTL    = 60 * time.Second
)

// Idempotence rejects a repeated write carrying the same x-idempotence key
// while the first is in flight, or within a minute of it succeeding. Requests
// without the header pass through.
func Idempotence(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		key := idempotenceKey(c)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		acquired, err := rdb.SetNX(ctx, key, "0", idempotenceTTL).Result()
		if err != nil {
			c.Next()
			return
		}
		if !acquired {
			msg := "an identical request succeeded less than 60 seconds ago"
			if val, err := rdb.Get(ctx, key).Result(); err == nil && val == "0" {
				msg = "an identical request is still being processed"
			}
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"ok":      0,
				"code":    http.StatusConflict,
				"message": msg,
			})
			return
		}

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 {
			rdb.Set(ctx, key, "1", redis.KeepTTL)
		} else {
			rdb.Del(ctx, key)
		}
	}
}

// idempotenceKey scopes the header value to the route so one key cannot
// block unrelated writes.
func idempotenceKey(c *gin.Context) string {
	hdr := strings.TrimSpace(c.GetHeader(IdempotenceHeader))
	if hdr == "" {
		return ""
	}
	return idempotencePrefix + c.Request.Method + ":" + c.Request.URL.Path + ":" + hdr
}
