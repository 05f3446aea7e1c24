package middleware

import (
	"fmt"      // Key formatting
	"net/http" // HTTP status codes
	"strconv"  // Header values
	"time"     // Window length

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// RateLimitMiddleware allows limit requests per caller and path in each
// fixed window. Callers are identified by user id, or client IP before login.
// A nil client disables the limit. Redis failures let the request through.
func RateLimitMiddleware(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}
		caller := c.ClientIP()
		if userID, exists := c.Get(ContextUserID); exists {
			caller = fmt.Sprintf("user:%v", userID)
		}
		key := fmt.Sprintf("rate_limit:%s:%s", c.FullPath(), caller)

		ctx := c.Request.Context()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Rate limit check failed")
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(ctx, key, window) // Start the window on the first hit
		}
		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if count > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
