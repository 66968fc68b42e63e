package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/roomiesofficial522-svg/Tkitmaster/internal/shared/utils/response"
	"github.com/roomiesofficial522-svg/Tkitmaster/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Middleware rejects excess traffic for the given bucket before it reaches
// the handlers.
func Middleware(rateLimiter *RateLimiter, bucket Bucket) gin.HandlerFunc {
	return func(c *gin.Context) {
		sourceKey := getSourceKey(c)

		result, err := rateLimiter.IsAllowed(c.Request.Context(), sourceKey, bucket)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "rate limit check failed")
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetTime))

		if !result.Allowed {
			logger.GetDefault().LogRateLimitExceeded(c.Request.Context(), sourceKey, c.FullPath())
			response.Error(c, http.StatusTooManyRequests, "rate limit exceeded")
			c.Abort()
			return
		}

		c.Next()
	}
}

// getSourceKey derives the limiter key: first entry of X-Forwarded-For when
// present, otherwise the TCP peer address. The key is trivially spoofed and
// carries no integrity claim; it exists to support fronting by a trusted
// proxy.
func getSourceKey(c *gin.Context) string {
	xForwardedFor := c.GetHeader("X-Forwarded-For")
	if xForwardedFor != "" {
		ips := strings.Split(xForwardedFor, ",")
		if len(ips) > 0 {
			if ip := strings.TrimSpace(ips[0]); ip != "" {
				return ip
			}
		}
	}

	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}
