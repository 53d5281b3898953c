package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"notehive/internal/pkg/apperr"
	"notehive/internal/pkg/metrics"
	"notehive/internal/pkg/ratelimit"
)

// RateLimit 按客户端 IP 限流，用于登录与找回密码等敏感接口。
//
// redis 不可用时放行请求：限流是保护手段，不是正确性前提。
func RateLimit(limiter *ratelimit.Limiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, wait, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			if logger != nil {
				logger.Warn("rate limit check failed", slog.String("error", err.Error()))
			}
			c.Next()
			return
		}
		if !allowed {
			metrics.RateLimitedTotal.Inc()
			seconds := int(wait.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			abortWith(c, apperr.New(http.StatusTooManyRequests, apperr.StatusFail, "Too many requests, please try again later."))
			return
		}
		c.Next()
	}
}
