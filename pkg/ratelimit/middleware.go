package ratelimit

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"concertticket/internal/shared/utils/response"
	applogger "concertticket/pkg/logger"
)

// Middleware applies the limit of the route group the request falls in.
// Clients are keyed by gin's ClientIP, which only honours forwarding
// headers from the engine's trusted proxies.
func Middleware(rateLimiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		limitType := getRateLimitType(c.Request.Method, c.FullPath())

		result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
		if err != nil {
			applogger.GetDefault().WithError(err).Error("Rate limit check failed", "ip", clientIP)
			response.RespondJSON(c, "error", http.StatusInternalServerError,
				"Rate limit check failed", nil, nil)
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime, 10))

		if !result.Allowed {
			applogger.GetDefault().LogRateLimitExceeded(c.Request.Context(), clientIP, c.FullPath())
			response.RespondJSON(c, "error", http.StatusTooManyRequests,
				"Rate limit exceeded", nil, map[string]interface{}{
					"limit":      result.Limit,
					"reset_time": result.ResetTime,
				})
			c.Abort()
			return
		}

		c.Next()
	}
}

func getRateLimitType(method, path string) RateLimitType {
	switch {
	case strings.HasPrefix(path, "/health"),
		strings.HasPrefix(path, "/ping"):
		return RateLimitTypeHealth

	case strings.Contains(path, "/operator/"):
		return RateLimitTypeOperator

	// Submitting transactions mutates the ledger
	case strings.HasSuffix(path, "/transactions") && method == http.MethodPost:
		return RateLimitTypeTransaction

	case strings.Contains(path, "/venues"),
		strings.Contains(path, "/accounts"),
		strings.Contains(path, "/token-accounts"),
		strings.Contains(path, "/transactions"),
		strings.Contains(path, "/programs"):
		return RateLimitTypePublic

	default:
		return RateLimitTypeDefault
	}
}
