package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/todo-app/backend/internal/application/adapter"
	domainerror "github.com/todo-app/backend/internal/domain/error"
	"github.com/todo-app/backend/internal/integration/entrypoint/dto"
)

// RateLimiter limits requests per client IP.
type RateLimiter struct {
	limiter adapter.RateLimiter
	scope   string
}

// NewRateLimiter creates a rate limiter whose counters are namespaced by scope.
func NewRateLimiter(limiter adapter.RateLimiter, scope string) *RateLimiter {
	return &RateLimiter{
		limiter: limiter,
		scope:   scope,
	}
}

// Middleware returns a Gin middleware handler that enforces rate limiting.
// When the counter store is unavailable requests are let through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if clientIP == "" {
			clientIP = c.Request.RemoteAddr
		}

		allowed, retryAfter, err := rl.limiter.Allow(c.Request.Context(), rl.scope+":"+clientIP)
		if err != nil {
			slog.WarnContext(c.Request.Context(), "Rate limiter unavailable", "scope", rl.scope, "error", err)
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error: "Too many requests. Please try again later.",
				Code:  string(domainerror.ErrCodeRateLimited),
			})
			return
		}

		c.Next()
	}
}
