package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dinnerd/internal/infrastructure/ratelimit"
	"dinnerd/internal/shared/utils"
)

// RegistrationLimit throttles account self-registration per client IP.
// Limiter errors fail open so a Redis outage does not block sign-ups.
func RegistrationLimit(limiter ratelimit.Limiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), "registration:"+c.ClientIP(), limit, window)
		if err != nil {
			c.Next()
			return
		}
		if !allowed {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "too many registration attempts, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
