package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RateLimitByIP returns an Echo middleware that rejects requests over the
// per-client rate limit with 429. Clients are keyed by real IP.
func RateLimitByIP(rl *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error": "rate limit exceeded",
				})
			}
			return next(c)
		}
	}
}
