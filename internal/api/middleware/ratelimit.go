package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tphakala/notekeeper/internal/access"
	"github.com/tphakala/notekeeper/internal/errors"
	"github.com/tphakala/notekeeper/internal/ratelimit"
)

// ErrRateLimited is returned when a caller exceeded its request budget.
var ErrRateLimited = errors.NewStd("Too many requests")

// NewRateLimit rejects requests once the caller's token bucket is empty.
// Callers are keyed by user id, anonymous callers by client IP.
// The identity middleware must run first.
func NewRateLimit(limiter *ratelimit.Limiter, skipper middleware.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = middleware.DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter == nil || skipper(c) {
				return next(c)
			}

			key := RateLimitKey(c)
			allowed, retryAfter := limiter.Allow(key)
			if !allowed {
				c.Response().Header().Set(HeaderRetryAfter, strconv.Itoa(ratelimit.RetryAfterSeconds(retryAfter)))
				return errors.New(ErrRateLimited).
					Component("api").
					Category(errors.CategoryRateLimit).
					Context("key", key).
					Build()
			}
			return next(c)
		}
	}
}

// RateLimitKey returns the bucket key for the request.
func RateLimitKey(c echo.Context) string {
	id := access.FromContext(c.Request().Context())
	if id.UserID != nil {
		return "user:" + *id.UserID
	}
	return "ip:" + c.RealIP()
}
