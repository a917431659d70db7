package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tphakala/notekeeper/internal/access"
	"github.com/tphakala/notekeeper/internal/logger"
)

// HeaderRequestID carries the per-request correlation id.
const HeaderRequestID = echo.HeaderXRequestID

// HeaderRetryAfter tells a rate limited client when to retry, in seconds.
const HeaderRetryAfter = "Retry-After"

// NewCORS creates a CORS middleware allowing the given origins.
// Credentials are never allowed, so a wildcard origin stays valid.
func NewCORS(allowOrigins []string) echo.MiddlewareFunc {
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPut,
			http.MethodPatch,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			HeaderRequestID,
			access.HeaderUserID,
			access.HeaderUserRole,
		},
		ExposeHeaders:    []string{HeaderRequestID, HeaderRetryAfter},
		AllowCredentials: false,
	})
}

// NewRequestID assigns every request an id, reusing a client supplied one,
// and stores it in the request context for log correlation.
func NewRequestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator:    uuid.NewString,
		TargetHeader: HeaderRequestID,
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), id)))
		},
	})
}

// NewBodyLimit creates a middleware that limits the request body size.
func NewBodyLimit(limit string) echo.MiddlewareFunc {
	return middleware.BodyLimit(limit)
}
