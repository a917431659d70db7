package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/tphakala/notekeeper/internal/access"
)

// Echo context keys set by the identity middleware.
const (
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "user_role"
)

// NewIdentity resolves the caller identity from the X-User-Id and X-User-Role
// headers and attaches it to the request context. Requests are never rejected
// here; authorization happens per operation.
func NewIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := access.ResolveIdentity(req.Header.Get(access.HeaderUserID), req.Header.Get(access.HeaderUserRole))

			c.SetRequest(req.WithContext(access.WithIdentity(req.Context(), id)))
			c.Set(ContextKeyUserID, id.UserIDValue())
			c.Set(ContextKeyRole, string(id.Role))

			return next(c)
		}
	}
}

// IdentityFrom returns the identity resolved for the request.
func IdentityFrom(c echo.Context) access.Identity {
	return access.FromContext(c.Request().Context())
}
