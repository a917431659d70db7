package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tphakala/notekeeper/internal/access"
	"github.com/tphakala/notekeeper/internal/errors"
	"github.com/tphakala/notekeeper/internal/logger"
	"github.com/tphakala/notekeeper/internal/ratelimit"
)

// run sends req through the middleware chain in front of handler
func run(t *testing.T, req *http.Request, handler echo.HandlerFunc, chain ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := handler
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return rec, h(c)
}

func TestIdentityMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		userID   string
		role     string
		wantID   *string
		wantRole access.Role
	}{
		{"admin", "root", "admin", strPtr("root"), access.RoleAdmin},
		{"mixed case admin", "root", "AdMiN", strPtr("root"), access.RoleAdmin},
		{"user", "u1", "user", strPtr("u1"), access.RoleUser},
		{"unknown role", "u1", "owner", strPtr("u1"), access.RoleUser},
		{"no headers", "", "", nil, access.RoleUser},
		{"blank id", "   ", "admin", nil, access.RoleAdmin},
		{"padded id", "  u7 ", "", strPtr("u7"), access.RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/notes", http.NoBody)
			if tt.userID != "" {
				req.Header.Set(access.HeaderUserID, tt.userID)
			}
			if tt.role != "" {
				req.Header.Set(access.HeaderUserRole, tt.role)
			}

			var got access.Identity
			var ctxUser any
			_, err := run(t, req, func(c echo.Context) error {
				got = IdentityFrom(c)
				ctxUser = c.Get(ContextKeyUserID)
				return nil
			}, NewIdentity())
			require.NoError(t, err)

			assert.Equal(t, tt.wantRole, got.Role)
			assert.Equal(t, tt.wantID, got.UserID)
			assert.Equal(t, got.UserIDValue(), ctxUser)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(ratelimit.Config{RequestsPerSecond: 0.001, Burst: 1, IdleTTL: time.Minute})
	chain := []echo.MiddlewareFunc{NewIdentity(), NewRateLimit(limiter, nil)}
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	newReq := func(userID, remote string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/notes", http.NoBody)
		if userID != "" {
			req.Header.Set(access.HeaderUserID, userID)
		}
		req.RemoteAddr = remote
		return req
	}

	_, err := run(t, newReq("u1", "10.0.0.1:1234"), ok, chain...)
	require.NoError(t, err)

	rec, err := run(t, newReq("u1", "10.0.0.2:1234"), ok, chain...)
	require.Error(t, err, "the budget follows the user, not the address")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.True(t, errors.IsCategory(err, errors.CategoryRateLimit))
	assert.NotEmpty(t, rec.Header().Get(HeaderRetryAfter))

	_, err = run(t, newReq("", "10.0.0.3:1234"), ok, chain...)
	require.NoError(t, err)
	_, err = run(t, newReq("", "10.0.0.3:1234"), ok, chain...)
	assert.ErrorIs(t, err, ErrRateLimited, "anonymous callers are keyed by address")
}

func TestRateLimitSkipper(t *testing.T) {
	t.Parallel()

	limiter := ratelimit.New(ratelimit.Config{RequestsPerSecond: 0.001, Burst: 1, IdleTTL: time.Minute})
	skipAll := func(echo.Context) bool { return true }
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	for range 3 {
		_, err := run(t, httptest.NewRequest(http.MethodGet, "/", http.NoBody), ok, NewIdentity(), NewRateLimit(limiter, skipAll))
		require.NoError(t, err)
	}
	assert.Zero(t, limiter.Len(), "skipped requests never create a bucket")

	_, err := run(t, httptest.NewRequest(http.MethodGet, "/", http.NoBody), ok, NewRateLimit(nil, nil))
	assert.NoError(t, err, "a nil limiter disables limiting")
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Parallel()

	var seen string
	rec, err := run(t, httptest.NewRequest(http.MethodGet, "/", http.NoBody), func(c echo.Context) error {
		seen = logger.RequestIDFromContext(c.Request().Context())
		return nil
	}, NewRequestID())
	require.NoError(t, err)

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
}

func TestRequestLoggerWritesAccessLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewSlogLogger(&buf, logger.LogLevelInfo, nil)

	req := httptest.NewRequest(http.MethodPost, "/notes", http.NoBody)
	req.Header.Set(access.HeaderUserID, "u1")
	_, err := run(t, req, func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, NewRequestID(), NewRequestLogger(log), NewIdentity())
	require.NoError(t, err)

	line := buf.String()
	assert.Contains(t, line, "method=POST")
	assert.Contains(t, line, "status=201")
	assert.Contains(t, line, "user_id=u1")
	assert.Contains(t, line, "request_id=")
}

func TestRequestLoggerNilLogger(t *testing.T) {
	t.Parallel()

	_, err := run(t, httptest.NewRequest(http.MethodGet, "/", http.NoBody), func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, NewRequestLogger(nil))
	assert.NoError(t, err)
}

func TestCORSAllowsIdentityHeaders(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodOptions, "/notes", http.NoBody)
	req.Header.Set(echo.HeaderOrigin, "https://app.example")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPut)

	rec, err := run(t, req, func(echo.Context) error {
		t.Fatal("preflight must not reach the handler")
		return nil
	}, NewCORS(nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	allowed := rec.Header().Get(echo.HeaderAccessControlAllowHeaders)
	for _, h := range []string{access.HeaderUserID, access.HeaderUserRole} {
		assert.True(t, strings.Contains(allowed, h), "missing %s in %q", h, allowed)
	}
}

func strPtr(s string) *string { return &s }
