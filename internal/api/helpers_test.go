package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tphakala/notekeeper/internal/access"
	"github.com/tphakala/notekeeper/internal/conf"
	"github.com/tphakala/notekeeper/internal/datastore"
	"github.com/tphakala/notekeeper/internal/datastore/entities"
	"github.com/tphakala/notekeeper/internal/datastore/repository"
	"github.com/tphakala/notekeeper/internal/notes"
	"github.com/tphakala/notekeeper/internal/observability"
	"github.com/tphakala/notekeeper/internal/ratelimit"
)

// testEnv bundles a fully wired server on an in-memory database
type testEnv struct {
	server  *Server
	store   *datastore.Store
	manager datastore.Manager
	metrics *observability.Metrics
}

// testSettings returns settings suitable for tests: no rate limiting, metrics on
func testSettings() *conf.Settings {
	settings := &conf.Settings{}
	settings.Server.Host = "127.0.0.1"
	settings.Server.Port = 0
	settings.Server.CORS.Enabled = true
	settings.Server.CORS.AllowOrigins = []string{"*"}
	settings.Audit.RecordErrors = true
	settings.Metrics.Enabled = true
	settings.Metrics.Path = "/metrics"
	return settings
}

func newTestEnv(t *testing.T, settings *conf.Settings, opts ...ServerOption) *testEnv {
	t.Helper()

	if settings == nil {
		settings = testSettings()
	}

	mgr, err := datastore.NewSQLiteManager(&datastore.SQLiteConfig{Path: datastore.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	require.NoError(t, mgr.Initialize(context.Background()))

	m, err := observability.NewMetrics()
	require.NoError(t, err)

	store := datastore.NewStore(mgr.DB(), datastore.WithMetrics(m.Datastore))
	svc := notes.NewService(store, settings.Audit, notes.WithMetrics(m.Notes))

	base := []ServerOption{WithStore(store), WithService(svc), WithMetrics(m)}
	srv, err := New(settings, append(base, opts...)...)
	require.NoError(t, err)

	return &testEnv{server: srv, store: store, manager: mgr, metrics: m}
}

// newLimitedEnv enables rate limiting with the given burst and a negligible refill
func newLimitedEnv(t *testing.T, burst int) *testEnv {
	t.Helper()
	settings := testSettings()
	settings.RateLimit.Enabled = true
	limiter := ratelimit.New(ratelimit.Config{RequestsPerSecond: 0.001, Burst: burst, IdleTTL: time.Minute})
	return newTestEnv(t, settings, WithLimiter(limiter))
}

// caller is the identity a test request is sent as
type caller struct {
	userID string
	role   string
}

var (
	anonymous = caller{}
	asAdmin   = caller{userID: "admin-1", role: "admin"}
)

func asUser(id string) caller {
	return caller{userID: id, role: "user"}
}

// do sends a request through the full middleware stack
func (e *testEnv) do(t *testing.T, who caller, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if who.userID != "" {
		req.Header.Set(access.HeaderUserID, who.userID)
	}
	if who.role != "" {
		req.Header.Set(access.HeaderUserRole, who.role)
	}

	rec := httptest.NewRecorder()
	e.server.Echo().ServeHTTP(rec, req)
	return rec
}

// createNote creates a note and returns the decoded response
func (e *testEnv) createNote(t *testing.T, who caller, title, content string) entities.Note {
	t.Helper()
	rec := e.do(t, who, http.MethodPost, "/notes", map[string]any{"title": title, "content": content})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[entities.Note](t, rec)
}

// auditEntries returns every audit entry, newest first
func (e *testEnv) auditEntries(t *testing.T) []entities.AuditLogEntry {
	t.Helper()
	entries, _, err := e.store.Audit().List(context.Background(), repository.AuditFilter{Limit: repository.MaxLimit})
	require.NoError(t, err)
	return entries
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func noteURL(id uint) string {
	return "/notes/" + strconv.FormatUint(uint64(id), 10)
}
