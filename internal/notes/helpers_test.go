package notes

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tphakala/notekeeper/internal/access"
	"github.com/tphakala/notekeeper/internal/conf"
	"github.com/tphakala/notekeeper/internal/datastore"
	"github.com/tphakala/notekeeper/internal/datastore/entities"
	"github.com/tphakala/notekeeper/internal/datastore/repository"
	"gorm.io/gorm"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// stepClock advances one second on every call so ordering by time is stable
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingMetrics struct {
	mu         sync.Mutex
	operations map[string]int
	audits     map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{operations: map[string]int{}, audits: map[string]int{}}
}

func (m *recordingMetrics) RecordNoteOperation(operation, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[operation+"/"+outcome]++
}

func (m *recordingMetrics) RecordAuditEntry(action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits[action]++
}

func (m *recordingMetrics) operation(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.operations[key]
}

func (m *recordingMetrics) audit(action string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.audits[action]
}

type testEnv struct {
	svc     *Service
	store   *datastore.Store
	db      *gorm.DB
	metrics *recordingMetrics
}

func newTestEnv(t testing.TB, settings conf.AuditSettings) *testEnv {
	t.Helper()

	mgr, err := datastore.NewSQLiteManager(&datastore.SQLiteConfig{Path: datastore.MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })
	require.NoError(t, mgr.Initialize(context.Background()))

	store := datastore.NewStore(mgr.DB())
	metrics := newRecordingMetrics()
	clock := &stepClock{now: baseTime}

	svc := NewService(store, settings, WithClock(clock.Now), WithMetrics(metrics))
	return &testEnv{svc: svc, store: store, db: mgr.DB(), metrics: metrics}
}

// auditEntries returns every entry, newest first
func (e *testEnv) auditEntries(t testing.TB) []entities.AuditLogEntry {
	t.Helper()
	entries, _, err := e.store.Audit().List(context.Background(), repository.AuditFilter{Limit: repository.MaxLimit})
	require.NoError(t, err)
	return entries
}

func user(id string) access.Identity {
	return access.Identity{UserID: &id, Role: access.RoleUser}
}

func admin() access.Identity {
	id := "admin-1"
	return access.Identity{UserID: &id, Role: access.RoleAdmin}
}

func strPtr(s string) *string { return &s }

func mustCreate(t testing.TB, e *testEnv, id access.Identity, title string) *entities.Note {
	t.Helper()
	note, err := e.svc.Create(context.Background(), id, CreateInput{Title: title, Content: "Hello"})
	require.NoError(t, err)
	return note
}

// breakAuditTable renames the audit table so every append fails until the
// returned function restores it
func (e *testEnv) breakAuditTable(t testing.TB) (restore func()) {
	t.Helper()
	require.NoError(t, e.db.Exec("ALTER TABLE audit_logs RENAME TO audit_logs_offline").Error)
	return func() {
		require.NoError(t, e.db.Exec("ALTER TABLE audit_logs_offline RENAME TO audit_logs").Error)
	}
}
