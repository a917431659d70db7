package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetViper isolates each test from global viper state
func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	resetViper(t)
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	settings, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3001, settings.Server.Port)
	assert.Equal(t, "0.0.0.0:3001", settings.Server.Addr())
	assert.Equal(t, 10*time.Second, settings.Server.ShutdownTimeout)
	assert.True(t, settings.Server.CORS.Enabled)
	assert.Equal(t, []string{"*"}, settings.Server.CORS.AllowOrigins)
	assert.Equal(t, DatabaseSQLite, settings.Database.Type)
	assert.Equal(t, "app.db", settings.Database.SQLite.Path)
	assert.Equal(t, 200*time.Millisecond, settings.Database.SlowQueryThreshold)
	assert.True(t, settings.Audit.RecordErrors)
	assert.False(t, settings.Audit.RecordReads)
	assert.True(t, settings.RateLimit.Enabled)
	assert.Equal(t, "/metrics", settings.Metrics.Path)
	assert.False(t, settings.Sentry.Enabled)
	assert.Equal(t, "info", settings.Logging.DefaultLevel)
}

func TestLoadConfigFile(t *testing.T) {
	resetViper(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 8080
database:
  type: postgres
  postgres:
    host: db.internal
    database: notes
audit:
  recordreads: true
logging:
  modulelevels:
    datastore: trace
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	settings, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, settings.Server.Port)
	assert.Equal(t, DatabasePostgres, settings.Database.Type)
	assert.Equal(t, "db.internal", settings.Database.Postgres.Host)
	assert.Equal(t, 5432, settings.Database.Postgres.Port)
	assert.True(t, settings.Audit.RecordReads)
	assert.Equal(t, "trace", settings.Logging.ModuleLevels["datastore"])
}

func TestEnvOverridesConfig(t *testing.T) {
	resetViper(t)
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NOTEKEEPER_SERVER_PORT", "9090")
	t.Setenv("NOTEKEEPER_DATABASE_SQLITE_PATH", "/var/lib/notekeeper/notes.db")
	t.Setenv("NOTEKEEPER_AUDIT_RECORDERRORS", "false")

	settings, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, settings.Server.Port)
	assert.Equal(t, "/var/lib/notekeeper/notes.db", settings.Database.SQLite.Path)
	assert.False(t, settings.Audit.RecordErrors)
}

func TestInvalidEnvIsReported(t *testing.T) {
	resetViper(t)
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NOTEKEEPER_SERVER_PORT", "70000")
	t.Setenv("NOTEKEEPER_DATABASE_TYPE", "oracle")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTEKEEPER_SERVER_PORT")
	assert.Contains(t, err.Error(), "NOTEKEEPER_DATABASE_TYPE")
}

func TestMissingExplicitConfigFile(t *testing.T) {
	resetViper(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoggerConfigDebugOverride(t *testing.T) {
	s := &Settings{Debug: true}
	s.Logging.DefaultLevel = "info"
	s.Logging.Console.Enabled = true
	s.Logging.Console.Level = "warn"

	cfg := s.LoggerConfig()
	assert.Equal(t, "debug", cfg.DefaultLevel)
	assert.Equal(t, "debug", cfg.Console.Level)
	assert.True(t, cfg.Console.Enabled)
}
