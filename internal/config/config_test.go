package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Contains(t, cfg.DSN, "root:password@tcp(127.0.0.1:3306)/fieldkit?")
	assert.Contains(t, cfg.DSN, "charset=utf8mb4")
	assert.Contains(t, cfg.DSN, "parseTime=true")
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.True(t, cfg.Redis.Enable)
	assert.Equal(t, "New Field", cfg.Builder.PlaceholderLabel)
	assert.False(t, cfg.Builder.PreserveManualIdentifiers)
	assert.Equal(t, 30*time.Minute, cfg.Builder.SessionIdleTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Builder.CleanupInterval)
}

func TestParse_BuilderSection(t *testing.T) {
	cfg, err := Parse([]byte(`
env: prod
builder:
  placeholder_label: Untitled
  preserve_manual_identifiers: true
  session_idle_timeout: 2h
  cleanup_interval: 90s
`))
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "Untitled", cfg.Builder.PlaceholderLabel)
	assert.True(t, cfg.Builder.PreserveManualIdentifiers)
	assert.Equal(t, 2*time.Hour, cfg.Builder.SessionIdleTimeout)
	assert.Equal(t, 90*time.Second, cfg.Builder.CleanupInterval)
}

func TestParse_RateLimit(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.True(t, cfg.RateLimit.Enable)
	assert.Equal(t, 200, cfg.RateLimit.Max)
	assert.Equal(t, time.Second, cfg.RateLimit.Window)

	cfg, err = Parse([]byte("rate_limit:\n  max: 30\n  window: 10s\n"))
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.RateLimit.Max)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window)

	cfg, err = Parse([]byte("rate_limit:\n  enable: false\n  window: 1ms\n"))
	require.NoError(t, err)
	assert.False(t, cfg.RateLimit.Enable)
}

func TestParse_LegacyAliases(t *testing.T) {
	cfg, err := Parse([]byte(`
db_host: db.internal
db_port: 3307
db_user: app
db_password: secret
db_name: schemas
redis_url: cache:6380/2
cors_allowed_origins: ["https://admin.example.com/", " "]
log_dir: /var/log/fieldkit
`))
	require.NoError(t, err)

	assert.Contains(t, cfg.DSN, "app:secret@tcp(db.internal:3307)/schemas?")
	assert.Equal(t, "redis://cache:6380/2", cfg.RedisURL)
	assert.Equal(t, []string{"https://admin.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "/var/log/fieldkit", cfg.LogDir())
}

func TestParse_NestedOverridesLegacy(t *testing.T) {
	cfg, err := Parse([]byte(`
db_host: legacy
database:
  host: nested
redis:
  host: redis.internal
  password: pw
  db: 3
`))
	require.NoError(t, err)

	assert.Equal(t, "nested", cfg.Database.Host)
	assert.Equal(t, "redis://:pw@redis.internal:6379/3", cfg.RedisURL)
}

func TestParse_SQLite(t *testing.T) {
	cfg, err := Parse([]byte("database:\n  driver: sqlite3\n"))
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "fieldkit.db", cfg.DSN)

	cfg, err = Parse([]byte("database:\n  driver: sqlite\n  dsn: file::memory:?cache=shared\n"))
	require.NoError(t, err)
	assert.Equal(t, "file::memory:?cache=shared", cfg.DSN)
}

func TestParse_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown key":      "mystery: 1\n",
		"bad port":         "port: 70000\n",
		"bad driver":       "database:\n  driver: oracle\n",
		"bad duration":     "builder:\n  session_idle_timeout: soon\n",
		"zero cleanup":     "builder:\n  cleanup_interval: 0s\n",
		"negative redisdb": "redis:\n  db: -1\n",
		"bad rate window":  "rate_limit:\n  window: 10ms\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(content))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("port: 8080\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestRuntimePath(t *testing.T) {
	home := t.TempDir()
	user := t.TempDir()
	t.Setenv(HomeEnv, home)
	t.Setenv("HOME", user)

	assert.Equal(t, home, HomeDir())
	assert.Equal(t, filepath.Join(home, "logs"), RuntimePath("", "logs"))
	assert.Equal(t, filepath.Join(home, "var", "log"), RuntimePath(" var/log ", "logs"))
	assert.Equal(t, "/srv/fieldkit/logs", RuntimePath("/srv/fieldkit/../fieldkit/logs", "logs"))
	assert.Equal(t, filepath.Join(user, "fk"), RuntimePath("~/fk", "logs"))

	cfg, err := Parse([]byte("paths:\n  logs: audit\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "audit"), cfg.LogDir())

	t.Setenv(HomeEnv, "")
	assert.True(t, filepath.IsAbs(HomeDir()))
}

func TestParseLocation(t *testing.T) {
	offsets := map[string]int{
		"+08:00":  8 * 3600,
		"-0530":   -(5*3600 + 30*60),
		"UTC+8":   8 * 3600,
		"utc-3":   -3 * 3600,
		"+14:00":  14 * 3600,
		" +01:30": 3600 + 30*60,
	}
	for raw, want := range offsets {
		loc, err := ParseLocation(raw)
		require.NoError(t, err, raw)
		_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
		assert.Equal(t, want, offset, raw)
	}

	loc, err := ParseLocation("UTC")
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	for _, raw := range []string{"Mars/Olympus", "+8:00", "+15:00", "+01:75", "08:00"} {
		_, err := ParseLocation(raw)
		assert.Error(t, err, raw)
	}

	_, err = Parse([]byte("timezone: Mars/Olympus\n"))
	assert.Error(t, err)

	cfg, err := Parse([]byte("timezone: \"+02:00\"\n"))
	require.NoError(t, err)
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, cfg.Location()).Zone()
	assert.Equal(t, 2*3600, offset)
}
