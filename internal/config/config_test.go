package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 48.0, cfg.Selection.MaxHours)
	assert.Equal(t, 100, cfg.Fetch.PageSize)
	assert.Equal(t, 10000, cfg.Fetch.MaxMarkets)
	assert.Equal(t, 20, cfg.Fetch.Concurrency)
	assert.True(t, cfg.Fetch.ActiveOnly)
	assert.Equal(t, 5*time.Minute, cfg.Fetch.RefreshInterval.Duration)
	assert.Equal(t, 5*time.Minute, cfg.Redis.SnapshotTTL.Duration)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "once"

[selection]
max_hours = 12.5

[fetch]
page_size = 50
refresh_interval = "90s"

[redis]
enabled = true
snapshot_ttl = "1m"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "once", cfg.Mode)
	assert.Equal(t, 12.5, cfg.Selection.MaxHours)
	assert.Equal(t, 50, cfg.Fetch.PageSize)
	assert.Equal(t, 90*time.Second, cfg.Fetch.RefreshInterval.Duration)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, time.Minute, cfg.Redis.SnapshotTTL.Duration)
	// untouched keys keep their defaults
	assert.Equal(t, 10000, cfg.Fetch.MaxMarkets)
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.Polymarket.GammaHost)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("POLYFOCUS_SELECTION_MAX_HOURS", "6")
	t.Setenv("POLYFOCUS_FETCH_ACTIVE_ONLY", "false")
	t.Setenv("POLYFOCUS_FETCH_REFRESH_INTERVAL", "30s")
	t.Setenv("POLYFOCUS_SERVER_CORS_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 6.0, cfg.Selection.MaxHours)
	assert.False(t, cfg.Fetch.ActiveOnly)
	assert.Equal(t, 30*time.Second, cfg.Fetch.RefreshInterval.Duration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestEnvOverridesRejectMalformedValues(t *testing.T) {
	t.Setenv("POLYFOCUS_SERVER_PORT", "not-a-number")
	t.Setenv("POLYFOCUS_FETCH_TIMEOUT", "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POLYFOCUS_SERVER_PORT")
	assert.Contains(t, err.Error(), "POLYFOCUS_FETCH_TIMEOUT")
}

func TestDatabaseURLAlias(t *testing.T) {
	t.Setenv("POLYFOCUS_DATABASE_URL", "postgres://alias")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://alias", cfg.Postgres.DSN)

	t.Setenv("POLYFOCUS_POSTGRES_DSN", "postgres://explicit")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://explicit", cfg.Postgres.DSN)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "trade"
	cfg.Selection.MaxHours = 0
	cfg.Fetch.Concurrency = 0
	cfg.Postgres.Enabled = true
	cfg.Postgres.PoolMinConns = 20

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `unknown mode "trade"`)
	assert.Contains(t, msg, "selection: max_hours must be > 0")
	assert.Contains(t, msg, "fetch: concurrency must be >= 1")
	assert.Contains(t, msg, "postgres: pool_min_conns must not exceed pool_max_conns")
}

func TestValidateOptionalBackendsIgnoredWhenDisabled(t *testing.T) {
	cfg := Defaults()
	cfg.Redis.Addr = ""
	cfg.S3.Bucket = ""
	cfg.Postgres.Host = ""
	assert.NoError(t, cfg.Validate())
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Postgres.Password = "pw"
	cfg.S3.SecretKey = "sk"
	cfg.Notify.TelegramToken = "tg"

	out := RedactedConfig(&cfg)
	assert.Equal(t, "***", out.Postgres.Password)
	assert.Equal(t, "***", out.S3.SecretKey)
	assert.Equal(t, "***", out.Notify.TelegramToken)
	assert.Empty(t, out.Redis.Password, "empty secrets stay empty")
	assert.Equal(t, "pw", cfg.Postgres.Password)

	out.Server.CORSOrigins[0] = "mutated"
	assert.NotEqual(t, "mutated", cfg.Server.CORSOrigins[0])
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"localhost:6379", "localhost:6379"},
		{"redis://:hunter2@cache:6379/0", "redis://:%2A%2A%2A@cache:6379/0"},
		{"postgres://app:pw@db:5432/polyfocus?sslmode=disable", "postgres://app:%2A%2A%2A@db:5432/polyfocus?sslmode=disable"},
		{"postgres://app@db/polyfocus", "postgres://app@db/polyfocus"},
		{"postgres://app:pw@db:bad port/x", "***"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, redactURL(tt.in), tt.in)
	}
}

func TestExampleConfigMatchesDefaults(t *testing.T) {
	cfg, err := Load("../../config.example.toml")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), *cfg)
}
