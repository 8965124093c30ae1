// Package config defines the top-level configuration for polyfocus and
// provides validation helpers.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Config is everything polyfocus reads at startup: a TOML file, then
// POLYFOCUS_* environment overrides.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Fetch      FetchConfig      `toml:"fetch"`
	Selection  SelectionConfig  `toml:"selection"`
	Redis      RedisConfig      `toml:"redis"`
	Postgres   PostgresConfig   `toml:"postgres"`
	S3         S3Config         `toml:"s3"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds Polymarket API endpoints.
type PolymarketConfig struct {
	GammaHost string `toml:"gamma_host"`
	ClobHost  string `toml:"clob_host"`
}

// FetchConfig controls how market listings are pulled from the Gamma API.
type FetchConfig struct {
	PageSize          int      `toml:"page_size"`
	MaxMarkets        int      `toml:"max_markets"`
	Concurrency       int      `toml:"concurrency"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`
	ActiveOnly        bool     `toml:"active_only"`
	Timeout           duration `toml:"timeout"`
	RefreshInterval   duration `toml:"refresh_interval"`
}

// SelectionConfig holds candidate-window parameters.
type SelectionConfig struct {
	// MaxHours is the upper bound, in hours, of the candidate window.
	MaxHours float64 `toml:"max_hours"`
}

// RedisConfig holds Redis connection parameters for the snapshot cache.
type RedisConfig struct {
	Enabled     bool     `toml:"enabled"`
	Addr        string   `toml:"addr"`
	Password    string   `toml:"password"`
	DB          int      `toml:"db"`
	PoolSize    int      `toml:"pool_size"`
	MaxRetries  int      `toml:"max_retries"`
	TLSEnabled  bool     `toml:"tls_enabled"`
	SnapshotTTL duration `toml:"snapshot_ttl"`
}

// PostgresConfig holds PostgreSQL connection parameters for the record store.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// S3Config holds S3-compatible object storage parameters for table export.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	Prefix         string `toml:"prefix"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// duration lets TOML carry Go duration strings such as "30s" or "5m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// ServerConfig configures the HTTP API used in serve mode.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig selects alert channels and the event types forwarded to them.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults is the configuration used when no file is given. config.example.toml
// mirrors it and a test keeps the two in sync.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost: "https://gamma-api.polymarket.com",
			ClobHost:  "https://clob.polymarket.com",
		},
		Fetch: FetchConfig{
			PageSize:          100,
			MaxMarkets:        10000,
			Concurrency:       20,
			RequestsPerSecond: 50,
			Burst:             20,
			ActiveOnly:        true,
			Timeout:           duration{30 * time.Second},
			RefreshInterval:   duration{5 * time.Minute},
		},
		Selection: SelectionConfig{
			MaxHours: 48,
		},
		Redis: RedisConfig{
			Enabled:     false,
			Addr:        "localhost:6379",
			PoolSize:    10,
			MaxRetries:  3,
			SnapshotTTL: duration{5 * time.Minute},
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "polyfocus",
			Prefix:         "latest",
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"focus_changed", "refresh_failed"},
		},
		Mode:     "serve",
		LogLevel: "info",
	}
}

var (
	validModes     = []string{"serve", "once"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

// problems accumulates validation failures so Validate can report all of them.
type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p *problems) check(ok bool, format string, args ...any) {
	if !ok {
		p.addf(format, args...)
	}
}

// Validate reports every invalid or missing value in one error. Sections for
// disabled backends are skipped.
func (c *Config) Validate() error {
	var p problems
	serve := strings.EqualFold(c.Mode, "serve")

	p.check(slices.Contains(validModes, strings.ToLower(c.Mode)),
		"unknown mode %q (valid: %s)", c.Mode, strings.Join(validModes, ", "))
	p.check(slices.Contains(validLogLevels, strings.ToLower(c.LogLevel)),
		"unknown log_level %q (valid: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))

	p.check(c.Polymarket.GammaHost != "", "polymarket: gamma_host must not be empty")
	p.check(c.Polymarket.ClobHost != "", "polymarket: clob_host must not be empty")

	f := c.Fetch
	p.check(f.PageSize >= 1, "fetch: page_size must be >= 1")
	p.check(f.MaxMarkets >= 1, "fetch: max_markets must be >= 1")
	p.check(f.Concurrency >= 1, "fetch: concurrency must be >= 1")
	p.check(f.RequestsPerSecond >= 0, "fetch: requests_per_second must be >= 0")
	p.check(f.Timeout.Duration > 0, "fetch: timeout must be > 0")
	p.check(!serve || f.RefreshInterval.Duration > 0, "fetch: refresh_interval must be > 0 in serve mode")

	p.check(c.Selection.MaxHours > 0, "selection: max_hours must be > 0, got %v", c.Selection.MaxHours)

	if r := c.Redis; r.Enabled {
		p.check(r.Addr != "", "redis: addr must not be empty")
		p.check(r.PoolSize >= 1, "redis: pool_size must be >= 1")
		p.check(r.SnapshotTTL.Duration > 0, "redis: snapshot_ttl must be > 0")
	}

	if pg := c.Postgres; pg.Enabled {
		if strings.TrimSpace(pg.DSN) == "" {
			p.check(pg.Host != "", "postgres: host must not be empty (or set postgres.dsn)")
			p.check(validPort(pg.Port), "postgres: port must be 1-65535, got %d", pg.Port)
			p.check(pg.Database != "", "postgres: database must not be empty")
		}
		p.check(pg.PoolMaxConns >= 1, "postgres: pool_max_conns must be >= 1")
		p.check(pg.PoolMinConns >= 0, "postgres: pool_min_conns must be >= 0")
		p.check(pg.PoolMinConns <= pg.PoolMaxConns, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	if c.S3.Enabled {
		p.check(c.S3.Endpoint != "", "s3: endpoint must not be empty")
		p.check(c.S3.Bucket != "", "s3: bucket must not be empty")
	}

	p.check(!serve || validPort(c.Server.Port), "server: port must be 1-65535, got %d", c.Server.Port)

	if len(p) > 0 {
		return fmt.Errorf("invalid config:\n  - %s", strings.Join(p, "\n  - "))
	}
	return nil
}

func validPort(port int) bool { return port > 0 && port <= 65535 }
