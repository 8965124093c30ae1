package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const envPrefix = "POLYFOCUS_"

// Load builds a Config from the defaults, the TOML file at path (skipped when
// path is empty), a .env file in the working directory if one exists, and
// finally POLYFOCUS_* environment variables. A malformed variable is an
// error. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	return &cfg, nil
}

// envBinding ties one variable (without prefix) to a Config field.
type envBinding struct {
	name string
	set  func(string) error
}

func bind[T any](name string, dst *T, parse func(string) (T, error)) envBinding {
	return envBinding{name: name, set: func(v string) error {
		parsed, err := parse(v)
		if err != nil {
			return err
		}
		*dst = parsed
		return nil
	}}
}

func str(s string) (string, error) { return s, nil }

func integer(s string) (int, error) { return strconv.Atoi(s) }

func float(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func dur(s string) (duration, error) {
	d, err := time.ParseDuration(s)
	return duration{d}, err
}

// list splits a comma-separated value, dropping blanks.
func list(s string) ([]string, error) {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("empty list")
	}
	return out, nil
}

func envBindings(cfg *Config) []envBinding {
	return []envBinding{
		bind("MODE", &cfg.Mode, str),
		bind("LOG_LEVEL", &cfg.LogLevel, str),

		bind("POLYMARKET_GAMMA_HOST", &cfg.Polymarket.GammaHost, str),
		bind("POLYMARKET_CLOB_HOST", &cfg.Polymarket.ClobHost, str),

		bind("FETCH_PAGE_SIZE", &cfg.Fetch.PageSize, integer),
		bind("FETCH_MAX_MARKETS", &cfg.Fetch.MaxMarkets, integer),
		bind("FETCH_CONCURRENCY", &cfg.Fetch.Concurrency, integer),
		bind("FETCH_REQUESTS_PER_SECOND", &cfg.Fetch.RequestsPerSecond, float),
		bind("FETCH_BURST", &cfg.Fetch.Burst, integer),
		bind("FETCH_ACTIVE_ONLY", &cfg.Fetch.ActiveOnly, strconv.ParseBool),
		bind("FETCH_TIMEOUT", &cfg.Fetch.Timeout, dur),
		bind("FETCH_REFRESH_INTERVAL", &cfg.Fetch.RefreshInterval, dur),

		bind("SELECTION_MAX_HOURS", &cfg.Selection.MaxHours, float),

		bind("REDIS_ENABLED", &cfg.Redis.Enabled, strconv.ParseBool),
		bind("REDIS_ADDR", &cfg.Redis.Addr, str),
		bind("REDIS_PASSWORD", &cfg.Redis.Password, str),
		bind("REDIS_DB", &cfg.Redis.DB, integer),
		bind("REDIS_POOL_SIZE", &cfg.Redis.PoolSize, integer),
		bind("REDIS_MAX_RETRIES", &cfg.Redis.MaxRetries, integer),
		bind("REDIS_TLS_ENABLED", &cfg.Redis.TLSEnabled, strconv.ParseBool),
		bind("REDIS_SNAPSHOT_TTL", &cfg.Redis.SnapshotTTL, dur),

		bind("POSTGRES_ENABLED", &cfg.Postgres.Enabled, strconv.ParseBool),
		bind("DATABASE_URL", &cfg.Postgres.DSN, str),
		bind("POSTGRES_DSN", &cfg.Postgres.DSN, str),
		bind("POSTGRES_HOST", &cfg.Postgres.Host, str),
		bind("POSTGRES_PORT", &cfg.Postgres.Port, integer),
		bind("POSTGRES_DATABASE", &cfg.Postgres.Database, str),
		bind("POSTGRES_USER", &cfg.Postgres.User, str),
		bind("POSTGRES_PASSWORD", &cfg.Postgres.Password, str),
		bind("POSTGRES_SSL_MODE", &cfg.Postgres.SSLMode, str),
		bind("POSTGRES_POOL_MAX_CONNS", &cfg.Postgres.PoolMaxConns, integer),
		bind("POSTGRES_POOL_MIN_CONNS", &cfg.Postgres.PoolMinConns, integer),
		bind("POSTGRES_RUN_MIGRATIONS", &cfg.Postgres.RunMigrations, strconv.ParseBool),

		bind("S3_ENABLED", &cfg.S3.Enabled, strconv.ParseBool),
		bind("S3_ENDPOINT", &cfg.S3.Endpoint, str),
		bind("S3_REGION", &cfg.S3.Region, str),
		bind("S3_BUCKET", &cfg.S3.Bucket, str),
		bind("S3_PREFIX", &cfg.S3.Prefix, str),
		bind("S3_ACCESS_KEY", &cfg.S3.AccessKey, str),
		bind("S3_SECRET_KEY", &cfg.S3.SecretKey, str),
		bind("S3_USE_SSL", &cfg.S3.UseSSL, strconv.ParseBool),
		bind("S3_FORCE_PATH_STYLE", &cfg.S3.ForcePathStyle, strconv.ParseBool),

		bind("SERVER_PORT", &cfg.Server.Port, integer),
		bind("SERVER_CORS_ORIGINS", &cfg.Server.CORSOrigins, list),

		bind("NOTIFY_TELEGRAM_TOKEN", &cfg.Notify.TelegramToken, str),
		bind("NOTIFY_TELEGRAM_CHAT_ID", &cfg.Notify.TelegramChatID, str),
		bind("NOTIFY_DISCORD_WEBHOOK_URL", &cfg.Notify.DiscordWebhookURL, str),
		bind("NOTIFY_EVENTS", &cfg.Notify.Events, list),
	}
}

// applyEnv overrides fields whose variable is set and non-empty. Later
// bindings win, so POSTGRES_DSN beats the DATABASE_URL alias.
func applyEnv(cfg *Config) error {
	var errs []error
	for _, b := range envBindings(cfg) {
		key := envPrefix + b.name
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			continue
		}
		if err := b.set(v); err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", key, v, err))
		}
	}
	return errors.Join(errs...)
}
