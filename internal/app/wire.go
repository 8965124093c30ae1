package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	s3blob "github.com/alanyoungcy/polyfocus/internal/blob/s3"
	"github.com/alanyoungcy/polyfocus/internal/cache/redis"
	"github.com/alanyoungcy/polyfocus/internal/config"
	"github.com/alanyoungcy/polyfocus/internal/domain"
	"github.com/alanyoungcy/polyfocus/internal/metrics"
	"github.com/alanyoungcy/polyfocus/internal/notify"
	"github.com/alanyoungcy/polyfocus/internal/pipeline"
	"github.com/alanyoungcy/polyfocus/internal/platform/polymarket"
	"github.com/alanyoungcy/polyfocus/internal/service"
	"github.com/alanyoungcy/polyfocus/internal/store/postgres"
)

// Dependencies bundles everything the modes need. It is constructed by Wire
// and torn down by the returned cleanup function.
type Dependencies struct {
	Focus     *service.FocusService
	Refresher *pipeline.Refresher
	Metrics   *metrics.Metrics

	// Optional backends; nil when disabled in config.
	Cache    domain.SnapshotCache
	Locks    domain.LockManager
	Store    domain.RecordStore
	Exporter domain.SnapshotExporter
	Notifier *notify.Notifier

	// Checks probe the enabled backends for the health endpoint.
	Checks map[string]func(context.Context) error
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Metrics: metrics.New(),
		Checks:  map[string]func(context.Context) error{},
	}

	// --- Polymarket clients ---
	gamma := polymarket.NewGammaClient(cfg.Polymarket.GammaHost,
		polymarket.WithHTTPClient(&http.Client{Timeout: cfg.Fetch.Timeout.Duration}),
		polymarket.WithRateLimit(cfg.Fetch.RequestsPerSecond, cfg.Fetch.Burst),
		polymarket.WithLogger(logger),
		polymarket.WithPageFailureHook(deps.Metrics.PageFailed),
	)
	clob := polymarket.NewClobClient(cfg.Polymarket.ClobHost)

	// --- PostgreSQL ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		store := postgres.NewRecordStore(pgClient.Pool())
		deps.Store = store
		deps.Checks["postgres"] = func(ctx context.Context) error {
			_, err := store.Count(ctx)
			return err
		}
	}

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		cache := redis.NewSnapshotCache(redisClient, cfg.Redis.SnapshotTTL.Duration)
		deps.Cache = cache
		deps.Checks["redis"] = func(ctx context.Context) error {
			_, err := cache.LatestID(ctx)
			if errors.Is(err, domain.ErrNoSnapshot) {
				return nil
			}
			return err
		}
		deps.Locks = redis.NewLockManager(redisClient)
	}

	// --- S3 export ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Exporter = s3blob.NewExporter(s3blob.NewWriter(s3Client), cfg.S3.Prefix)
		deps.Checks["s3"] = s3Client.Health
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Focus service and refresher ---
	focusDeps := service.FocusDeps{
		Fetcher:  gamma,
		Prices:   clob,
		Cache:    deps.Cache,
		Store:    deps.Store,
		Exporter: deps.Exporter,
		Metrics:  deps.Metrics,
	}
	if deps.Notifier.Enabled() {
		focusDeps.Notifier = deps.Notifier
	}
	focus, err := service.NewFocusService(focusDeps, service.FocusConfig{
		MaxHours: cfg.Selection.MaxHours,
		Fetch:    fetchOptions(cfg.Fetch),
	}, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: focus service: %w", err)
	}
	deps.Focus = focus

	refresherOpts := []pipeline.RefresherOption{pipeline.WithSkipObserver(deps.Metrics)}
	if deps.Locks != nil {
		refresherOpts = append(refresherOpts, pipeline.WithLock(deps.Locks, lockTTL(cfg.Fetch)))
	}
	deps.Refresher = pipeline.NewRefresher(focus, logger, refresherOpts...)

	return deps, cleanup, nil
}

// fetchOptions maps the fetch section onto Gamma listing options. With
// active_only the listing asks for active=true&closed=false.
func fetchOptions(fc config.FetchConfig) polymarket.FetchOptions {
	opts := polymarket.FetchOptions{
		PageSize:    fc.PageSize,
		MaxMarkets:  fc.MaxMarkets,
		Concurrency: fc.Concurrency,
	}
	if fc.ActiveOnly {
		active, closed := true, false
		opts.Active = &active
		opts.Closed = &closed
	}
	return opts
}

// lockTTL bounds how long one refresh may hold the shared lock: one refresh
// interval, but never less than two request timeouts.
func lockTTL(fc config.FetchConfig) time.Duration {
	ttl := fc.RefreshInterval.Duration
	if floor := 2 * fc.Timeout.Duration; ttl < floor {
		ttl = floor
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return ttl
}
