package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/polyfocus/internal/domain"
	"github.com/alanyoungcy/polyfocus/internal/market"
	"github.com/alanyoungcy/polyfocus/internal/metrics"
	"github.com/alanyoungcy/polyfocus/internal/notify"
	"github.com/alanyoungcy/polyfocus/internal/platform/polymarket"
)

// MarketFetcher lists raw markets from the upstream catalogue.
type MarketFetcher interface {
	FetchAllMarkets(ctx context.Context, opts polymarket.FetchOptions) ([]domain.RawMarket, error)
}

// PriceSource serves live CLOB prices and books.
type PriceSource interface {
	GetPrices(ctx context.Context, tokenIDs []string) ([]domain.Quote, error)
	GetBook(ctx context.Context, tokenID string) (domain.Book, error)
}

// FocusNotifier alerts operators about focus changes and failed refreshes.
type FocusNotifier interface {
	Notify(ctx context.Context, event, title, message string) error
	NotifyFocusChanged(ctx context.Context, prev, next domain.FocusPair) error
}

// RefreshObserver receives refresh telemetry.
type RefreshObserver interface {
	ObserveRefresh(result string, d time.Duration)
	ObserveSnapshot(st domain.Stats)
}

// FocusDeps holds the collaborators of a FocusService. Fetcher is required;
// every other field may be nil, which disables that side effect.
type FocusDeps struct {
	Fetcher  MarketFetcher
	Prices   PriceSource
	Cache    domain.SnapshotCache
	Store    domain.RecordStore
	Exporter domain.SnapshotExporter
	Notifier FocusNotifier
	Metrics  RefreshObserver
}

// FocusConfig holds the selection and fetch parameters of a FocusService.
type FocusConfig struct {
	MaxHours float64
	Fetch    polymarket.FetchOptions
}

// FocusService turns the upstream market listing into snapshots and answers
// queries against the latest one.
type FocusService struct {
	deps   FocusDeps
	cfg    FocusConfig
	logger *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	latest *domain.Snapshot
}

// NewFocusService validates cfg and creates a FocusService.
func NewFocusService(deps FocusDeps, cfg FocusConfig, logger *slog.Logger) (*FocusService, error) {
	if deps.Fetcher == nil {
		return nil, errors.New("focus_service: fetcher is required")
	}
	if err := (market.Options{MaxHours: cfg.MaxHours}).Validate(); err != nil {
		return nil, fmt.Errorf("focus_service: %w", err)
	}
	return &FocusService{
		deps:   deps,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "focus_service")),
		now:    time.Now,
	}, nil
}

// MaxHours returns the configured candidate window.
func (s *FocusService) MaxHours() float64 { return s.cfg.MaxHours }

// Refresh fetches every market, runs the normalization pipeline and publishes
// the resulting snapshot. Only fetch failures fail the refresh; cache, store,
// export and notification errors are logged.
func (s *FocusService) Refresh(ctx context.Context) (domain.Snapshot, error) {
	start := s.now()

	raws, err := s.deps.Fetcher.FetchAllMarkets(ctx, s.cfg.Fetch)
	if err != nil {
		s.observe(metrics.ResultError, s.now().Sub(start))
		s.notify(ctx, notify.EventRefreshFailed, "Market refresh failed", err.Error())
		return domain.Snapshot{}, fmt.Errorf("focus_service: fetch markets: %w", err)
	}

	res, err := market.Run(raws, market.Options{MaxHours: s.cfg.MaxHours})
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("focus_service: run pipeline: %w", err)
	}

	snap := domain.Snapshot{
		ID:         uuid.NewString(),
		FetchedAt:  s.now().UTC(),
		MaxHours:   s.cfg.MaxHours,
		Records:    res.All,
		Candidates: res.Candidates,
		Focus:      res.Focus,
	}

	prev, hadPrev := s.previous(ctx)

	s.mu.Lock()
	s.latest = &snap
	s.mu.Unlock()

	s.publish(ctx, snap)

	if hadPrev && s.deps.Notifier != nil {
		if err := s.deps.Notifier.NotifyFocusChanged(ctx, prev.Focus, snap.Focus); err != nil {
			s.logger.WarnContext(ctx, "focus_service: focus notification failed",
				slog.String("error", err.Error()),
			)
		}
	}

	stats := snap.Stats()
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveSnapshot(stats)
	}
	s.observe(metrics.ResultSuccess, s.now().Sub(start))

	s.logger.InfoContext(ctx, "focus_service: refreshed",
		slog.String("snapshot_id", snap.ID),
		slog.Int("records", stats.Records),
		slog.Int("candidates", stats.Candidates),
		slog.Int("invalid", stats.Invalid),
		slog.Int("price_notes", stats.PriceNotes),
		slog.String("crypto", focusLabel(snap.Focus.Crypto)),
		slog.String("sports", focusLabel(snap.Focus.Sports)),
	)
	return snap, nil
}

// previous returns the snapshot a refresh replaces: the in-memory one, or the
// cached one after a restart.
func (s *FocusService) previous(ctx context.Context) (domain.Snapshot, bool) {
	s.mu.RLock()
	cur := s.latest
	s.mu.RUnlock()
	if cur != nil {
		return *cur, true
	}
	if s.deps.Cache == nil {
		return domain.Snapshot{}, false
	}
	snap, err := s.deps.Cache.GetLatest(ctx)
	if err != nil {
		return domain.Snapshot{}, false
	}
	return snap, true
}

// publish writes snap to the cache, store and exporter concurrently.
func (s *FocusService) publish(ctx context.Context, snap domain.Snapshot) {
	var g errgroup.Group
	run := func(name string, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				s.logger.WarnContext(ctx, "focus_service: publish failed",
					slog.String("sink", name),
					slog.String("snapshot_id", snap.ID),
					slog.String("error", err.Error()),
				)
			}
			return nil
		})
	}

	if s.deps.Cache != nil {
		run("cache", func() error { return s.deps.Cache.SetLatest(ctx, snap) })
	}
	if s.deps.Store != nil {
		run("store", func() error { return s.deps.Store.UpsertBatch(ctx, snap.Records) })
	}
	if s.deps.Exporter != nil {
		run("export", func() error { return s.deps.Exporter.ExportSnapshot(ctx, snap) })
	}
	_ = g.Wait()
}

// Latest returns the most recent snapshot, from memory or the shared cache.
// It returns domain.ErrNoSnapshot before the first refresh.
func (s *FocusService) Latest(ctx context.Context) (domain.Snapshot, error) {
	s.mu.RLock()
	cur := s.latest
	s.mu.RUnlock()
	if cur != nil {
		return *cur, nil
	}

	if s.deps.Cache != nil {
		snap, err := s.deps.Cache.GetLatest(ctx)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, domain.ErrNoSnapshot) {
			s.logger.WarnContext(ctx, "focus_service: cache read failed",
				slog.String("error", err.Error()),
			)
		}
	}
	return domain.Snapshot{}, domain.ErrNoSnapshot
}

// Markets returns a page of the latest snapshot's records in listing order.
func (s *FocusService) Markets(ctx context.Context, opts domain.ListOpts) ([]domain.MarketRecord, int, error) {
	snap, err := s.Latest(ctx)
	if err != nil {
		return nil, 0, err
	}
	return page(snap.Records, opts), len(snap.Records), nil
}

// Market returns one record by id, falling back to the record store when the
// latest snapshot does not hold it.
func (s *FocusService) Market(ctx context.Context, id string) (domain.MarketRecord, error) {
	snap, err := s.Latest(ctx)
	if err == nil {
		for _, r := range snap.Records {
			if r.ID == id {
				return r, nil
			}
		}
	}
	if s.deps.Store != nil {
		r, storeErr := s.deps.Store.GetByID(ctx, id)
		if storeErr == nil {
			return r, nil
		}
		if !errors.Is(storeErr, domain.ErrNotFound) {
			return domain.MarketRecord{}, fmt.Errorf("focus_service: get market %q: %w", id, storeErr)
		}
	}
	if err != nil {
		return domain.MarketRecord{}, err
	}
	return domain.MarketRecord{}, fmt.Errorf("focus_service: market %q: %w", id, domain.ErrNotFound)
}

// Candidates re-filters the latest snapshot for maxHours. A non-positive
// maxHours selects the configured window. validPricesOnly drops candidates
// lacking either price.
func (s *FocusService) Candidates(ctx context.Context, maxHours float64, validPricesOnly bool) ([]domain.MarketRecord, error) {
	res, err := s.selection(ctx, maxHours)
	if err != nil {
		return nil, err
	}
	if validPricesOnly {
		return market.WithValidPrices(res.Candidates), nil
	}
	return res.Candidates, nil
}

// Focus returns the focus pair for maxHours; see Candidates.
func (s *FocusService) Focus(ctx context.Context, maxHours float64) (domain.FocusPair, error) {
	res, err := s.selection(ctx, maxHours)
	if err != nil {
		return domain.FocusPair{}, err
	}
	return res.Focus, nil
}

// selection re-windows the latest snapshot. Without one it falls back to the
// candidates persisted by another replica.
func (s *FocusService) selection(ctx context.Context, maxHours float64) (market.Result, error) {
	if maxHours != 0 {
		if err := (market.Options{MaxHours: maxHours}).Validate(); err != nil {
			return market.Result{}, err
		}
	}

	snap, err := s.Latest(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNoSnapshot) || s.deps.Store == nil {
			return market.Result{}, err
		}
		return s.storedSelection(ctx, maxHours)
	}
	if maxHours == 0 || maxHours == snap.MaxHours {
		return market.Result{All: snap.Records, Candidates: snap.Candidates, Focus: snap.Focus}, nil
	}
	return market.Select(snap.Records, maxHours), nil
}

func (s *FocusService) storedSelection(ctx context.Context, maxHours float64) (market.Result, error) {
	if maxHours == 0 {
		maxHours = s.cfg.MaxHours
	}
	n, err := s.deps.Store.Count(ctx)
	if err != nil {
		return market.Result{}, fmt.Errorf("focus_service: count stored records: %w", err)
	}
	if n == 0 {
		return market.Result{}, domain.ErrNoSnapshot
	}
	candidates, err := s.deps.Store.ListCandidates(ctx, maxHours, domain.ListOpts{})
	if err != nil {
		return market.Result{}, fmt.Errorf("focus_service: list stored candidates: %w", err)
	}
	return market.Result{Candidates: candidates, Focus: market.SelectFocus(candidates)}, nil
}

// Quotes returns live CLOB prices for the focus markets' tokens.
func (s *FocusService) Quotes(ctx context.Context) ([]domain.Quote, error) {
	if s.deps.Prices == nil {
		return nil, fmt.Errorf("focus_service: quotes: %w", domain.ErrUpstream)
	}
	snap, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}

	ids := focusTokenIDs(snap.Focus)
	if len(ids) == 0 {
		return []domain.Quote{}, nil
	}
	quotes, err := s.deps.Prices.GetPrices(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("focus_service: quotes: %w", err)
	}
	return quotes, nil
}

// Book returns the live order book of one token.
func (s *FocusService) Book(ctx context.Context, tokenID string) (domain.Book, error) {
	if s.deps.Prices == nil {
		return domain.Book{}, fmt.Errorf("focus_service: book: %w", domain.ErrUpstream)
	}
	book, err := s.deps.Prices.GetBook(ctx, tokenID)
	if err != nil {
		return domain.Book{}, fmt.Errorf("focus_service: book %s: %w", tokenID, err)
	}
	return book, nil
}

// ----------------------------------------------------------------------------
// helpers
// ----------------------------------------------------------------------------

func (s *FocusService) observe(result string, d time.Duration) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveRefresh(result, d)
	}
}

func (s *FocusService) notify(ctx context.Context, event, title, message string) {
	if s.deps.Notifier == nil {
		return
	}
	if err := s.deps.Notifier.Notify(ctx, event, title, message); err != nil {
		s.logger.WarnContext(ctx, "focus_service: notification failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// focusTokenIDs lists the YES then NO token of the crypto pick, then the
// sports pick, without duplicates.
func focusTokenIDs(p domain.FocusPair) []string {
	seen := make(map[string]bool, 4)
	var ids []string
	for _, r := range []*domain.MarketRecord{p.Crypto, p.Sports} {
		if r == nil {
			continue
		}
		for _, id := range []*string{r.YesTokenID, r.NoTokenID} {
			if id == nil || *id == "" || seen[*id] {
				continue
			}
			seen[*id] = true
			ids = append(ids, *id)
		}
	}
	return ids
}

func page(records []domain.MarketRecord, opts domain.ListOpts) []domain.MarketRecord {
	if opts.Offset >= len(records) {
		return []domain.MarketRecord{}
	}
	out := records[max(opts.Offset, 0):]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out
}

func focusLabel(r *domain.MarketRecord) string {
	if r == nil {
		return ""
	}
	return r.ID
}
