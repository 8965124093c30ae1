package polymarket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

// Defaults mirror the Gamma API's page limits.
const (
	DefaultPageSize    = 100
	DefaultMaxMarkets  = 10000
	DefaultConcurrency = 20
)

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides market discovery and metadata.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	onPageFail func()
}

// GammaOption customizes a GammaClient.
type GammaOption func(*GammaClient)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) GammaOption {
	return func(g *GammaClient) { g.httpClient = c }
}

// WithRateLimit paces page requests to rps requests per second. Zero or
// negative disables pacing.
func WithRateLimit(rps float64, burst int) GammaOption {
	return func(g *GammaClient) {
		if rps <= 0 {
			g.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger used for per-page failures.
func WithLogger(l *slog.Logger) GammaOption {
	return func(g *GammaClient) { g.logger = l }
}

// WithPageFailureHook registers a callback invoked once per failed page.
func WithPageFailureHook(fn func()) GammaOption {
	return func(g *GammaClient) { g.onPageFail = fn }
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string, opts ...GammaOption) *GammaClient {
	g := &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// PageQuery selects one page of the /markets listing. Nil Active/Closed leave
// the corresponding filter unset.
type PageQuery struct {
	Limit  int
	Offset int
	Active *bool
	Closed *bool
}

// FetchOptions controls FetchAllMarkets.
type FetchOptions struct {
	PageSize    int
	MaxMarkets  int
	Concurrency int
	Active      *bool
	Closed      *bool
}

func (o FetchOptions) withDefaults() FetchOptions {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.MaxMarkets <= 0 {
		o.MaxMarkets = DefaultMaxMarkets
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

// FetchMarketsPage returns one page of raw market records. Numbers are decoded
// as json.Number so long token ids keep every digit.
func (g *GammaClient) FetchMarketsPage(ctx context.Context, q PageQuery) ([]domain.RawMarket, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))
	if q.Active != nil {
		params.Set("active", strconv.FormatBool(*q.Active))
	}
	if q.Closed != nil {
		params.Set("closed", strconv.FormatBool(*q.Closed))
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("polymarket/gamma: rate limit wait: %w", err)
		}
	}

	body, err := g.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get markets offset=%d: %w", q.Offset, err)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raws []domain.RawMarket
	if err := dec.Decode(&raws); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode markets offset=%d: %w", q.Offset, err)
	}
	return raws, nil
}

// FetchAllMarkets fetches every page up to MaxMarkets with bounded
// concurrency. A page that fails contributes zero records; the error is logged
// and the remaining pages continue. The result is sorted by id and truncated
// to MaxMarkets. Only context cancellation aborts the whole fetch.
func (g *GammaClient) FetchAllMarkets(ctx context.Context, opts FetchOptions) ([]domain.RawMarket, error) {
	opts = opts.withDefaults()

	var (
		mu  sync.Mutex
		all []domain.RawMarket
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Concurrency)

	for offset := 0; offset < opts.MaxMarkets; offset += opts.PageSize {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			page, err := g.FetchMarketsPage(egCtx, PageQuery{
				Limit:  opts.PageSize,
				Offset: offset,
				Active: opts.Active,
				Closed: opts.Closed,
			})
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				g.logger.WarnContext(egCtx, "gamma page failed",
					slog.Int("offset", offset),
					slog.String("error", err.Error()),
				)
				if g.onPageFail != nil {
					g.onPageFail()
				}
				return nil
			}
			if len(page) == 0 {
				return nil
			}
			mu.Lock()
			all = append(all, page...)
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: fetch all markets: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: fetch all markets: %w", err)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return rawID(all[i]) < rawID(all[j])
	})
	if len(all) > opts.MaxMarkets {
		all = all[:opts.MaxMarkets]
	}
	return all, nil
}

func rawID(r domain.RawMarket) string {
	switch v := r.ID.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	return getJSON(ctx, g.httpClient, g.baseURL+path)
}

// getJSON performs a GET with an Accept: application/json header and maps
// non-2xx responses to domain errors.
func getJSON(ctx context.Context, client *http.Client, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch {
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	case statusCode >= 500:
		return fmt.Errorf("%w: HTTP %d: %s", domain.ErrUpstream, statusCode, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
