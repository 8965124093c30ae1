package polymarket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

// ClobClient is a read-only REST client for the Polymarket CLOB (Central
// Limit Order Book) API. It serves supplementary price and order-book lookups
// for focus markets; it never places orders.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClobClient creates a new CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com". Requests
// pass through a circuit breaker that opens after five consecutive failures
// and probes again after 30 seconds.
func NewClobClient(baseURL string) *ClobClient {
	return &ClobClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "polymarket-clob",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				// A missing book is an answer, not an outage.
				return err == nil || errors.Is(err, domain.ErrNotFound)
			},
		}),
	}
}

// GetPrices returns the BUY and SELL price for each token id. Tokens the CLOB
// does not know are omitted from the result.
func (c *ClobClient) GetPrices(ctx context.Context, tokenIDs []string) ([]domain.Quote, error) {
	if len(tokenIDs) == 0 {
		return nil, nil
	}
	params := url.Values{}
	params.Set("token_ids", strings.Join(tokenIDs, ","))

	body, err := c.get(ctx, "/prices?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: get prices: %w", err)
	}

	var resp map[string]map[string]json.Number
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("polymarket/clob: decode prices: %w", err)
	}

	var quotes []domain.Quote
	for _, id := range tokenIDs {
		sides, ok := resp[id]
		if !ok {
			continue
		}
		for _, side := range []string{"BUY", "SELL"} {
			n, ok := sides[side]
			if !ok {
				continue
			}
			p, err := n.Float64()
			if err != nil {
				continue
			}
			quotes = append(quotes, domain.Quote{TokenID: id, Side: side, Price: p})
		}
	}
	return quotes, nil
}

// GetBook returns the order book for a single token.
func (c *ClobClient) GetBook(ctx context.Context, tokenID string) (domain.Book, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	body, err := c.get(ctx, "/book?"+params.Encode())
	if err != nil {
		return domain.Book{}, fmt.Errorf("polymarket/clob: get book %s: %w", tokenID, err)
	}

	var apiBook APIBook
	if err := json.Unmarshal(body, &apiBook); err != nil {
		return domain.Book{}, fmt.Errorf("polymarket/clob: decode book: %w", err)
	}
	book := apiBook.ToDomainBook()
	if book.TokenID == "" {
		book.TokenID = tokenID
	}
	return book, nil
}

func (c *ClobClient) get(ctx context.Context, path string) ([]byte, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return getJSON(ctx, c.httpClient, c.baseURL+path)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
		return nil, err
	}
	return out.([]byte), nil
}
