package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

// FocusReader defines the methods the market handler requires from the
// service layer. It is declared locally so the handler package does not
// depend on the concrete service implementation.
type FocusReader interface {
	MaxHours() float64
	Markets(ctx context.Context, opts domain.ListOpts) ([]domain.MarketRecord, int, error)
	Market(ctx context.Context, id string) (domain.MarketRecord, error)
	Candidates(ctx context.Context, maxHours float64, validPricesOnly bool) ([]domain.MarketRecord, error)
	Focus(ctx context.Context, maxHours float64) (domain.FocusPair, error)
	Quotes(ctx context.Context) ([]domain.Quote, error)
	Book(ctx context.Context, tokenID string) (domain.Book, error)
}

// MarketHandler serves market, candidate and focus endpoints.
type MarketHandler struct {
	svc    FocusReader
	logger *slog.Logger
}

// NewMarketHandler creates a MarketHandler with the given service and logger.
func NewMarketHandler(svc FocusReader, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{svc: svc, logger: logger}
}

type listMarketsResponse struct {
	Markets []domain.MarketRecord `json:"markets"`
	Total   int                   `json:"total"`
	Limit   int                   `json:"limit"`
	Offset  int                   `json:"offset"`
}

// ListMarkets returns every normalized record of the latest snapshot,
// including invalid ones, with pagination.
// GET /api/markets?limit=50&offset=0
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	records, total, err := h.svc.Markets(r.Context(), opts)
	if err != nil {
		h.fail(w, r, "list markets", err)
		return
	}
	writeJSON(w, http.StatusOK, listMarketsResponse{
		Markets: records,
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// GetMarket returns one normalized record.
// GET /api/markets/{id}
func (h *MarketHandler) GetMarket(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Market(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "get market", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type candidatesResponse struct {
	MaxHours        float64               `json:"max_hours"`
	ValidPricesOnly bool                  `json:"valid_prices_only"`
	Count           int                   `json:"count"`
	Candidates      []domain.MarketRecord `json:"candidates"`
}

// ListCandidates returns candidates closing within max_hours, soonest first.
// GET /api/candidates?max_hours=48&valid_prices=true
func (h *MarketHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	maxHours, err := parseMaxHours(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	validOnly := parseBool(r, "valid_prices")

	records, err := h.svc.Candidates(r.Context(), maxHours, validOnly)
	if err != nil {
		h.fail(w, r, "list candidates", err)
		return
	}
	writeJSON(w, http.StatusOK, candidatesResponse{
		MaxHours:        h.effective(maxHours),
		ValidPricesOnly: validOnly,
		Count:           len(records),
		Candidates:      records,
	})
}

type focusResponse struct {
	MaxHours float64 `json:"max_hours"`
	domain.FocusPair
}

// GetFocus returns the crypto and sports focus markets.
// GET /api/focus?max_hours=48
func (h *MarketHandler) GetFocus(w http.ResponseWriter, r *http.Request) {
	maxHours, err := parseMaxHours(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pair, err := h.svc.Focus(r.Context(), maxHours)
	if err != nil {
		h.fail(w, r, "get focus", err)
		return
	}
	writeJSON(w, http.StatusOK, focusResponse{MaxHours: h.effective(maxHours), FocusPair: pair})
}

// GetFocusQuotes returns live CLOB prices for the focus markets' tokens.
// GET /api/focus/quotes
func (h *MarketHandler) GetFocusQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.svc.Quotes(r.Context())
	if err != nil {
		h.fail(w, r, "get focus quotes", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quotes": quotes})
}

// GetBook returns the live order book of one token.
// GET /api/books/{token_id}
func (h *MarketHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.svc.Book(r.Context(), r.PathValue("token_id"))
	if err != nil {
		h.fail(w, r, "get book", err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *MarketHandler) effective(maxHours float64) float64 {
	if maxHours == 0 {
		return h.svc.MaxHours()
	}
	return maxHours
}

func (h *MarketHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		h.logger.ErrorContext(r.Context(), "handler: "+op+" failed",
			slog.String("error", err.Error()),
		)
	}
	writeError(w, status, err.Error())
}
