package market

import (
	"errors"
	"fmt"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

// DefaultMaxHours is the candidate window used when none is configured.
const DefaultMaxHours = 48

// ErrInvalidMaxHours is returned by Options.Validate for a non-positive window.
var ErrInvalidMaxHours = errors.New("max hours must be positive")

// Options configures a pipeline run.
type Options struct {
	// MaxHours bounds hours_to_close for candidate admission.
	MaxHours float64
}

// Validate checks that the options describe a usable window.
func (o Options) Validate() error {
	if !(o.MaxHours > 0) {
		return fmt.Errorf("market: %w (got %v)", ErrInvalidMaxHours, o.MaxHours)
	}
	return nil
}

// Result is the full pipeline output.
type Result struct {
	All        []domain.MarketRecord
	Candidates []domain.MarketRecord
	Focus      domain.FocusPair
}

// Run normalizes raws, filters candidates and selects the focus pair. Raws may
// arrive in any order; All preserves it.
func Run(raws []domain.RawMarket, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	all := NormalizeAll(raws)
	return Select(all, opts.MaxHours), nil
}

// Select filters already normalized records and picks the focus pair. It is
// used to re-window a snapshot without normalizing again.
func Select(all []domain.MarketRecord, maxHours float64) Result {
	candidates := FilterCandidates(all, maxHours)
	return Result{
		All:        all,
		Candidates: candidates,
		Focus:      SelectFocus(candidates),
	}
}
