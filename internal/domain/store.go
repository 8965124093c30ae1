package domain

import "context"

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// RecordStore persists the current normalized state of each market. Rows are
// overwritten on every refresh; no history is kept.
type RecordStore interface {
	UpsertBatch(ctx context.Context, records []MarketRecord) error
	GetByID(ctx context.Context, id string) (MarketRecord, error)
	ListCandidates(ctx context.Context, maxHours float64, opts ListOpts) ([]MarketRecord, error)
	Count(ctx context.Context) (int64, error)
}
