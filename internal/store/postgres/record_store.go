package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

// RecordStore implements domain.RecordStore using PostgreSQL. The table
// mirrors the latest listing: UpsertBatch removes rows for markets that are
// no longer listed.
type RecordStore struct {
	pool *pgxpool.Pool
}

// NewRecordStore creates a new RecordStore backed by the given connection pool.
func NewRecordStore(pool *pgxpool.Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

const recordCols = `id, slug, question, category, end_date, hours_to_close,
	enable_order_book, active, closed,
	yes_token_id, no_token_id, yes_price, no_price,
	invalid_reason, price_note`

const upsertRecord = `
	INSERT INTO market_records (` + recordCols + `, refreshed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
	ON CONFLICT (id) DO UPDATE SET
		slug              = EXCLUDED.slug,
		question          = EXCLUDED.question,
		category          = EXCLUDED.category,
		end_date          = EXCLUDED.end_date,
		hours_to_close    = EXCLUDED.hours_to_close,
		enable_order_book = EXCLUDED.enable_order_book,
		active            = EXCLUDED.active,
		closed            = EXCLUDED.closed,
		yes_token_id      = EXCLUDED.yes_token_id,
		no_token_id       = EXCLUDED.no_token_id,
		yes_price         = EXCLUDED.yes_price,
		no_price          = EXCLUDED.no_price,
		invalid_reason    = EXCLUDED.invalid_reason,
		price_note        = EXCLUDED.price_note,
		refreshed_at      = NOW()`

// recordArgs returns the positional arguments for upsertRecord. Nil pointers
// become SQL NULL.
func recordArgs(r domain.MarketRecord) []any {
	return []any{
		r.ID, r.Slug, r.Question, r.Category, r.EndDate, r.HoursToClose,
		r.EnableOrderBook, r.Active, r.Closed,
		r.YesTokenID, r.NoTokenID, r.YesPrice, r.NoPrice,
		r.InvalidReason, r.PriceNote,
	}
}

// UpsertBatch replaces the stored state with records in one transaction.
// Records sharing an id collapse to the last one.
func (s *RecordStore) UpsertBatch(ctx context.Context, records []domain.MarketRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin record batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		batch.Queue(upsertRecord, recordArgs(r)...)
		ids = append(ids, r.ID)
	}
	batch.Queue(`DELETE FROM market_records WHERE NOT (id = ANY($1))`, ids)

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("postgres: upsert record batch item %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("postgres: close record batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit record batch: %w", err)
	}
	return nil
}

// scanRecord scans a single row into a domain.MarketRecord.
func scanRecord(row pgx.Row) (domain.MarketRecord, error) {
	var r domain.MarketRecord
	err := row.Scan(
		&r.ID, &r.Slug, &r.Question, &r.Category, &r.EndDate, &r.HoursToClose,
		&r.EnableOrderBook, &r.Active, &r.Closed,
		&r.YesTokenID, &r.NoTokenID, &r.YesPrice, &r.NoPrice,
		&r.InvalidReason, &r.PriceNote,
	)
	return r, err
}

// GetByID retrieves a record by market id.
func (s *RecordStore) GetByID(ctx context.Context, id string) (domain.MarketRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+recordCols+` FROM market_records WHERE id = $1`, id)
	r, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.MarketRecord{}, domain.ErrNotFound
		}
		return domain.MarketRecord{}, fmt.Errorf("postgres: get record %s: %w", id, err)
	}
	return r, nil
}

// candidateQuery applies the candidate rules to the stored rows. Hours are
// the values computed at the last refresh.
const candidateQuery = `SELECT ` + recordCols + ` FROM market_records
	WHERE invalid_reason IS NULL
	  AND yes_token_id IS NOT NULL AND yes_token_id <> ''
	  AND no_token_id IS NOT NULL AND no_token_id <> ''
	  AND enable_order_book AND active AND NOT closed
	  AND hours_to_close > 0 AND hours_to_close <= $1
	ORDER BY hours_to_close ASC, id ASC`

// ListCandidates returns stored candidates closing within maxHours, soonest
// first.
func (s *RecordStore) ListCandidates(ctx context.Context, maxHours float64, opts domain.ListOpts) ([]domain.MarketRecord, error) {
	query := candidateQuery
	args := []any{maxHours}
	argIdx := 2

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.MarketRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan candidate: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list candidates rows: %w", err)
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *RecordStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM market_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count records: %w", err)
	}
	return n, nil
}

// Compile-time interface check.
var _ domain.RecordStore = (*RecordStore)(nil)
