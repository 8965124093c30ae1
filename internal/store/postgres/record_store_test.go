package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

func TestDSN(t *testing.T) {
	assert.Equal(t, "postgres://u:p@db:5432/focus?sslmode=disable",
		DSN(ClientConfig{Host: "db", Database: "focus", User: "u", Password: "p"}))
	assert.Equal(t, "postgres://u:p@db:6543/focus?sslmode=require",
		DSN(ClientConfig{Host: "db", Port: 6543, Database: "focus", User: "u", Password: "p", SSLMode: "require"}))
	assert.Equal(t, "postgres://explicit", DSN(ClientConfig{DSN: "postgres://explicit", Host: "ignored"}))
	assert.Equal(t, "postgres://u:p%40ss@db:5432/focus?sslmode=disable",
		DSN(ClientConfig{Host: "db", Database: "focus", User: "u", Password: "p@ss"}))
}

func TestMigrationFilesSorted(t *testing.T) {
	names, err := migrationFiles(migrationsFS)
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "migrations/001_market_records.sql", names[0])
	assert.IsNonDecreasing(t, names)
}

func TestRecordArgsKeepsNulls(t *testing.T) {
	args := recordArgs(domain.MarketRecord{ID: "m1", Active: true})
	require.Len(t, args, 15)
	assert.Equal(t, "m1", args[0])
	assert.Equal(t, (*string)(nil), args[1])
	assert.Equal(t, (*float64)(nil), args[5])
	assert.Equal(t, true, args[7])
}

func strPtr(s string) *string   { return &s }
func fltPtr(f float64) *float64 { return &f }

// TestRecordStoreIntegration runs against a live database when
// POLYFOCUS_TEST_POSTGRES_DSN is set.
func TestRecordStoreIntegration(t *testing.T) {
	dsn := os.Getenv("POLYFOCUS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POLYFOCUS_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	c, err := New(ctx, ClientConfig{DSN: dsn, MaxConns: 2})
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.RunMigrations(ctx))

	store := NewRecordStore(c.Pool())
	candidate := func(id string, hours float64) domain.MarketRecord {
		return domain.MarketRecord{
			ID: id, Question: strPtr("q " + id), HoursToClose: fltPtr(hours),
			EnableOrderBook: true, Active: true,
			YesTokenID: strPtr(id + "-y"), NoTokenID: strPtr(id + "-n"),
		}
	}
	invalid := candidate("bad", 1)
	invalid.InvalidReason = strPtr("not binary market (outcomes=3)")

	require.NoError(t, store.UpsertBatch(ctx, []domain.MarketRecord{
		candidate("late", 40), candidate("soon", 2), candidate("far", 100), invalid,
	}))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	got, err := store.ListCandidates(ctx, 48, domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "soon", got[0].ID)
	assert.Equal(t, "late", got[1].ID)

	rec, err := store.GetByID(ctx, "bad")
	require.NoError(t, err)
	require.NotNil(t, rec.InvalidReason)
	assert.Nil(t, rec.YesPrice)

	// A later refresh replaces the whole table.
	require.NoError(t, store.UpsertBatch(ctx, []domain.MarketRecord{candidate("soon", 1.5)}))
	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.GetByID(ctx, "late")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
