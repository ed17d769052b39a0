package prices

import (
	"context"
	"testing"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
	testingpkg "github.com/mecoserra2008/Portfolio-Tracker/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "history")
	t.Cleanup(cleanup)
	return NewStore(db.Conn(), zerolog.Nop())
}

func TestStore_WriteAndCoverage(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	cov, err := store.Coverage(ctx, "AAA")
	require.NoError(t, err)
	assert.Nil(t, cov, "no coverage before any write")

	n, err := store.Write(ctx, "AAA", testingpkg.NewPriceSeries("AAA", d(1, 2), 10, 11, 12))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	cov, err = store.Coverage(ctx, "AAA")
	require.NoError(t, err)
	require.NotNil(t, cov)
	assert.Equal(t, d(1, 2), cov.FirstDate)
	assert.Equal(t, d(1, 4), cov.LastDate)
	assert.Equal(t, 3, cov.RecordCount)
	assert.False(t, cov.LastUpdated.IsZero())
}

func TestStore_WriteReplacesDuplicates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Write(ctx, "AAA", testingpkg.NewPriceSeries("AAA", d(1, 1), 10, 11))
	require.NoError(t, err)
	_, err = store.Write(ctx, "AAA", []domain.PricePoint{testingpkg.NewPricePoint("AAA", d(1, 2), 99)})
	require.NoError(t, err)

	cov, err := store.Coverage(ctx, "AAA")
	require.NoError(t, err)
	assert.Equal(t, 2, cov.RecordCount)

	price, ok, err := store.PriceOn(ctx, "AAA", d(1, 2))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 99.0, price)
}

func TestStore_Read(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	points := testingpkg.NewPriceSeries("AAA", d(1, 1), 10, 11, 12, 13, 14)
	points[2].Dividend = 0.5
	points[3].Split = 2
	// Written out of order on purpose
	_, err := store.Write(ctx, "AAA", []domain.PricePoint{points[4], points[0], points[2], points[1], points[3]})
	require.NoError(t, err)

	got, err := store.Read(ctx, "AAA", d(1, 2), d(1, 4))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, d(1, 2), got[0].Date)
	assert.Equal(t, d(1, 3), got[1].Date)
	assert.Equal(t, d(1, 4), got[2].Date)
	assert.Equal(t, 0.5, got[1].Dividend)
	assert.Equal(t, 1.0, got[1].Split)
	assert.Equal(t, 2.0, got[2].Split)
	assert.Equal(t, int64(1000), got[0].Volume)
	assert.Equal(t, "AAA", got[0].Symbol)

	empty, err := store.Read(ctx, "AAA", d(3, 1), d(3, 31))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_ForcedRefresh(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Write(ctx, "AAA", testingpkg.NewPriceSeries("AAA", d(1, 1), 1, 2, 3))
	require.NoError(t, err)
	_, err = store.Write(ctx, "BBB", testingpkg.NewPriceSeries("BBB", d(1, 1), 1))
	require.NoError(t, err)

	require.NoError(t, store.ForcedRefresh(ctx, "AAA"))

	cov, err := store.Coverage(ctx, "AAA")
	require.NoError(t, err)
	assert.Nil(t, cov)

	got, err := store.Read(ctx, "AAA", d(1, 1), d(12, 31))
	require.NoError(t, err)
	assert.Empty(t, got)

	other, err := store.Coverage(ctx, "BBB")
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.Equal(t, 1, other.RecordCount)

	// Refilling after a refresh reports exactly what the last write stored
	_, err = store.Write(ctx, "AAA", testingpkg.NewPriceSeries("AAA", d(2, 1), 5, 6))
	require.NoError(t, err)
	cov, err = store.Coverage(ctx, "AAA")
	require.NoError(t, err)
	assert.Equal(t, 2, cov.RecordCount)
	assert.Equal(t, d(2, 1), cov.FirstDate)
}

func TestStore_MissingRanges_InteriorGapTrusted(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Write(ctx, "AAA", []domain.PricePoint{
		testingpkg.NewPricePoint("AAA", d(1, 1), 10),
		testingpkg.NewPricePoint("AAA", d(1, 31), 12),
	})
	require.NoError(t, err)

	ranges, err := store.MissingRanges(ctx, "AAA", d(1, 1), d(1, 31))
	require.NoError(t, err)
	assert.Empty(t, ranges, "holes inside [first, last] are not reported")
}

func TestStore_Validation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Read(ctx, "", d(1, 1), d(1, 2))
	assert.ErrorIs(t, err, ErrEmptySymbol)

	_, err = store.MissingRanges(ctx, "AAA", d(1, 2), d(1, 1))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = store.Write(ctx, "", nil)
	assert.ErrorIs(t, err, ErrEmptySymbol)

	n, err := store.Write(ctx, "AAA", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_LatestAndPriceOn(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	latest, err := store.Latest(ctx, "AAA")
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = store.Write(ctx, "AAA", testingpkg.NewPriceSeries("AAA", d(1, 1), 10, 11, 12))
	require.NoError(t, err)

	latest, err = store.Latest(ctx, "AAA")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, d(1, 3), latest.Date)
	assert.Equal(t, 12.0, latest.Close)

	_, ok, err := store.PriceOn(ctx, "AAA", d(1, 4))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_StatsAndPrune(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Write(ctx, "AAA", testingpkg.NewPriceSeries("AAA", d(1, 1), 1, 2, 3, 4))
	require.NoError(t, err)
	_, err = store.Write(ctx, "BBB", testingpkg.NewPriceSeries("BBB", d(1, 3), 1, 2))
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSymbols)
	assert.Equal(t, 6, stats.TotalRecords)
	assert.Equal(t, "2024-01-01", stats.StartDate)
	assert.Equal(t, "2024-01-04", stats.EndDate)
	require.Len(t, stats.Symbols, 2)
	assert.Equal(t, SymbolStats{Symbol: "AAA", Records: 4, FirstDate: "2024-01-01", LastDate: "2024-01-04"}, stats.Symbols[0])

	deleted, err := store.PruneBefore(ctx, d(1, 3))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	cov, err := store.Coverage(ctx, "AAA")
	require.NoError(t, err)
	assert.Equal(t, d(1, 3), cov.FirstDate)
	assert.Equal(t, 2, cov.RecordCount)

	deleted, err = store.PruneBefore(ctx, d(2, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)

	cov, err = store.Coverage(ctx, "BBB")
	require.NoError(t, err)
	assert.Nil(t, cov)

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRecords)
	assert.Empty(t, stats.Symbols)
}
