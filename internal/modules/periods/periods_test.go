package periods

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/prices"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/valuation"
	testingpkg "github.com/mecoserra2008/Portfolio-Tracker/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyReturns_SingleMonth(t *testing.T) {
	series := valuation.FromTotals(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), 100, 105, 110)

	months := MonthlyReturns(series)
	require.Len(t, months, 1)
	assert.Equal(t, 2024, months[0].Year)
	assert.Equal(t, time.March, months[0].Month)
	assert.Equal(t, 110.0, months[0].Value)
	assert.True(t, math.IsNaN(months[0].ReturnPct))
}

func TestMonthlyReturns_MonthEnds(t *testing.T) {
	start := time.Date(2023, time.December, 30, 0, 0, 0, 0, time.UTC)
	// Dec 30, Dec 31, Jan 1 ... Jan 31, Feb 1
	totals := []float64{90, 100}
	for i := 0; i < 31; i++ {
		totals = append(totals, 100+float64(i))
	}
	totals = append(totals, 150)

	months := MonthlyReturns(valuation.FromTotals(start, totals...))
	require.Len(t, months, 3)

	assert.Equal(t, 2023, months[0].Year)
	assert.Equal(t, 100.0, months[0].Value, "last value of December")
	assert.Equal(t, 130.0, months[1].Value, "Jan 31")
	assert.Equal(t, time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC), months[1].Date)
	assert.InDelta(t, 30.0, months[1].ReturnPct, 1e-9)
	assert.InDelta(t, (150.0/130.0-1)*100, months[2].ReturnPct, 1e-9)

	grid := Heatmap(months)
	assert.Equal(t, []int{2023, 2024}, grid.Years)
	assert.True(t, math.IsNaN(grid.Value(2023, time.December)))
	assert.InDelta(t, 30.0, grid.Value(2024, time.January), 1e-9)
	assert.True(t, math.IsNaN(grid.Value(2024, time.March)))
	assert.True(t, math.IsNaN(grid.Value(2030, time.January)))
}

func TestMonthlyReturns_Empty(t *testing.T) {
	assert.Empty(t, MonthlyReturns(nil))
	grid := Heatmap(nil)
	assert.Empty(t, grid.Years)
}

func TestNormalizeAndCompare(t *testing.T) {
	ctx := context.Background()
	db, cleanup := testingpkg.NewTestDB(t, "history")
	defer cleanup()
	store := prices.NewStore(db.Conn(), zerolog.Nop())

	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	_, err := store.Write(ctx, "AAA", testingpkg.NewPriceSeries("AAA", start, 20, 22, 24))
	require.NoError(t, err)
	// BBB has no close on the first day
	_, err = store.Write(ctx, "BBB", []domain.PricePoint{
		testingpkg.NewPricePoint("BBB", start.AddDate(0, 0, 1), 50),
		testingpkg.NewPricePoint("BBB", start.AddDate(0, 0, 2), 40),
	})
	require.NoError(t, err)

	series := valuation.FromTotals(start, 200, 210, 190)
	rows, err := NormalizeAndCompare(ctx, store, series, []string{"AAA", "BBB", "ZZZ"})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.InDelta(t, 100.0, rows[0].Portfolio, 1e-9)
	assert.InDelta(t, 105.0, rows[1].Portfolio, 1e-9)
	assert.InDelta(t, 95.0, rows[2].Portfolio, 1e-9)

	assert.InDelta(t, 100.0, rows[0].Symbols["AAA"], 1e-9)
	assert.InDelta(t, 120.0, rows[2].Symbols["AAA"], 1e-9)

	assert.True(t, math.IsNaN(rows[0].Symbols["BBB"]))
	assert.InDelta(t, 100.0, rows[1].Symbols["BBB"], 1e-9)
	assert.InDelta(t, 80.0, rows[2].Symbols["BBB"], 1e-9)

	for _, r := range rows {
		assert.True(t, math.IsNaN(r.Symbols["ZZZ"]), "uncached symbol is all gaps")
	}
}
