package benchmark

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/valuation"
	testingpkg "github.com/mecoserra2008/Portfolio-Tracker/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

type stubFetcher struct {
	points []domain.PricePoint
	err    error
	calls  int
}

func (s *stubFetcher) EnsureRange(ctx context.Context, symbol string, from, to time.Time, batchDays int, force bool) ([]domain.PricePoint, error) {
	s.calls++
	return s.points, s.err
}

func TestCompare_AlphaColumns(t *testing.T) {
	series := valuation.FromTotals(start, 100, 110, 121)
	fetcher := &stubFetcher{points: testingpkg.NewPriceSeries("^GSPC", start, 50, 55, 55)}

	cmp, err := NewComparator(fetcher, zerolog.Nop()).Compare(context.Background(), series, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultSymbol, cmp.Symbol)
	require.True(t, cmp.HasBenchmark)
	require.Len(t, cmp.Rows, 3)

	assert.True(t, math.IsNaN(cmp.Rows[0].BenchmarkReturnPct))
	assert.InDelta(t, 10.0, cmp.Rows[1].BenchmarkReturnPct, 1e-9)
	assert.InDelta(t, 0.0, cmp.Rows[2].BenchmarkReturnPct, 1e-9)
	assert.InDelta(t, 10.0, cmp.Rows[2].BenchmarkCumulativePct, 1e-9)

	assert.InDelta(t, 0.0, cmp.Rows[1].AlphaPct, 1e-9)
	assert.InDelta(t, 10.0, cmp.Rows[2].AlphaPct, 1e-9)
	assert.InDelta(t, 11.0, cmp.Rows[2].CumulativeAlphaPct, 1e-9)

	m := cmp.Metrics
	require.True(t, m.Valid)
	assert.Equal(t, 2, m.Observations)
	assert.InDelta(t, 50.0, m.WinRate, 1e-9)
	assert.InDelta(t, 0.1, m.TotalExcessReturn, 1e-9)
	assert.InDelta(t, 0.05, m.AvgExcessReturn, 1e-9)
	assert.InDelta(t, 0.05*252, m.AlphaSimple, 1e-9)
}

func TestCompare_ZeroVarianceBenchmark(t *testing.T) {
	series := valuation.FromTotals(start, 100, 102, 101, 105)
	fetcher := &stubFetcher{points: testingpkg.NewPriceSeries("IDX", start, 10, 10, 10, 10)}

	cmp, err := NewComparator(fetcher, zerolog.Nop()).Compare(context.Background(), series, "IDX")
	require.NoError(t, err)
	require.True(t, cmp.HasBenchmark)

	var port []float64
	for _, v := range series[1:] {
		port = append(port, v.DailyReturnPct/100)
	}
	mean := (port[0] + port[1] + port[2]) / 3

	assert.Zero(t, cmp.Metrics.Beta)
	assert.InDelta(t, mean*252, cmp.Metrics.JensensAlpha, 1e-9)
	assert.False(t, math.IsNaN(cmp.Metrics.InformationRatio))
	assert.Zero(t, cmp.Metrics.Correlation)
}

func TestCompare_BenchmarkUnavailable(t *testing.T) {
	series := valuation.FromTotals(start, 100, 101)

	for name, fetcher := range map[string]*stubFetcher{
		"empty": {},
		"error": {err: errors.New("provider down")},
	} {
		t.Run(name, func(t *testing.T) {
			cmp, err := NewComparator(fetcher, zerolog.Nop()).Compare(context.Background(), series, "IDX")
			require.NoError(t, err)
			assert.False(t, cmp.HasBenchmark)
			require.Len(t, cmp.Rows, 2)
			assert.Equal(t, 101.0, cmp.Rows[1].PortfolioValue)
			assert.True(t, math.IsNaN(cmp.Rows[1].BenchmarkClose))
			assert.False(t, cmp.Metrics.Valid)
		})
	}
}

func TestCompare_GapsAndLateStart(t *testing.T) {
	series := valuation.FromTotals(start, 100, 100, 100, 100)
	// No close on the first two days
	fetcher := &stubFetcher{points: testingpkg.NewPriceSeries("IDX", start.AddDate(0, 0, 2), 20, 22)}

	cmp, err := NewComparator(fetcher, zerolog.Nop()).Compare(context.Background(), series, "IDX")
	require.NoError(t, err)

	assert.True(t, math.IsNaN(cmp.Rows[1].BenchmarkCumulativePct))
	assert.True(t, math.IsNaN(cmp.Rows[2].BenchmarkReturnPct), "previous row has no close")
	assert.InDelta(t, 0.0, cmp.Rows[2].BenchmarkCumulativePct, 1e-9, "base is the first available close")
	assert.InDelta(t, 10.0, cmp.Rows[3].BenchmarkCumulativePct, 1e-9)
	assert.Equal(t, 1, cmp.Metrics.Observations)
	assert.False(t, cmp.Metrics.Valid)
}

func TestCompare_MondayMeasuredAgainstFriday(t *testing.T) {
	fri := time.Date(2024, time.February, 2, 0, 0, 0, 0, time.UTC)
	mon := fri.AddDate(0, 0, 3)
	series := valuation.FromTotals(fri, 100, 101, 102, 103)
	fetcher := &stubFetcher{points: []domain.PricePoint{
		testingpkg.NewPricePoint("IDX", fri, 50),
		testingpkg.NewPricePoint("IDX", mon, 55),
	}}

	cmp, err := NewComparator(fetcher, zerolog.Nop()).Compare(context.Background(), series, "IDX")
	require.NoError(t, err)
	require.Len(t, cmp.Rows, 4)

	assert.True(t, math.IsNaN(cmp.Rows[0].BenchmarkReturnPct))
	assert.True(t, math.IsNaN(cmp.Rows[1].BenchmarkClose), "no close on Saturday")
	assert.InDelta(t, 0.0, cmp.Rows[1].BenchmarkReturnPct, 1e-9)
	assert.InDelta(t, 0.0, cmp.Rows[2].BenchmarkReturnPct, 1e-9)
	assert.Equal(t, mon, cmp.Rows[3].Date)
	assert.InDelta(t, 10.0, cmp.Rows[3].BenchmarkReturnPct, 1e-9)
	assert.InDelta(t, 10.0, cmp.Rows[3].BenchmarkCumulativePct, 1e-9)
	assert.False(t, math.IsNaN(cmp.Rows[3].AlphaPct))

	assert.True(t, cmp.Metrics.Valid)
	assert.Equal(t, 3, cmp.Metrics.Observations)
}

func TestCompare_EmptySeries(t *testing.T) {
	fetcher := &stubFetcher{}
	cmp, err := NewComparator(fetcher, zerolog.Nop()).Compare(context.Background(), nil, "IDX")
	require.NoError(t, err)
	assert.Empty(t, cmp.Rows)
	assert.Zero(t, fetcher.calls)
}

func TestCalculate(t *testing.T) {
	port := []float64{0.02, -0.01, 0.03, 0.00}
	bench := []float64{0.01, -0.02, 0.02, 0.01}

	m := Calculate(port, bench, 0)
	require.True(t, m.Valid)
	assert.InDelta(t, 8.0/9.0, m.Beta, 1e-9)
	assert.Greater(t, m.Correlation, 0.8)
	assert.InDelta(t, 75.0, m.WinRate, 1e-9)
	assert.InDelta(t, m.AlphaSimple/m.TrackingError, m.InformationRatio, 1e-12)

	withRf := Calculate(port, bench, 0.02)
	assert.InDelta(t, m.JensensAlpha-0.02*(1-m.Beta), withRf.JensensAlpha, 1e-9)

	assert.False(t, Calculate([]float64{0.1}, []float64{0.1}, 0).Valid)
}
