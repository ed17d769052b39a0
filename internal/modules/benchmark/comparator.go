// Package benchmark compares a portfolio valuation series against a benchmark index.
package benchmark

import (
	"context"
	"math"
	"time"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/utils"
	"github.com/mecoserra2008/Portfolio-Tracker/pkg/formulas"
	"github.com/rs/zerolog"
)

// DefaultSymbol is the S&P 500 index
const DefaultSymbol = "^GSPC"

// RangeFetcher fills and reads the price cache
type RangeFetcher interface {
	EnsureRange(ctx context.Context, symbol string, start, end time.Time, batchDays int, force bool) ([]domain.PricePoint, error)
}

// Row is one day of the merged portfolio/benchmark table. Percent fields;
// benchmark fields are NaN when the benchmark has no close on Date.
type Row struct {
	Date                   time.Time `json:"date"`
	PortfolioValue         float64   `json:"portfolio_value"`
	PortfolioReturnPct     float64   `json:"portfolio_return_pct"`
	PortfolioCumulativePct float64   `json:"portfolio_cumulative_pct"`
	BenchmarkClose         float64   `json:"benchmark_close"`
	BenchmarkReturnPct     float64   `json:"benchmark_return_pct"`
	BenchmarkCumulativePct float64   `json:"benchmark_cumulative_pct"`
	AlphaPct               float64   `json:"alpha_pct"`
	CumulativeAlphaPct     float64   `json:"cumulative_alpha_pct"`
}

// Metrics are regression statistics over days where both daily returns are defined.
// Return-based values are fractions; WinRate is a percentage.
type Metrics struct {
	Valid             bool    `json:"valid"`
	Observations      int     `json:"observations"`
	Beta              float64 `json:"beta"`
	JensensAlpha      float64 `json:"jensens_alpha"`
	AlphaSimple       float64 `json:"alpha_simple"`
	InformationRatio  float64 `json:"information_ratio"`
	TrackingError     float64 `json:"tracking_error"`
	Correlation       float64 `json:"correlation"`
	WinRate           float64 `json:"win_rate"`
	AvgExcessReturn   float64 `json:"avg_excess_return"`
	TotalExcessReturn float64 `json:"total_excess_return"`
}

// Comparison is the result of Compare. When HasBenchmark is false the rows
// carry only portfolio fields and Metrics is zero.
type Comparison struct {
	Symbol       string  `json:"symbol"`
	HasBenchmark bool    `json:"has_benchmark"`
	Rows         []Row   `json:"rows"`
	Metrics      Metrics `json:"metrics"`
}

// Comparator merges a valuation series with cached benchmark closes
type Comparator struct {
	fetcher      RangeFetcher
	riskFreeRate float64
	batchDays    int
	log          zerolog.Logger
}

// NewComparator creates a comparator with a zero risk-free rate
func NewComparator(fetcher RangeFetcher, log zerolog.Logger) *Comparator {
	return &Comparator{
		fetcher: fetcher,
		log:     log.With().Str("component", "benchmark").Logger(),
	}
}

// WithRiskFreeRate sets the annual risk-free rate (fraction) used by Jensen's alpha
func (c *Comparator) WithRiskFreeRate(rate float64) *Comparator {
	c.riskFreeRate = rate
	return c
}

// WithBatchDays sets the fetch window used when filling benchmark prices
func (c *Comparator) WithBatchDays(days int) *Comparator {
	c.batchDays = days
	return c
}

// Compare left-joins benchmark closes onto series by date. An unavailable
// benchmark is not an error: the portfolio rows are returned alone.
func (c *Comparator) Compare(ctx context.Context, series []domain.DailyValuation, symbol string) (Comparison, error) {
	if symbol == "" {
		symbol = DefaultSymbol
	}

	result := Comparison{Symbol: symbol, Rows: portfolioRows(series)}
	if len(series) == 0 {
		return result, nil
	}

	start, end := series[0].Date, series[len(series)-1].Date
	points, err := c.fetcher.EnsureRange(ctx, symbol, start, end, c.batchDays, false)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Benchmark unavailable")
		return result, nil
	}
	if len(points) == 0 {
		c.log.Info().
			Str("symbol", symbol).
			Str("from", utils.FormatDate(start)).
			Str("to", utils.FormatDate(end)).
			Msg("No benchmark prices for range")
		return result, nil
	}

	closes := make(map[time.Time]float64, len(points))
	for _, p := range points {
		closes[utils.Day(p.Date)] = p.Close
	}

	mergeBenchmark(result.Rows, closes)
	result.HasBenchmark = true
	result.Metrics = c.metrics(result.Rows)

	return result, nil
}

func portfolioRows(series []domain.DailyValuation) []Row {
	rows := make([]Row, len(series))
	nan := math.NaN()
	for i, v := range series {
		rows[i] = Row{
			Date:                   v.Date,
			PortfolioValue:         v.TotalValue,
			PortfolioReturnPct:     v.DailyReturnPct,
			PortfolioCumulativePct: v.CumulativeReturnPct,
			BenchmarkClose:         nan,
			BenchmarkReturnPct:     nan,
			BenchmarkCumulativePct: nan,
			AlphaPct:               nan,
			CumulativeAlphaPct:     nan,
		}
	}
	return rows
}

// mergeBenchmark fills the benchmark columns. Daily return compares with the
// last close seen on an earlier row, so Monday is measured against Friday and
// rows without a close (weekends, holidays) return 0 once a close exists.
// Cumulative return is relative to the first available close.
func mergeBenchmark(rows []Row, closes map[time.Time]float64) {
	base := math.NaN()
	prev := math.NaN()

	for i := range rows {
		px, ok := closes[rows[i].Date]
		if !ok {
			px = math.NaN()
		}
		rows[i].BenchmarkClose = px

		switch {
		case i == 0:
		case math.IsNaN(px) && !math.IsNaN(prev):
			rows[i].BenchmarkReturnPct = 0
		default:
			rows[i].BenchmarkReturnPct = formulas.PctChange(prev, px) * 100
		}
		if !math.IsNaN(px) {
			prev = px
		}

		if math.IsNaN(base) && !math.IsNaN(px) && px != 0 {
			base = px
		}
		if !math.IsNaN(base) && !math.IsNaN(px) {
			rows[i].BenchmarkCumulativePct = (px/base - 1) * 100
		}

		rows[i].AlphaPct = rows[i].PortfolioReturnPct - rows[i].BenchmarkReturnPct
		rows[i].CumulativeAlphaPct = rows[i].PortfolioCumulativePct - rows[i].BenchmarkCumulativePct
	}
}

func (c *Comparator) metrics(rows []Row) Metrics {
	var port, bench []float64
	for _, r := range rows {
		if defined(r.PortfolioReturnPct) && defined(r.BenchmarkReturnPct) {
			port = append(port, r.PortfolioReturnPct/100)
			bench = append(bench, r.BenchmarkReturnPct/100)
		}
	}
	return Calculate(port, bench, c.riskFreeRate)
}

// Calculate computes the regression metrics of aligned daily return fractions.
// Fewer than two pairs yields an invalid zero value.
func Calculate(port, bench []float64, riskFreeRate float64) Metrics {
	n := len(port)
	if n < 2 || n != len(bench) {
		return Metrics{Observations: n}
	}

	excess := make([]float64, n)
	wins := 0
	total := 0.0
	for i := range port {
		excess[i] = port[i] - bench[i]
		total += excess[i]
		if excess[i] > 0 {
			wins++
		}
	}

	m := Metrics{
		Valid:             true,
		Observations:      n,
		AlphaSimple:       formulas.AnnualizedMean(excess),
		TrackingError:     formulas.AnnualizedVolatility(excess),
		Correlation:       formulas.Correlation(port, bench),
		WinRate:           float64(wins) / float64(n) * 100,
		AvgExcessReturn:   formulas.Mean(excess),
		TotalExcessReturn: total,
	}

	if variance := formulas.Variance(bench); variance > 0 {
		m.Beta = formulas.Covariance(port, bench) / variance
	}

	portAnnual := formulas.AnnualizedMean(port)
	benchAnnual := formulas.AnnualizedMean(bench)
	m.JensensAlpha = portAnnual - (riskFreeRate + m.Beta*(benchAnnual-riskFreeRate))

	if m.TrackingError > 0 {
		m.InformationRatio = m.AlphaSimple / m.TrackingError
	}

	return m
}

func defined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
