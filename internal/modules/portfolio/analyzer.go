// Package portfolio builds the performance report of a set of position ledgers:
// the daily valuation series and everything derived from it.
package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/benchmark"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/periods"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/risk"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/modules/valuation"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/utils"
	"github.com/rs/zerolog"
)

// DefaultRollingWindow is the trailing window, in valuation days, of the rolling metrics
const DefaultRollingWindow = 30

// RangeFetcher fills the price cache for compared symbols
type RangeFetcher interface {
	EnsureRange(ctx context.Context, symbol string, start, end time.Time, batchDays int, force bool) ([]domain.PricePoint, error)
}

// Request describes one analysis run
type Request struct {
	Ledgers       map[domain.AssetClass]domain.PositionLedger
	Start         time.Time
	End           time.Time
	Benchmark     string // empty uses benchmark.DefaultSymbol
	SkipBenchmark bool
	Compare       []string // symbols indexed to 100 next to the portfolio
	RollingWindow int
}

// Report is the full performance picture of a valuation series
type Report struct {
	Series     []domain.DailyValuation
	Risk       domain.RiskSnapshot
	Drawdown   []risk.DrawdownPoint
	Rolling    []risk.RollingPoint
	Monthly    []periods.MonthlyReturn
	Heatmap    periods.HeatmapGrid
	Benchmark  *benchmark.Comparison
	Comparison []domain.ComparisonRow
}

// Analyzer runs the valuation engine and the analytics built on its output
type Analyzer struct {
	engine     *valuation.Engine
	comparator *benchmark.Comparator
	prices     periods.PriceReader
	fetcher    RangeFetcher
	batchDays  int
	log        zerolog.Logger
}

// NewAnalyzer creates an analyzer. fetcher may be nil, in which case compared
// symbols are read from whatever is already cached.
func NewAnalyzer(engine *valuation.Engine, comparator *benchmark.Comparator, prices periods.PriceReader, fetcher RangeFetcher, batchDays int, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		engine:     engine,
		comparator: comparator,
		prices:     prices,
		fetcher:    fetcher,
		batchDays:  batchDays,
		log:        log.With().Str("component", "portfolio_analyzer").Logger(),
	}
}

// Analyze values the ledgers day by day over [Start, End] and derives the report
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Report, error) {
	defer utils.OperationTimer("portfolio_analysis", a.log)()

	series, err := a.engine.DailySeries(ctx, req.Ledgers, req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("failed to value portfolio: %w", err)
	}

	window := req.RollingWindow
	if window <= 0 {
		window = DefaultRollingWindow
	}

	monthly := periods.MonthlyReturns(series)
	report := &Report{
		Series:   series,
		Risk:     risk.Summarize(series),
		Drawdown: risk.DrawdownSeries(series),
		Rolling:  risk.RollingMetrics(series, window),
		Monthly:  monthly,
		Heatmap:  periods.Heatmap(monthly),
	}

	if !report.Risk.Valid {
		a.log.Info().
			Int("days", len(series)).
			Int("returns", report.Risk.Observations).
			Msg("Not enough history for risk metrics")
	}

	if !req.SkipBenchmark && a.comparator != nil {
		cmp, err := a.comparator.Compare(ctx, series, req.Benchmark)
		if err != nil {
			return nil, fmt.Errorf("failed to compare against benchmark: %w", err)
		}
		report.Benchmark = &cmp
	}

	if len(req.Compare) > 0 && len(series) > 0 {
		a.ensure(ctx, req.Compare, series[0].Date, series[len(series)-1].Date)

		rows, err := periods.NormalizeAndCompare(ctx, a.prices, series, req.Compare)
		if err != nil {
			return nil, fmt.Errorf("failed to build comparison: %w", err)
		}
		report.Comparison = rows
	}

	return report, nil
}

// ensure fills the cache for compared symbols; failures leave NaN gaps
func (a *Analyzer) ensure(ctx context.Context, symbols []string, start, end time.Time) {
	if a.fetcher == nil {
		return
	}
	for _, symbol := range symbols {
		if _, err := a.fetcher.EnsureRange(ctx, symbol, start, end, a.batchDays, false); err != nil {
			a.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to fetch comparison prices")
		}
	}
}
