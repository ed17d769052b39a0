// Package valuation rebuilds the daily value of a portfolio from ledger events and cached prices.
package valuation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/utils"
	"github.com/mecoserra2008/Portfolio-Tracker/pkg/formulas"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PriceReader reads cached daily bars
type PriceReader interface {
	Read(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error)
}

// RangeFetcher fills the cache for a symbol and range
type RangeFetcher interface {
	EnsureRange(ctx context.Context, symbol string, start, end time.Time, batchDays int, force bool) ([]domain.PricePoint, error)
}

// Engine values ledgers day by day. It never interpolates: a held symbol with
// no cached close on a day contributes zero and is listed in MissingPrices.
type Engine struct {
	prices    PriceReader
	fetcher   RangeFetcher
	batchDays int
	log       zerolog.Logger
}

// NewEngine creates a valuation engine reading from prices
func NewEngine(prices PriceReader, log zerolog.Logger) *Engine {
	return &Engine{
		prices: prices,
		log:    log.With().Str("component", "valuation").Logger(),
	}
}

// WithPrefetch makes DailySeries fill the cache for every ledger symbol before valuing.
// Fetch failures are logged and never fail the valuation.
func (e *Engine) WithPrefetch(fetcher RangeFetcher, batchDays int) *Engine {
	e.fetcher = fetcher
	e.batchDays = batchDays
	return e
}

// position tracks one priced symbol of one asset class
type position struct {
	class       domain.AssetClass
	symbol      string // ledger symbol
	priceSymbol string
	events      []domain.PositionEvent // sorted by date
	next        int
	qty         decimal.Decimal
	closes      map[time.Time]float64
}

// advance applies every event dated on or before day
func (p *position) advance(day time.Time) {
	for p.next < len(p.events) && !p.events[p.next].Date.After(day) {
		p.qty = p.qty.Add(p.events[p.next].Quantity)
		p.next++
	}
}

// DailySeries returns one valuation per calendar day of [start, end].
func (e *Engine) DailySeries(ctx context.Context, ledgers map[domain.AssetClass]domain.PositionLedger, start, end time.Time) ([]domain.DailyValuation, error) {
	start, end = utils.Day(start), utils.Day(end)
	if end.Before(start) {
		return nil, fmt.Errorf("valuation range %s..%s: end before start", utils.FormatDate(start), utils.FormatDate(end))
	}

	positions, classes := buildPositions(ledgers)

	if e.fetcher != nil {
		e.prefetch(ctx, positions, start, end)
	}

	if err := e.loadPrices(ctx, positions, start, end); err != nil {
		return nil, err
	}

	days := utils.EachDay(start, end)
	series := make([]domain.DailyValuation, 0, len(days))
	missing := make(map[string]int)

	for _, day := range days {
		v := domain.DailyValuation{
			Date:       day,
			Components: make(map[domain.AssetClass]float64, len(classes)),
		}
		for _, class := range classes {
			v.Components[class] = 0
		}

		for _, p := range positions {
			p.advance(day)
			if p.qty.IsZero() {
				continue
			}

			price, ok := p.closes[day]
			if !ok {
				v.MissingPrices = append(v.MissingPrices, p.priceSymbol)
				missing[p.priceSymbol]++
				continue
			}

			value := p.qty.InexactFloat64() * price
			v.Components[p.class] += value
			v.TotalValue += value
		}

		series = append(series, v)
	}

	applyReturns(series)

	if len(missing) > 0 {
		e.log.Debug().
			Interface("missing_days", missing).
			Msg("Valuation used zero for unpriced holdings")
	}

	return series, nil
}

// buildPositions groups ledger events per (class, symbol) and sorts them by date
func buildPositions(ledgers map[domain.AssetClass]domain.PositionLedger) ([]*position, []domain.AssetClass) {
	classes := make([]domain.AssetClass, 0, len(ledgers))
	for class := range ledgers {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	var positions []*position
	for _, class := range classes {
		ledger := ledgers[class]
		if ledger == nil {
			continue
		}
		mapper, _ := ledger.(domain.SymbolMapper)

		bySymbol := make(map[string]*position)
		var order []string
		for _, ev := range ledger.Events() {
			p, ok := bySymbol[ev.Symbol]
			if !ok {
				priceSymbol := ev.Symbol
				if mapper != nil {
					priceSymbol = mapper.PriceSymbol(ev.Symbol)
				}
				p = &position{class: class, symbol: ev.Symbol, priceSymbol: priceSymbol}
				bySymbol[ev.Symbol] = p
				order = append(order, ev.Symbol)
			}
			ev.Date = utils.Day(ev.Date)
			p.events = append(p.events, ev)
		}

		sort.Strings(order)
		for _, symbol := range order {
			p := bySymbol[symbol]
			sort.SliceStable(p.events, func(i, j int) bool { return p.events[i].Date.Before(p.events[j].Date) })
			positions = append(positions, p)
		}
	}
	return positions, classes
}

func (e *Engine) prefetch(ctx context.Context, positions []*position, start, end time.Time) {
	seen := make(map[string]bool)
	for _, p := range positions {
		if seen[p.priceSymbol] {
			continue
		}
		seen[p.priceSymbol] = true

		if _, err := e.fetcher.EnsureRange(ctx, p.priceSymbol, start, end, e.batchDays, false); err != nil {
			e.log.Warn().
				Err(err).
				Str("symbol", p.priceSymbol).
				Msg("Failed to prefetch prices, valuing from cache")
		}
	}
}

// loadPrices reads every close a position may need once, up front
func (e *Engine) loadPrices(ctx context.Context, positions []*position, start, end time.Time) error {
	cache := make(map[string]map[time.Time]float64)
	for _, p := range positions {
		if closes, ok := cache[p.priceSymbol]; ok {
			p.closes = closes
			continue
		}

		points, err := e.prices.Read(ctx, p.priceSymbol, start, end)
		if err != nil {
			return fmt.Errorf("failed to read prices for %s: %w", p.priceSymbol, err)
		}

		closes := make(map[time.Time]float64, len(points))
		for _, pt := range points {
			closes[utils.Day(pt.Date)] = pt.Close
		}
		cache[p.priceSymbol] = closes
		p.closes = closes
	}
	return nil
}

// applyReturns fills daily and cumulative returns, both in percent.
// The first day has no daily return; cumulative is NaN when the first total is zero.
func applyReturns(series []domain.DailyValuation) {
	if len(series) == 0 {
		return
	}

	base := series[0].TotalValue
	for i := range series {
		if i == 0 {
			series[i].DailyReturnPct = math.NaN()
		} else {
			series[i].DailyReturnPct = formulas.PctChange(series[i-1].TotalValue, series[i].TotalValue) * 100
		}

		if base == 0 {
			series[i].CumulativeReturnPct = math.NaN()
		} else {
			series[i].CumulativeReturnPct = (series[i].TotalValue/base - 1) * 100
		}
	}
}

// FromTotals builds a series of consecutive days starting at start from raw
// portfolio totals, with returns filled in.
func FromTotals(start time.Time, totals ...float64) []domain.DailyValuation {
	start = utils.Day(start)
	series := make([]domain.DailyValuation, len(totals))
	for i, total := range totals {
		series[i].Date = start.AddDate(0, 0, i)
		series[i].TotalValue = total
	}
	applyReturns(series)
	return series
}

// FromPoints treats the closes of a single symbol as a value series,
// keeping the points' own dates.
func FromPoints(points []domain.PricePoint) []domain.DailyValuation {
	series := make([]domain.DailyValuation, len(points))
	for i, p := range points {
		series[i].Date = utils.Day(p.Date)
		series[i].TotalValue = p.Close
	}
	applyReturns(series)
	return series
}
