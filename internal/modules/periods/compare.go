package periods

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/utils"
)

// PriceReader reads cached daily bars
type PriceReader interface {
	Read(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error)
}

// NormalizeAndCompare indexes the portfolio and each symbol to 100 at its own
// first available value, aligned on the portfolio's dates. Dates a symbol has
// no cached close for are NaN gaps. Only cached prices are used.
func NormalizeAndCompare(ctx context.Context, prices PriceReader, series []domain.DailyValuation, symbols []string) ([]domain.ComparisonRow, error) {
	rows := make([]domain.ComparisonRow, len(series))
	if len(series) == 0 {
		return rows, nil
	}

	portfolio := make([]float64, len(series))
	for i, v := range series {
		portfolio[i] = v.TotalValue
	}
	portfolio = normalize(portfolio)

	for i, v := range series {
		rows[i] = domain.ComparisonRow{
			Date:      v.Date,
			Portfolio: portfolio[i],
			Symbols:   make(map[string]float64, len(symbols)),
		}
	}

	start, end := series[0].Date, series[len(series)-1].Date
	for _, symbol := range symbols {
		points, err := prices.Read(ctx, symbol, start, end)
		if err != nil {
			return nil, fmt.Errorf("failed to read prices for %s: %w", symbol, err)
		}

		closes := make(map[time.Time]float64, len(points))
		for _, p := range points {
			closes[utils.Day(p.Date)] = p.Close
		}

		column := make([]float64, len(series))
		for i, v := range series {
			if c, ok := closes[utils.Day(v.Date)]; ok {
				column[i] = c
			} else {
				column[i] = math.NaN()
			}
		}

		for i, value := range normalize(column) {
			rows[i].Symbols[symbol] = value
		}
	}

	return rows, nil
}

// normalize divides by the first non-NaN, non-zero value and scales to 100.
// All NaN when there is no such value.
func normalize(values []float64) []float64 {
	base := math.NaN()
	for _, v := range values {
		if !math.IsNaN(v) && v != 0 {
			base = v
			break
		}
	}

	out := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(base) || math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		out[i] = v / base * 100
	}
	return out
}
