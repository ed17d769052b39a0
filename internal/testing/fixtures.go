package testing

import (
	"time"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
)

// Date builds a UTC calendar day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NewPricePoint returns a bar with every price field set to close
func NewPricePoint(symbol string, date time.Time, close float64) domain.PricePoint {
	return domain.PricePoint{
		Symbol:   symbol,
		Date:     date,
		Open:     close,
		High:     close,
		Low:      close,
		Close:    close,
		AdjClose: close,
		Volume:   1000,
		Split:    1,
	}
}

// NewPriceSeries returns one bar per calendar day from start, one per close value
func NewPriceSeries(symbol string, start time.Time, closes ...float64) []domain.PricePoint {
	points := make([]domain.PricePoint, 0, len(closes))
	for i, c := range closes {
		points = append(points, NewPricePoint(symbol, start.AddDate(0, 0, i), c))
	}
	return points
}

// ConstantSeries returns a bar for every day of [start, end] at the same close
func ConstantSeries(symbol string, start, end time.Time, close float64) []domain.PricePoint {
	var points []domain.PricePoint
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		points = append(points, NewPricePoint(symbol, d, close))
	}
	return points
}
