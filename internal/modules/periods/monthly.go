// Package periods aggregates a daily valuation series into calendar periods
// and indexed comparisons.
package periods

import (
	"math"
	"sort"
	"time"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
	"github.com/mecoserra2008/Portfolio-Tracker/pkg/formulas"
)

// MonthlyReturn is the change of month-end value versus the previous month-end
type MonthlyReturn struct {
	Year      int        `json:"year"`
	Month     time.Month `json:"month"`
	Date      time.Time  `json:"date"` // last valued day in the month
	Value     float64    `json:"value"`
	ReturnPct float64    `json:"return_pct"` // NaN for the first month
}

// MonthlyReturns resamples series to the last value of each calendar month and
// returns the month-over-month change in percent. A month only partly covered
// by series still gets a row, valued at its last available day.
func MonthlyReturns(series []domain.DailyValuation) []MonthlyReturn {
	var months []MonthlyReturn
	for _, v := range series {
		y, m, _ := v.Date.Date()
		n := len(months)
		if n > 0 && months[n-1].Year == y && months[n-1].Month == m {
			months[n-1].Date = v.Date
			months[n-1].Value = v.TotalValue
			continue
		}
		months = append(months, MonthlyReturn{Year: y, Month: m, Date: v.Date, Value: v.TotalValue})
	}

	for i := range months {
		if i == 0 {
			months[i].ReturnPct = math.NaN()
			continue
		}
		months[i].ReturnPct = formulas.PctChange(months[i-1].Value, months[i].Value) * 100
	}
	return months
}

// HeatmapGrid is a year x month pivot of monthly returns.
// Cells[i][m-1] holds the return of Years[i], month m; blanks are NaN.
type HeatmapGrid struct {
	Years []int         `json:"years"`
	Cells [][12]float64 `json:"cells"`
}

// Heatmap pivots monthly returns into a grid with ascending years
func Heatmap(rows []MonthlyReturn) HeatmapGrid {
	index := make(map[int]int)
	var grid HeatmapGrid

	years := make([]int, 0)
	for _, r := range rows {
		if _, ok := index[r.Year]; !ok {
			index[r.Year] = -1
			years = append(years, r.Year)
		}
	}
	sort.Ints(years)

	for i, y := range years {
		index[y] = i
		var blank [12]float64
		for m := range blank {
			blank[m] = math.NaN()
		}
		grid.Cells = append(grid.Cells, blank)
	}
	grid.Years = years

	for _, r := range rows {
		grid.Cells[index[r.Year]][r.Month-1] = r.ReturnPct
	}
	return grid
}

// Value returns the cell for year and month, NaN when absent
func (g HeatmapGrid) Value(year int, month time.Month) float64 {
	for i, y := range g.Years {
		if y == year {
			return g.Cells[i][month-1]
		}
	}
	return math.NaN()
}
