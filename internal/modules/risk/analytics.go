// Package risk derives risk and performance statistics from a daily valuation series.
//
// Returns are handled as fractions internally (0.01 = 1%) even though the
// valuation series stores them in percent.
package risk

import (
	"math"
	"time"

	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
	"github.com/mecoserra2008/Portfolio-Tracker/pkg/formulas"
)

// DrawdownPoint is one day of the drawdown series
type DrawdownPoint struct {
	Date        time.Time `json:"date"`
	Value       float64   `json:"value"`
	Peak        float64   `json:"peak"`
	Drawdown    float64   `json:"drawdown"`
	DrawdownPct float64   `json:"drawdown_pct"`
}

// DailyReturns extracts the defined daily returns of series as fractions
func DailyReturns(series []domain.DailyValuation) []float64 {
	returns := make([]float64, len(series))
	for i, v := range series {
		returns[i] = v.DailyReturnPct / 100
	}
	return formulas.DropNaN(returns)
}

// Summarize computes the risk snapshot of series. With fewer than two defined
// daily returns the snapshot is returned with Valid set to false.
func Summarize(series []domain.DailyValuation) domain.RiskSnapshot {
	r := DailyReturns(series)
	if len(series) < 2 || len(r) < 2 {
		return domain.RiskSnapshot{Observations: len(r)}
	}

	annualized := formulas.AnnualizedMean(r)
	dailyVol := formulas.StdDev(r)
	annualVol := dailyVol * math.Sqrt(formulas.TradingDaysPerYear)

	snap := domain.RiskSnapshot{
		Valid:            true,
		Observations:     len(r),
		TotalReturnPct:   series[len(series)-1].CumulativeReturnPct,
		AnnualizedReturn: annualized,
		VolatilityDaily:  dailyVol,
		VolatilityAnnual: annualVol,
		SortinoRatio:     sortino(r, annualized),
		WinRate:          winRate(r),
		BestDay:          formulas.Max(r),
		WorstDay:         formulas.Min(r),
		VaR95:            formulas.HistoricalVaR(r, 0.95),
		VaR99:            formulas.HistoricalVaR(r, 0.99),
		CVaR95:           formulas.HistoricalCVaR(r, 0.95),
		CVaR99:           formulas.HistoricalCVaR(r, 0.99),
	}

	if annualVol > 0 {
		snap.SharpeRatio = annualized / annualVol
	}

	snap.MaxDrawdown, snap.MaxDrawdownPct = maxDrawdown(DrawdownSeries(series))
	if snap.MaxDrawdownPct != 0 {
		snap.CalmarRatio = annualized / math.Abs(snap.MaxDrawdownPct)
	}

	return snap
}

// sortino uses the sample deviation of negative returns only.
// Zero when there are no losses or they do not vary.
func sortino(r []float64, annualized float64) float64 {
	var downside []float64
	for _, v := range r {
		if v < 0 {
			downside = append(downside, v)
		}
	}
	if len(downside) == 0 {
		return 0
	}

	dev := formulas.StdDev(downside)
	if dev == 0 || math.IsNaN(dev) {
		return 0
	}
	return annualized / (dev * math.Sqrt(formulas.TradingDaysPerYear))
}

func winRate(r []float64) float64 {
	if len(r) == 0 {
		return 0
	}
	wins := 0
	for _, v := range r {
		if v > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(r)) * 100
}

// DrawdownSeries tracks the running peak of total value and the distance below it.
// DrawdownPct is 0 while the peak is not positive.
func DrawdownSeries(series []domain.DailyValuation) []DrawdownPoint {
	points := make([]DrawdownPoint, len(series))
	peak := math.Inf(-1)

	for i, v := range series {
		if v.TotalValue > peak {
			peak = v.TotalValue
		}

		p := DrawdownPoint{
			Date:     v.Date,
			Value:    v.TotalValue,
			Peak:     peak,
			Drawdown: v.TotalValue - peak,
		}
		if peak > 0 {
			p.DrawdownPct = p.Drawdown / peak * 100
		}
		points[i] = p
	}
	return points
}

// maxDrawdown returns the most negative absolute and percentage drawdowns
func maxDrawdown(points []DrawdownPoint) (float64, float64) {
	var worst, worstPct float64
	for _, p := range points {
		if p.Drawdown < worst {
			worst = p.Drawdown
		}
		if p.DrawdownPct < worstPct {
			worstPct = p.DrawdownPct
		}
	}
	return worst, worstPct
}
