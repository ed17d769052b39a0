package risk

import (
	"math"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/mecoserra2008/Portfolio-Tracker/internal/domain"
	"github.com/mecoserra2008/Portfolio-Tracker/pkg/formulas"
)

// RollingPoint holds trailing-window statistics ending on Date.
// Fields are NaN until the window is full.
type RollingPoint struct {
	Date                 time.Time `json:"date"`
	AnnualizedReturn     float64   `json:"rolling_annualized_return"`
	AnnualizedVolatility float64   `json:"rolling_annualized_volatility"`
	Sharpe               float64   `json:"rolling_sharpe"`
}

// RollingMetrics computes annualized return, volatility and Sharpe over a
// trailing window of daily returns. Undefined returns (the first day) count as 0.
// Windows shorter than 2 are raised to 2.
func RollingMetrics(series []domain.DailyValuation, window int) []RollingPoint {
	if window < 2 {
		window = 2
	}

	returns := make([]float64, len(series))
	for i, v := range series {
		if v.HasDailyReturn() {
			returns[i] = v.DailyReturnPct / 100
		}
	}

	out := make([]RollingPoint, len(series))
	for i, v := range series {
		out[i] = RollingPoint{
			Date:                 v.Date,
			AnnualizedReturn:     math.NaN(),
			AnnualizedVolatility: math.NaN(),
			Sharpe:               math.NaN(),
		}
	}

	if len(returns) < window {
		return out
	}

	means := talib.Sma(returns, window)
	sqrtN := math.Sqrt(formulas.TradingDaysPerYear)

	for i := window - 1; i < len(returns); i++ {
		annReturn := means[i] * formulas.TradingDaysPerYear
		annVol := formulas.StdDev(returns[i-window+1:i+1]) * sqrtN

		out[i].AnnualizedReturn = annReturn
		out[i].AnnualizedVolatility = annVol
		if annVol > 0 {
			out[i].Sharpe = annReturn / annVol
		} else {
			out[i].Sharpe = 0
		}
	}

	return out
}
