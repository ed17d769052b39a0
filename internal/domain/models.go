// Package domain provides core domain models and types.
package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// AssetClass groups ledgers for per-class valuation components
type AssetClass string

const (
	AssetClassStock  AssetClass = "stock"
	AssetClassCrypto AssetClass = "crypto"
	AssetClassBond   AssetClass = "bond"
)

// PricePoint is one daily OHLCV bar for a symbol.
// Date is a calendar day (UTC midnight, no time component).
type PricePoint struct {
	Symbol   string    `json:"symbol"`
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
	Dividend float64   `json:"dividend"`
	Split    float64   `json:"split"` // 1 when no split happened that day
}

// SymbolCoverage summarizes what the price store holds for one symbol.
// FirstDate and LastDate are the true min/max dates of stored points.
type SymbolCoverage struct {
	Symbol      string    `json:"symbol"`
	FirstDate   time.Time `json:"first_date"`
	LastDate    time.Time `json:"last_date"`
	RecordCount int       `json:"record_count"`
	LastUpdated time.Time `json:"last_updated"`
}

// Contains reports whether day lies inside [FirstDate, LastDate]
func (c *SymbolCoverage) Contains(day time.Time) bool {
	if c == nil {
		return false
	}
	return !day.Before(c.FirstDate) && !day.After(c.LastDate)
}

// PositionEvent is a signed quantity change: positive acquires, negative disposes.
// Owned by the position ledger; read-only for the analytics.
type PositionEvent struct {
	Symbol   string          `json:"symbol"`
	Date     time.Time       `json:"date"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    float64         `json:"price"`
}

// DailyValuation is the portfolio value on one calendar day.
// DailyReturnPct is NaN on the first day of a series.
type DailyValuation struct {
	Date                time.Time              `json:"date"`
	Components          map[AssetClass]float64 `json:"components"`
	TotalValue          float64                `json:"total_value"`
	DailyReturnPct      float64                `json:"daily_return_pct"`
	CumulativeReturnPct float64                `json:"cumulative_return_pct"`
	// MissingPrices lists held symbols without a cached price on Date.
	// They contributed zero, so TotalValue is an undercount when this is non-empty.
	MissingPrices []string `json:"missing_prices,omitempty"`
}

// HasDailyReturn reports whether DailyReturnPct is defined
func (v DailyValuation) HasDailyReturn() bool {
	return !math.IsNaN(v.DailyReturnPct) && !math.IsInf(v.DailyReturnPct, 0)
}

// Partial reports whether at least one held symbol could not be priced
func (v DailyValuation) Partial() bool {
	return len(v.MissingPrices) > 0
}

// RiskSnapshot holds summary statistics over a valuation series.
// Returns-based fields are fractions; drawdown pct and win rate are percentages.
// Valid is false when fewer than two daily returns were available.
type RiskSnapshot struct {
	Valid            bool    `json:"valid"`
	Observations     int     `json:"observations"`
	TotalReturnPct   float64 `json:"total_return_pct"`
	AnnualizedReturn float64 `json:"annualized_return"`
	VolatilityDaily  float64 `json:"volatility_daily"`
	VolatilityAnnual float64 `json:"volatility_annual"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	SortinoRatio     float64 `json:"sortino_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	MaxDrawdownPct   float64 `json:"max_drawdown_pct"`
	CalmarRatio      float64 `json:"calmar_ratio"`
	WinRate          float64 `json:"win_rate"`
	BestDay          float64 `json:"best_day"`
	WorstDay         float64 `json:"worst_day"`
	VaR95            float64 `json:"var_95"`
	VaR99            float64 `json:"var_99"`
	CVaR95           float64 `json:"cvar_95"`
	CVaR99           float64 `json:"cvar_99"`
}

// ComparisonRow is one date of an indexed-to-100 comparison.
// Symbols holds NaN where a compared symbol has no price that day.
type ComparisonRow struct {
	Date      time.Time          `json:"date"`
	Portfolio float64            `json:"portfolio"`
	Symbols   map[string]float64 `json:"symbols"`
}
