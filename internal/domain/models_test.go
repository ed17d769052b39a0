package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSymbolCoverage_Contains(t *testing.T) {
	cov := &SymbolCoverage{
		Symbol:    "AAPL",
		FirstDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		LastDate:  time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, cov.Contains(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, cov.Contains(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, cov.Contains(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, cov.Contains(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))

	var none *SymbolCoverage
	assert.False(t, none.Contains(time.Now()))
}

func TestDailyValuation_Flags(t *testing.T) {
	first := DailyValuation{DailyReturnPct: math.NaN()}
	assert.False(t, first.HasDailyReturn())
	assert.False(t, first.Partial())

	later := DailyValuation{DailyReturnPct: 1.5, MissingPrices: []string{"AAPL"}}
	assert.True(t, later.HasDailyReturn())
	assert.True(t, later.Partial())
}
