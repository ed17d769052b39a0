package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile_LinearInterpolation(t *testing.T) {
	data := []float64{5, 1, 4, 2, 3}

	assert.InDelta(t, 1.0, Percentile(data, 0), 1e-12)
	assert.InDelta(t, 5.0, Percentile(data, 100), 1e-12)
	assert.InDelta(t, 3.0, Percentile(data, 50), 1e-12)
	// rank = 0.05 * 4 = 0.2 -> 1 + 0.2*(2-1)
	assert.InDelta(t, 1.2, Percentile(data, 5), 1e-12)
	assert.True(t, math.IsNaN(Percentile(nil, 5)))

	// Input is not reordered
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, data)
}

func TestHistoricalVaRAndCVaR(t *testing.T) {
	returns := []float64{-0.05, -0.02, 0.0, 0.01, 0.02, 0.03, 0.04, 0.05, 0.06, 0.07}

	var95 := HistoricalVaR(returns, 0.95)
	// rank = 0.05 * 9 = 0.45 -> -0.05 + 0.45*0.03
	assert.InDelta(t, -0.0365, var95, 1e-12)

	// Only -0.05 is at or below -0.0365
	assert.InDelta(t, -0.05, HistoricalCVaR(returns, 0.95), 1e-12)

	var99 := HistoricalVaR(returns, 0.99)
	assert.LessOrEqual(t, var99, var95)
	assert.LessOrEqual(t, HistoricalCVaR(returns, 0.99), var99)
}

func TestHistoricalCVaR_Empty(t *testing.T) {
	assert.True(t, math.IsNaN(HistoricalCVaR(nil, 0.95)))
}
