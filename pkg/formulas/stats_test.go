package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPctChange(t *testing.T) {
	assert.InDelta(t, 0.1, PctChange(100, 110), 1e-12)
	assert.True(t, math.IsNaN(PctChange(0, 110)))
	assert.True(t, math.IsNaN(PctChange(math.NaN(), 110)))
	assert.True(t, math.IsNaN(PctChange(100, math.NaN())))
}

func TestStdDev_IsSample(t *testing.T) {
	// Sample stddev of {1,2,3,4} = sqrt(1.6667)
	assert.InDelta(t, math.Sqrt(5.0/3.0), StdDev([]float64{1, 2, 3, 4}), 1e-12)
	assert.Equal(t, 0.0, StdDev([]float64{1}))
	assert.Equal(t, 0.0, StdDev(nil))
}

func TestAnnualizedVolatility(t *testing.T) {
	returns := []float64{0.01, -0.01, 0.01, -0.01}
	expected := StdDev(returns) * math.Sqrt(252)
	assert.InDelta(t, expected, AnnualizedVolatility(returns), 1e-12)
}

func TestCovarianceAndCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}

	assert.InDelta(t, 2*Variance(x), Covariance(x, y), 1e-12)
	assert.InDelta(t, 1.0, Correlation(x, y), 1e-12)

	// Mismatched lengths and constant series are reported as zero
	assert.Equal(t, 0.0, Covariance(x, y[:3]))
	assert.Equal(t, 0.0, Correlation(x, []float64{1, 1, 1, 1, 1}))
}

func TestDropNaN(t *testing.T) {
	got := DropNaN([]float64{math.NaN(), 1, math.NaN(), 2})
	assert.Equal(t, []float64{1, 2}, got)
}

func TestMinMax(t *testing.T) {
	assert.Equal(t, -3.0, Min([]float64{1, -3, 2}))
	assert.Equal(t, 2.0, Max([]float64{1, -3, 2}))
	assert.True(t, math.IsNaN(Min(nil)))
	assert.True(t, math.IsNaN(Max(nil)))
}
