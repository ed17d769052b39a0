package formulas

import (
	"math"
	"sort"
)

// Percentile returns the p-th percentile (0..100) of data using linear
// interpolation between closest ranks, the same definition numpy.percentile
// uses by default. NaN for empty input.
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// HistoricalVaR is the empirical Value at Risk at the given confidence
// (0.95 -> 5th percentile of returns). The result is a return, negative for losses.
func HistoricalVaR(returns []float64, confidence float64) float64 {
	return Percentile(returns, (1-confidence)*100)
}

// HistoricalCVaR is the expected shortfall: the mean of all returns at or
// below the historical VaR threshold for the same confidence.
func HistoricalCVaR(returns []float64, confidence float64) float64 {
	if len(returns) == 0 {
		return math.NaN()
	}

	threshold := HistoricalVaR(returns, confidence)

	sum := 0.0
	count := 0
	for _, r := range returns {
		if r <= threshold {
			sum += r
			count++
		}
	}

	// At least the minimum is always at or below an interpolated percentile.
	if count == 0 {
		return threshold
	}
	return sum / float64(count)
}
