package utils

import "math"

// Finite returns a pointer to v, or nil when v is NaN or infinite.
// encoding/json cannot represent NaN, so undefined values go out as null.
func Finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ZeroIfUndefined maps NaN and infinities to 0
func ZeroIfUndefined(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
