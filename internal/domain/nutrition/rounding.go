package nutrition

import "math"

// Beyond 2^52 every float64 is already a whole number.
const wholeFloatThreshold = 1 << 52

// RoundTenth rounds to one decimal place, half away from zero.
func RoundTenth(v float64) float64 {
	if !isFinite(v) || math.Abs(v) >= wholeFloatThreshold {
		return v
	}
	return math.Round(v*10) / 10
}

// RoundWhole rounds to the nearest whole unit, half away from zero. The result
// saturates at the int range; NaN yields 0.
func RoundWhole(v float64) int {
	switch r := math.Round(v); {
	case math.IsNaN(r):
		return 0
	case r >= float64(math.MaxInt):
		return math.MaxInt
	case r <= float64(math.MinInt):
		return math.MinInt
	default:
		return int(r)
	}
}

// clampAmount keeps a computed amount finite and non-negative: NaN and negatives
// become 0, and an overflow saturates at the largest float64.
func clampAmount(v float64) float64 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	default:
		return v
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
