package utils

import "math"

// Round1 rounds x to one decimal place.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// Mean returns the arithmetic mean of the non-nil values and how many there were.
// ok is false when no value is present.
func Mean(values []*float64) (mean float64, n int, ok bool) {
	var sum float64
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return 0, 0, false
	}
	return sum / float64(n), n, true
}
