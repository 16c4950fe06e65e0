package leibniz

import (
	"strconv"
	"strings"
)

// Compute sums the first iterations terms of the Leibniz series and scales
// the result by 4.
//
// Terms are added in increasing order so the result is bit-identical across
// calls. A zero or negative count sums nothing and returns 0.0.
func Compute(iterations int) float64 {
	sum := 0.0
	denominator := 1.0
	for x := 0; x < iterations; x++ {
		if x%2 == 0 {
			sum += 1.0 / denominator
		} else {
			sum -= 1.0 / denominator
		}
		denominator += 2.0
	}
	return sum * 4.0
}

// Format renders v as the shortest decimal that round-trips, always keeping
// a fractional part ("4.0" rather than "4").
func Format(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
