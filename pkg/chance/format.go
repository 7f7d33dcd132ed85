package chance

import (
	"math"
	"strconv"
	"strings"
)

// formatDouble renders v with the shortest digits that round-trip, always
// keeping a fractional part ("50.0", "-4.15"). Magnitudes outside
// [1e-3, 1e7) use scientific notation ("1.0E-5", "2.5E10").
func formatDouble(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}

	abs := math.Abs(v)
	if abs == 0 || (abs >= 1e-3 && abs < 1e7) {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.ContainsRune(s, '.') {
			s += ".0"
		}
		return s
	}

	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(v, 'E', -1, 64), "E")
	if !strings.ContainsRune(mantissa, '.') {
		mantissa += ".0"
	}
	n, err := strconv.Atoi(exp)
	if err != nil {
		return mantissa + "E" + exp
	}
	return mantissa + "E" + strconv.Itoa(n)
}
