package pipeline

import (
	"math"
	"strconv"
	"strings"
)

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

// normalizeColumnName lowercases and strips separators so header matching
// survives the usual spreadsheet drift ("Precio Unitario" vs "precio_unitario").
func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// parseFloatSoft coerces a cell to float64. Empty or non-numeric input maps
// to 0 rather than failing the row; thousands separators are stripped.
func parseFloatSoft(s string) float64 {
	v := strings.TrimSpace(s)
	if v == "" {
		return 0
	}
	v = strings.ReplaceAll(v, ",", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// roundNonNeg rounds to the nearest integer, clamping at zero.
func roundNonNeg(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	return int(math.Round(v))
}

// sampleStdDev is the n-1 denominator standard deviation. Fewer than two
// values yields 0.
func sampleStdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}

	sd := math.Sqrt(ss / float64(n-1))
	if math.IsNaN(sd) {
		return 0
	}
	return sd
}
