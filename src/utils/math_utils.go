package utils

import "math"

// RoundFloat rounds a float64 to a specified number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// AbsInt64 returns the absolute value of an int64.
func AbsInt64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
