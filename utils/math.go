// Package utils contains small helpers shared across the grasp packages.
package utils

import "math"

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Float64AlmostEqual compares two float64s and returns whether their
// difference is less than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

// MaxInt returns the larger of two ints.
func MaxInt(a, b int) int {
	if a < b {
		return b
	}
	return a
}

// MinInt returns the smaller of two ints.
func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ClampInt clamps x to the inclusive range [min, max].
func ClampInt(x, min, max int) int {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
