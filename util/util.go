// Package util contains misc internal utilities.
package util

// Limiter is an inclusive min/max bound on a commanded value
type Limiter struct {
	Min float64 `json:"min" yaml:"Min"`
	Max float64 `json:"max" yaml:"Max"`
}

// Check returns true if the value satisfies the limit
func (l Limiter) Check(v float64) bool {
	return v >= l.Min && v <= l.Max
}

// Clamp returns the value snapped into the limit
func (l Limiter) Clamp(v float64) float64 {
	if v < l.Min {
		return l.Min
	}
	if v > l.Max {
		return l.Max
	}
	return v
}
