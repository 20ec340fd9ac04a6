// Package progress turns calorie numbers into an animated progress display:
// a color band, a fill fraction and interpolated totals.
package progress

import "math"

// Band is the discrete color zone of a consumed/goal ratio.
type Band int

const (
	Under Band = iota
	Near
	Over
)

// NearThreshold is the ratio at which the bar leaves the Under band.
const NearThreshold = 0.8

const (
	ColorUnder = "#4CAF50"
	ColorNear  = "#FF9800"
	ColorOver  = "#F44336"
)

// BandFor maps a ratio to its band. A ratio exactly at the goal is Over.
func BandFor(ratio float64) Band {
	switch {
	case ratio >= 1:
		return Over
	case ratio >= NearThreshold:
		return Near
	default:
		return Under
	}
}

func (b Band) String() string {
	switch b {
	case Under:
		return "under"
	case Near:
		return "near"
	case Over:
		return "over"
	default:
		return "unknown"
	}
}

func (b Band) Color() string {
	switch b {
	case Near:
		return ColorNear
	case Over:
		return ColorOver
	default:
		return ColorUnder
	}
}

// Ratio is consumed/goal, or 0 when there is no usable goal.
func Ratio(consumed, goal int) float64 {
	if goal <= 0 {
		return 0
	}
	return float64(consumed) / float64(goal)
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
