package metrics

import (
	"fmt"
	"iter"
	"strings"
)

// DefaultSparklineSamples is how many trailing samples a sparkline shows.
const DefaultSparklineSamples = 7

// Point is a single sparkline vertex in pixel space.
type Point struct {
	X float64
	Y float64
}

// Sparkline maps a view history onto a 2D polyline. It holds no state
// beyond its dimensions; Points and Path are pure and recompute on every
// call.
type Sparkline struct {
	Width  float64
	Height float64
	// MaxSamples caps how many trailing samples are drawn.
	// Zero means DefaultSparklineSamples.
	MaxSamples int
}

// Points returns a lazy, restartable iterator over the polyline vertices,
// one per drawn sample.
//
// Values normalize to [0,1] against the min/max of the drawn slice (a
// constant series uses range 1 to avoid dividing by zero) and are
// inverted vertically since the canvas origin is top-left. X positions
// spread evenly at full-series spacing and anchor the newest sample to
// the right edge, so a partial series stays compressed toward the end
// instead of stretching across the full width.
func (s Sparkline) Points(series []int64) iter.Seq[Point] {
	maxSamples := s.MaxSamples
	if maxSamples <= 0 {
		maxSamples = DefaultSparklineSamples
	}

	if len(series) > maxSamples {
		series = series[len(series)-maxSamples:]
	}

	return func(yield func(Point) bool) {
		n := len(series)
		if n == 0 {
			return
		}

		minVal, maxVal := series[0], series[0]
		for _, v := range series[1:] {
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}

		valueRange := float64(maxVal - minVal)
		if valueRange == 0 {
			valueRange = 1
		}

		step := s.Width
		if maxSamples > 1 {
			step = s.Width / float64(maxSamples-1)
		}

		for i, v := range series {
			norm := float64(v-minVal) / valueRange
			p := Point{
				X: s.Width - step*float64(n-1-i),
				Y: s.Height - norm*s.Height,
			}
			if !yield(p) {
				return
			}
		}
	}
}

// Path renders the polyline as an SVG path string, or "" for an empty
// series.
func (s Sparkline) Path(series []int64) string {
	var b strings.Builder

	first := true
	for p := range s.Points(series) {
		if first {
			b.WriteString(fmt.Sprintf("M %.2f %.2f", p.X, p.Y))
			first = false
			continue
		}
		b.WriteString(fmt.Sprintf(" L %.2f %.2f", p.X, p.Y))
	}

	return b.String()
}
