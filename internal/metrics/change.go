// Package metrics computes growth metrics over scraped view histories.
package metrics

import (
	"math"
)

// Window selects the lookback used for a change metric.
type Window int

// Supported lookback windows.
const (
	Day Window = iota
	Week
	Month
)

// Change is the result of a change computation over a view history.
// Pct measures acceleration of growth (the change in the rate of change),
// not raw percent change, and may be +Inf or -Inf when the previous delta
// was flat. Delta is the signed absolute change over the window.
type Change struct {
	Pct     float64
	Delta   int64
	Defined bool
}

// Undefined is returned when the history is too short for the window.
var Undefined = Change{}

// Compute derives the change metric for a history and window.
//
// Day compares the last sample against offsets one and two samples back.
// Week uses offsets seven and fourteen. Month is not a fixed lookback:
// it splits whatever history exists at its midpoint and compares
// {last, midpoint, first}. The mismatch between windows is intentional
// product behavior and must not be unified here.
func Compute(history []int64, w Window) Change {
	n := len(history)

	var current, prev, prevPrev int64

	switch w {
	case Day:
		if n < 3 {
			return Undefined
		}
		current = history[n-1]
		prev = history[n-2]
		prevPrev = history[n-3]
	case Week:
		if n < 15 {
			return Undefined
		}
		current = history[n-1]
		prev = history[n-8]
		prevPrev = history[n-15]
	case Month:
		// Two samples are enough: the midpoint split degenerates to
		// {last, last, first}, which still yields a defined value.
		if n < 2 {
			return Undefined
		}
		current = history[n-1]
		prev = history[n/2]
		prevPrev = history[0]
	default:
		return Undefined
	}

	currentDelta := current - prev
	prevDelta := prev - prevPrev

	var pct float64
	switch {
	case prevDelta == 0 && currentDelta > 0:
		pct = math.Inf(1)
	case prevDelta == 0 && currentDelta < 0:
		pct = math.Inf(-1)
	case prevDelta == 0:
		pct = 0
	default:
		pct = float64(currentDelta-prevDelta) / math.Abs(float64(prevDelta)) * 100
	}

	return Change{
		Pct:     pct,
		Delta:   currentDelta,
		Defined: true,
	}
}
