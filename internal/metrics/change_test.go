package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute_DayExample(t *testing.T) {
	// H = [100, 110, 105]: currentDelta = -5, prevDelta = 10,
	// relative change = ((-5-10)/10)*100 = -150%.
	c := Compute([]int64{100, 110, 105}, Day)

	assert.True(t, c.Defined)
	assert.Equal(t, int64(-5), c.Delta)
	assert.InDelta(t, -150.0, c.Pct, 0.0001)
}

func TestCompute_Day_InsufficientHistory(t *testing.T) {
	assert.False(t, Compute(nil, Day).Defined)
	assert.False(t, Compute([]int64{100}, Day).Defined)
	assert.False(t, Compute([]int64{100, 110}, Day).Defined)
}

func TestCompute_Day_FlatPrevDelta(t *testing.T) {
	tests := []struct {
		name    string
		history []int64
		wantPct float64
	}{
		{
			name:    "growth after flat is plus infinity",
			history: []int64{100, 100, 150},
			wantPct: math.Inf(1),
		},
		{
			name:    "decline after flat is minus infinity",
			history: []int64{100, 100, 50},
			wantPct: math.Inf(-1),
		},
		{
			name:    "flat after flat is zero",
			history: []int64{100, 100, 100},
			wantPct: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Compute(tt.history, Day)
			assert.True(t, c.Defined)
			assert.Equal(t, tt.wantPct, c.Pct)
		})
	}
}

func TestCompute_Week(t *testing.T) {
	// 15 daily samples: compares last against 7 and 14 samples back.
	history := make([]int64, 15)
	for i := range history {
		history[i] = int64(100 + i*10) // linear growth, delta 70 per week
	}

	c := Compute(history, Week)
	assert.True(t, c.Defined)
	assert.Equal(t, int64(70), c.Delta)
	// Steady growth: acceleration is zero.
	assert.InDelta(t, 0.0, c.Pct, 0.0001)
}

func TestCompute_Week_InsufficientHistory(t *testing.T) {
	history := make([]int64, 14)
	assert.False(t, Compute(history, Week).Defined)
}

func TestCompute_Month_MidpointSplit(t *testing.T) {
	// Month splits at the midpoint regardless of history length:
	// compares {last, H[n/2], H[0]}.
	history := []int64{100, 120, 150, 155, 160}
	// mid = H[2] = 150; currentDelta = 160-150 = 10; prevDelta = 150-100 = 50.
	c := Compute(history, Month)

	assert.True(t, c.Defined)
	assert.Equal(t, int64(10), c.Delta)
	assert.InDelta(t, ((10.0-50.0)/50.0)*100, c.Pct, 0.0001)
}

func TestCompute_Month_TwoSamples(t *testing.T) {
	// With two samples the midpoint split degenerates to
	// {last, last, first}: currentDelta = 0, so growth that levels
	// off reads as -100%.
	c := Compute([]int64{100, 110}, Month)

	assert.True(t, c.Defined)
	assert.Equal(t, int64(0), c.Delta)
	assert.InDelta(t, -100.0, c.Pct, 0.0001)
}

func TestCompute_Month_InsufficientHistory(t *testing.T) {
	assert.False(t, Compute([]int64{100}, Month).Defined)
	assert.False(t, Compute(nil, Month).Defined)
}

func TestCompute_FiniteWhenPrevDeltaNonZero(t *testing.T) {
	// Any history with prevDelta != 0 yields a finite percentage.
	histories := [][]int64{
		{1, 2, 3},
		{500, 400, 450},
		{0, 1000000, 999999},
		{-10, -5, -20},
	}

	for _, h := range histories {
		c := Compute(h, Day)
		assert.True(t, c.Defined)
		assert.False(t, math.IsInf(c.Pct, 0), "history %v", h)
		assert.False(t, math.IsNaN(c.Pct), "history %v", h)
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		name   string
		change Change
		want   string
	}{
		{"undefined", Undefined, "-"},
		{"plus infinity", Change{Pct: math.Inf(1), Defined: true}, "∞"},
		{"minus infinity", Change{Pct: math.Inf(-1), Defined: true}, "-∞"},
		{"negative", Change{Pct: -150, Defined: true}, "-150.00%"},
		{"two decimals", Change{Pct: 12.3456, Defined: true}, "12.35%"},
		{"zero", Change{Pct: 0, Defined: true}, "0.00%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPercent(tt.change))
		})
	}
}

func TestFormatDeltaCompact(t *testing.T) {
	tests := []struct {
		delta int64
		want  string
	}{
		{0, "0"},
		{950, "+950"},
		{-950, "-950"},
		{1200, "+1.2K"},
		{2000, "+2K"},
		{-3_400_000, "-3.4M"},
		{1_500_000, "+1.5M"},
		{2_000_000_000, "+2B"},
		{999, "+999"},
		{-1000, "-1K"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDeltaCompact(tt.delta))
		})
	}
}
