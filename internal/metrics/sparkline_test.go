package metrics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectPoints(s Sparkline, series []int64) []Point {
	var points []Point
	for p := range s.Points(series) {
		points = append(points, p)
	}
	return points
}

func TestSparkline_OnePointPerSample(t *testing.T) {
	s := Sparkline{Width: 60, Height: 20}

	for n := 1; n <= 7; n++ {
		series := make([]int64, n)
		for i := range series {
			series[i] = int64(i * 100)
		}

		points := collectPoints(s, series)
		assert.Len(t, points, n)
	}
}

func TestSparkline_PointsWithinBounds(t *testing.T) {
	s := Sparkline{Width: 60, Height: 20}
	series := []int64{100, 250, 90, 400, 400, 10, 300}

	for p := range s.Points(series) {
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.LessOrEqual(t, p.X, s.Width)
		assert.GreaterOrEqual(t, p.Y, 0.0)
		assert.LessOrEqual(t, p.Y, s.Height)
	}
}

func TestSparkline_HigherValueSmallerY(t *testing.T) {
	s := Sparkline{Width: 60, Height: 20}

	points := collectPoints(s, []int64{0, 50, 100})
	require.Len(t, points, 3)

	// Max value maps to the top, min to the bottom.
	assert.Equal(t, s.Height, points[0].Y)
	assert.Equal(t, 0.0, points[2].Y)
	assert.Greater(t, points[0].Y, points[1].Y)
	assert.Greater(t, points[1].Y, points[2].Y)
}

func TestSparkline_ConstantSeriesIsFlat(t *testing.T) {
	s := Sparkline{Width: 60, Height: 20}

	points := collectPoints(s, []int64{42, 42, 42, 42})
	require.Len(t, points, 4)

	for _, p := range points {
		assert.Equal(t, points[0].Y, p.Y)
	}
}

func TestSparkline_RightAnchorsPartialSeries(t *testing.T) {
	s := Sparkline{Width: 60, Height: 20, MaxSamples: 7}

	// 3 samples at full-series spacing (width/6 = 10) end at the right edge.
	points := collectPoints(s, []int64{1, 2, 3})
	require.Len(t, points, 3)

	assert.InDelta(t, 40.0, points[0].X, 0.0001)
	assert.InDelta(t, 50.0, points[1].X, 0.0001)
	assert.InDelta(t, 60.0, points[2].X, 0.0001)
}

func TestSparkline_FullSeriesSpansWidth(t *testing.T) {
	s := Sparkline{Width: 60, Height: 20, MaxSamples: 7}
	series := []int64{1, 2, 3, 4, 5, 6, 7}

	points := collectPoints(s, series)
	require.Len(t, points, 7)
	assert.InDelta(t, 0.0, points[0].X, 0.0001)
	assert.InDelta(t, 60.0, points[6].X, 0.0001)
}

func TestSparkline_TruncatesToTrailingSamples(t *testing.T) {
	s := Sparkline{Width: 60, Height: 20, MaxSamples: 7}

	// 10 samples: only the last 7 are drawn, normalized against themselves.
	series := []int64{9999, 9999, 9999, 1, 2, 3, 4, 5, 6, 7}
	points := collectPoints(s, series)
	require.Len(t, points, 7)

	// First drawn sample is the series minimum, so it sits at the bottom.
	assert.Equal(t, s.Height, points[0].Y)
}

func TestSparkline_EmptySeries(t *testing.T) {
	s := Sparkline{Width: 60, Height: 20}

	assert.Empty(t, collectPoints(s, nil))
	assert.Equal(t, "", s.Path(nil))
}

func TestSparkline_Restartable(t *testing.T) {
	s := Sparkline{Width: 60, Height: 20}
	series := []int64{10, 20, 30}

	seq := s.Points(series)

	first := make([]Point, 0, 3)
	for p := range seq {
		first = append(first, p)
	}
	second := make([]Point, 0, 3)
	for p := range seq {
		second = append(second, p)
	}

	assert.Equal(t, first, second)
}

func TestSparkline_Path(t *testing.T) {
	s := Sparkline{Width: 60, Height: 20, MaxSamples: 7}

	path := s.Path([]int64{0, 100})
	assert.True(t, strings.HasPrefix(path, "M "))
	assert.Contains(t, path, " L ")
	assert.Equal(t, "M 50.00 20.00 L 60.00 0.00", path)
}
