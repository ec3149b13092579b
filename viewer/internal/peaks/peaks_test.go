package peaks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krimson/radar-scope/viewer/internal/series"
)

func pointsFromY(ys ...float64) []series.Point {
	out := make([]series.Point, len(ys))
	for i, y := range ys {
		out[i] = series.Point{X: float64(i), Y: y}
	}
	return out
}

func TestSortedView(t *testing.T) {
	sorted := pointsFromY(1, 2, 3)
	view := SortedView(sorted)
	assert.Same(t, &sorted[0], &view[0], "monotonic input is not copied")

	raw := []series.Point{{X: 2, Y: 20}, {X: 0, Y: 0}, {X: 1, Y: 10}, {X: 1, Y: 11}}
	view = SortedView(raw)
	assert.Equal(t, []series.Point{{X: 0, Y: 0}, {X: 1, Y: 10}, {X: 1, Y: 11}, {X: 2, Y: 20}}, view)
	assert.Equal(t, 2.0, raw[0].X, "input left untouched")
}

func TestInterpolate(t *testing.T) {
	pts := []series.Point{{X: 0, Y: 0}, {X: 1, Y: 10}, {X: 3, Y: 30}, {X: 4, Y: -2}}

	for _, p := range pts {
		y, ok := Interpolate(pts, p.X)
		require.True(t, ok)
		assert.InDelta(t, p.Y, y, 1e-12, "sample x=%v", p.X)
	}

	y, _ := Interpolate(pts, 2)
	assert.InDelta(t, 20.0, y, 1e-12)
	y, _ = Interpolate(pts, 3.5)
	assert.InDelta(t, 14.0, y, 1e-12)

	y, _ = Interpolate(pts, -100)
	assert.Equal(t, 0.0, y)
	y, _ = Interpolate(pts, 100)
	assert.Equal(t, -2.0, y)
}

func TestInterpolate_SmallInputs(t *testing.T) {
	_, ok := Interpolate(nil, 1)
	assert.False(t, ok)

	y, ok := Interpolate([]series.Point{{X: 5, Y: 7}}, -1)
	assert.True(t, ok)
	assert.Equal(t, 7.0, y)
}

func TestInterpolate_DuplicateX(t *testing.T) {
	pts := []series.Point{{X: 0, Y: 1}, {X: 1, Y: 2}, {X: 1, Y: 5}, {X: 2, Y: 0}}
	y, ok := Interpolate(pts, 1)
	require.True(t, ok)
	assert.Equal(t, 5.0, y)

	y, _ = Interpolate(pts, 1.5)
	assert.InDelta(t, 2.5, y, 1e-12)
}

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		ys   []float64
		want []int
	}{
		{"strict maximum", []float64{0, 1, 3, 2, 0}, []int{2}},
		{"plateau midpoint", []float64{0, 2, 2, 2, 0}, []int{2}},
		{"even plateau", []float64{0, 2, 2, 0}, []int{1}},
		{"plateau then rise", []float64{0, 2, 2, 3, 1}, []int{3}},
		{"plateau at the end", []float64{0, 2, 2}, nil},
		{"edges are not peaks", []float64{5, 1, 5}, nil},
		{"two peaks", []float64{0, 4, 0, 6, 0}, []int{1, 3}},
		{"too short", []float64{1, 2}, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Detect(pointsFromY(c.ys...)))
		})
	}
}

func TestDataTolerance(t *testing.T) {
	assert.InDelta(t, 0.5, DataTolerance(10, 200, 0, 10), 1e-12)
	assert.Greater(t, DataTolerance(10, 0, 0, 10), 0.0)
}

func TestFind_HighestPeakWins(t *testing.T) {
	low := pointsFromY(0, 3, 0, 0, 0)
	high := pointsFromY(0, 0, 0, 9, 0)
	candidates := []Candidate{
		{Series: 0, Sorted: low, Peaks: Detect(low)},
		{Series: 1, Sorted: high, Peaks: Detect(high)},
	}

	s, ok := Find(candidates, 2, 1.5)
	require.True(t, ok)
	assert.Equal(t, 1, s.Series)
	assert.Equal(t, series.Point{X: 3, Y: 9}, s.Point)

	s, ok = Find(candidates, 1, 0.5)
	require.True(t, ok)
	assert.Equal(t, 0, s.Series)
}

func TestFind_TieGoesToCloserPeak(t *testing.T) {
	a := []series.Point{{X: 0, Y: 0}, {X: 1, Y: 5}, {X: 2, Y: 0}}
	b := []series.Point{{X: 1, Y: 0}, {X: 2.2, Y: 5}, {X: 3, Y: 0}}
	candidates := []Candidate{
		{Series: 0, Sorted: a, Peaks: Detect(a)},
		{Series: 1, Sorted: b, Peaks: Detect(b)},
	}

	s, ok := Find(candidates, 1.8, 1)
	require.True(t, ok)
	assert.Equal(t, 1, s.Series)
	assert.InDelta(t, 0.4, s.DX, 1e-12)

	s, ok = Find(candidates, 1.5, 1)
	require.True(t, ok)
	assert.Equal(t, 0, s.Series)
}

func TestFind_NothingInRange(t *testing.T) {
	pts := pointsFromY(0, 3, 0)
	_, ok := Find([]Candidate{{Sorted: pts, Peaks: Detect(pts)}}, 10, 1)
	assert.False(t, ok)

	_, ok = Find(nil, 0, 1)
	assert.False(t, ok)
}

func TestFind_OnlyAdjacentPeaksConsidered(t *testing.T) {
	pts := pointsFromY(0, 9, 0, 1, 0, 2, 0)
	_, ok := Find([]Candidate{{Sorted: pts, Peaks: Detect(pts)}}, 3, 0.5)
	require.True(t, ok)

	s, _ := Find([]Candidate{{Sorted: pts, Peaks: Detect(pts)}}, 4, 10)
	assert.Equal(t, 5, s.Index, "x=4 sees peaks at 3 and 5, not the taller one at 1")
}
