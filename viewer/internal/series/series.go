package series

import "math"

// Point is one (x, y) sample. Stored points are always finite.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is a named sequence of points in file-row order.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Len returns the number of points.
func (s Series) Len() int {
	return len(s.Points)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Pair zips x and y up to the shorter length and drops any pair with a non-finite value.
func Pair(xs, ys []float64) []Point {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	points := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		if finite(xs[i]) && finite(ys[i]) {
			points = append(points, Point{X: xs[i], Y: ys[i]})
		}
	}
	return points
}
