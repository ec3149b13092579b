package aggregate

import (
	"errors"
	"math"

	"github.com/Krimson/radar-scope/viewer/internal/series"
)

// ErrEmptyAggregation is returned when no series has a positive area.
var ErrEmptyAggregation = errors.New("no series produced a positive area")

// Slice is one entry of the pie-style summary.
type Slice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// AreaAbs integrates |y| over x with the trapezoidal rule. Pairs with a non-finite
// coordinate or a zero x step are skipped.
func AreaAbs(points []series.Point) float64 {
	area := 0.0
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		if !finite(a.X) || !finite(a.Y) || !finite(b.X) || !finite(b.Y) {
			continue
		}
		dx := math.Abs(b.X - a.X)
		if dx == 0 {
			continue
		}
		area += math.Abs((math.Abs(a.Y)+math.Abs(b.Y))/2) * dx
	}
	return area
}

// Summarize returns one slice per series with a positive area, in series order.
// The slice is never nil; ErrEmptyAggregation accompanies an empty result.
func Summarize(list []series.Series) ([]Slice, error) {
	slices := make([]Slice, 0, len(list))
	for _, s := range list {
		if v := AreaAbs(s.Points); v > 0 && finite(v) {
			slices = append(slices, Slice{Name: s.Name, Value: v})
		}
	}
	if len(slices) == 0 {
		return slices, ErrEmptyAggregation
	}
	return slices, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
