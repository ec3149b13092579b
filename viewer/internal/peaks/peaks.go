package peaks

import (
	"math"
	"sort"

	"github.com/Krimson/radar-scope/viewer/internal/series"
)

// plateauEpsilon is the tolerance for treating neighbouring y values as equal.
const plateauEpsilon = 1e-12

// SortedView returns points ordered by x. Already monotonic input is returned as is,
// otherwise a stably sorted copy.
func SortedView(points []series.Point) []series.Point {
	monotonic := true
	for i := 1; i < len(points); i++ {
		if points[i].X < points[i-1].X {
			monotonic = false
			break
		}
	}
	if monotonic {
		return points
	}

	sorted := make([]series.Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].X < sorted[b].X
	})
	return sorted
}

// Interpolate returns y at x on x-sorted points, clamping outside the sampled range.
// ok is false only for an empty slice.
func Interpolate(sorted []series.Point, x float64) (float64, bool) {
	n := len(sorted)
	switch {
	case n == 0:
		return 0, false
	case n == 1:
		return sorted[0].Y, true
	case x <= sorted[0].X:
		return sorted[0].Y, true
	case x >= sorted[n-1].X:
		return sorted[n-1].Y, true
	}

	// sorted[lo].X <= x < sorted[hi].X
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := int(uint(lo+hi) >> 1)
		if sorted[mid].X <= x {
			lo = mid
		} else {
			hi = mid
		}
	}

	a, b := sorted[lo], sorted[hi]
	dx := b.X - a.X
	if dx == 0 {
		return a.Y, true
	}
	return a.Y + (x-a.X)/dx*(b.Y-a.Y), true
}

// Detect returns indices of local maxima on x-sorted points. A flat run entered from below
// and left downwards yields its midpoint.
func Detect(sorted []series.Point) []int {
	n := len(sorted)
	var out []int
	for i := 1; i < n-1; i++ {
		if !(sorted[i-1].Y < sorted[i].Y) {
			continue
		}
		j := i
		for j+1 < n && math.Abs(sorted[j+1].Y-sorted[i].Y) <= plateauEpsilon {
			j++
		}
		if j+1 < n && sorted[j+1].Y < sorted[i].Y {
			out = append(out, (i+j)/2)
		}
		i = j
	}
	return out
}

// DataTolerance converts a pixel radius to a data-space x distance.
func DataTolerance(pixelRadius, plotWidthPx, minX, maxX float64) float64 {
	if plotWidthPx < plateauEpsilon {
		plotWidthPx = plateauEpsilon
	}
	return pixelRadius / plotWidthPx * (maxX - minX)
}
