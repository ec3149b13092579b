package peaks

import (
	"math"
	"sort"

	"github.com/Krimson/radar-scope/viewer/internal/series"
)

// Candidate is one series' sorted points and cached peak indices.
type Candidate struct {
	Series int
	Sorted []series.Point
	Peaks  []int
}

// Snap is the winning peak of a snap search.
type Snap struct {
	Series int          `json:"series"`
	Index  int          `json:"index"`
	Point  series.Point `json:"point"`
	DX     float64      `json:"dx"`
}

// better reports whether s beats the current best: higher y first, then smaller distance.
func (s Snap) better(best Snap) bool {
	if s.Point.Y != best.Point.Y {
		return s.Point.Y > best.Point.Y
	}
	return s.DX < best.DX
}

// Find folds over the peaks adjacent to x in every candidate and returns the best one within tol.
func Find(candidates []Candidate, x, tol float64) (Snap, bool) {
	var (
		best  Snap
		found bool
	)
	for _, c := range candidates {
		for _, idx := range adjacentPeaks(c, x) {
			p := c.Sorted[idx]
			dx := math.Abs(p.X - x)
			if dx > tol {
				continue
			}
			s := Snap{Series: c.Series, Index: idx, Point: p, DX: dx}
			if !found || s.better(best) {
				best, found = s, true
			}
		}
	}
	return best, found
}

// adjacentPeaks returns the peak indices immediately left and right of x.
func adjacentPeaks(c Candidate, x float64) []int {
	if len(c.Peaks) == 0 {
		return nil
	}
	k := sort.Search(len(c.Peaks), func(i int) bool {
		return c.Sorted[c.Peaks[i]].X >= x
	})
	out := make([]int, 0, 2)
	if k > 0 {
		out = append(out, c.Peaks[k-1])
	}
	if k < len(c.Peaks) {
		out = append(out, c.Peaks[k])
	}
	return out
}
