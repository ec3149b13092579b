package plot

import (
	"math"

	"github.com/Krimson/radar-scope/viewer/internal/series"
)

// Epsilon is the smallest span or denominator the engine works with.
const Epsilon = 1e-12

// padFraction is added on both sides of each fitted axis.
const padFraction = 0.05

// Bounds is the data rectangle shown in the plot area.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MaxX float64 `json:"max_x"`
	MinY float64 `json:"min_y"`
	MaxY float64 `json:"max_y"`
}

// DefaultBounds is used by an empty session.
func DefaultBounds() Bounds {
	return Bounds{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1}
}

// SpanX returns MaxX-MinX, saturated at math.MaxFloat64.
func (b Bounds) SpanX() float64 { return span(b.MinX, b.MaxX) }

// SpanY returns MaxY-MinY, saturated at math.MaxFloat64.
func (b Bounds) SpanY() float64 { return span(b.MinY, b.MaxY) }

func span(lo, hi float64) float64 {
	d := hi - lo
	if math.IsInf(d, 0) {
		return math.Copysign(math.MaxFloat64, d)
	}
	return d
}

// halfSpan is (hi-lo)/2 without overflowing for finite inputs.
func halfSpan(lo, hi float64) float64 {
	return hi/2 - lo/2
}

// Fit computes padded bounds over every finite point. ok is false when there is none,
// in which case the caller keeps its current bounds.
func Fit(list []series.Series) (Bounds, bool) {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	found := false

	for _, s := range list {
		for _, p := range s.Points {
			if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
				continue
			}
			found = true
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}
	if !found {
		return Bounds{}, false
	}

	b := Bounds{}
	b.MinX, b.MaxX = padAxis(minX, maxX)
	b.MinY, b.MaxY = padAxis(minY, maxY)
	return b, true
}

// padAxis widens [lo, hi] by 5% per side. A span that is negligible against the values'
// magnitude is replaced by a tenth of that magnitude, or by 1 around zero. The result is
// always finite.
func padAxis(lo, hi float64) (float64, float64) {
	half := halfSpan(lo, hi)
	if half <= Epsilon/2*math.Max(math.Abs(lo), math.Abs(hi)) {
		center := lo/2 + hi/2
		half = math.Abs(center) * 0.05
		if half == 0 {
			half = 0.5
		}
		lo, hi = center-half, center+half
	}
	pad := half * 2 * padFraction
	return saturate(lo - pad), saturate(hi + pad)
}

func saturate(v float64) float64 {
	switch {
	case v > math.MaxFloat64:
		return math.MaxFloat64
	case v < -math.MaxFloat64:
		return -math.MaxFloat64
	}
	return v
}
