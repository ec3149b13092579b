package plot

import "math"

// Viewport is the plot rectangle in plot-local pixels.
type Viewport struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x pixel of the right edge.
func (v Viewport) Right() float64 { return v.Left + v.Width }

// Bottom returns the y pixel of the bottom edge.
func (v Viewport) Bottom() float64 { return v.Top + v.Height }

// Contains reports whether a pixel lies inside the rectangle, edges included.
func (v Viewport) Contains(px, py float64) bool {
	return px >= v.Left && px <= v.Right() && py >= v.Top && py <= v.Bottom()
}

// Transform maps between data space and pixel space. Screen y grows downwards.
type Transform struct {
	Bounds   Bounds
	Viewport Viewport
}

// NewTransform binds bounds to a viewport.
func NewTransform(b Bounds, v Viewport) Transform {
	return Transform{Bounds: b, Viewport: v}
}

func clampDenominator(d float64) float64 {
	if math.Abs(d) < Epsilon {
		if d < 0 {
			return -Epsilon
		}
		return Epsilon
	}
	return d
}

// dataDenominator keeps tiny but real data spans and only replaces an exact zero.
func dataDenominator(half float64) float64 {
	if half == 0 {
		return Epsilon
	}
	return half
}

// MapX converts data x to a pixel column.
func (t Transform) MapX(x float64) float64 {
	frac := halfSpan(t.Bounds.MinX, x) / dataDenominator(halfSpan(t.Bounds.MinX, t.Bounds.MaxX))
	return t.Viewport.Left + frac*t.Viewport.Width
}

// MapY converts data y to a pixel row.
func (t Transform) MapY(y float64) float64 {
	frac := halfSpan(t.Bounds.MinY, y) / dataDenominator(halfSpan(t.Bounds.MinY, t.Bounds.MaxY))
	return t.Viewport.Bottom() - frac*t.Viewport.Height
}

// InvMapX converts a pixel column back to data x.
func (t Transform) InvMapX(px float64) float64 {
	frac := (px - t.Viewport.Left) / clampDenominator(t.Viewport.Width)
	return lerp(t.Bounds.MinX, t.Bounds.MaxX, frac)
}

// InvMapY converts a pixel row back to data y.
func (t Transform) InvMapY(py float64) float64 {
	frac := (t.Viewport.Bottom() - py) / clampDenominator(t.Viewport.Height)
	return lerp(t.Bounds.MinY, t.Bounds.MaxY, frac)
}

// lerp adds the half span twice so that bounds near ±MaxFloat64 do not overflow.
func lerp(lo, hi, frac float64) float64 {
	d := frac * halfSpan(lo, hi)
	return lo + d + d
}
