package plot

import (
	"github.com/Krimson/radar-scope/viewer/internal/series"
)

// PrimitiveKind names a drawing instruction.
type PrimitiveKind string

const (
	KindRect     PrimitiveKind = "rect"
	KindLine     PrimitiveKind = "line"
	KindText     PrimitiveKind = "text"
	KindPolyline PrimitiveKind = "polyline"
)

// Role tells the renderer what a primitive is for, so it can pick styles.
type Role string

const (
	RoleFrame      Role = "frame"
	RoleGridX      Role = "grid-x"
	RoleGridY      Role = "grid-y"
	RoleTickX      Role = "tick-x"
	RoleTickY      Role = "tick-y"
	RoleTitleX     Role = "title-x"
	RoleTitleY     Role = "title-y"
	RoleSeriesLine Role = "series"
)

// ScreenPoint is a pixel coordinate.
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Primitive is one screen-space drawing instruction.
// Rect uses X1,Y1 as the top-left corner and X2,Y2 as width and height.
type Primitive struct {
	Kind   PrimitiveKind `json:"kind"`
	Role   Role          `json:"role"`
	X1     float64       `json:"x1,omitempty"`
	Y1     float64       `json:"y1,omitempty"`
	X2     float64       `json:"x2,omitempty"`
	Y2     float64       `json:"y2,omitempty"`
	Text   string        `json:"text,omitempty"`
	Series int           `json:"series"`
	Name   string        `json:"name,omitempty"`
	Points []ScreenPoint `json:"points,omitempty"`
}

// Scene is the ordered list handed to a renderer.
type Scene struct {
	Viewport   Viewport    `json:"viewport"`
	Bounds     Bounds      `json:"bounds"`
	Primitives []Primitive `json:"primitives"`
}

// SceneInput carries everything BuildScene draws.
type SceneInput struct {
	Bounds   Bounds
	Viewport Viewport
	XTitle   string
	YTitle   string
	Series   []series.Series
	MaxTicks int
}

const (
	tickLabelOffset  = 14
	titleLabelOffset = 32
)

// BuildScene lays out frame, grid, tick labels, axis titles and one polyline per series.
func BuildScene(in SceneInput) Scene {
	maxTicks := in.MaxTicks
	if maxTicks < 2 {
		maxTicks = DefaultMaxTicks
	}
	maxTicks = ClampTicks(maxTicks)
	tr := NewTransform(in.Bounds, in.Viewport)
	v := in.Viewport

	prims := []Primitive{{
		Kind: KindRect, Role: RoleFrame,
		X1: v.Left, Y1: v.Top, X2: v.Width, Y2: v.Height,
	}}

	xStep := NiceStep(in.Bounds.SpanX(), maxTicks)
	for _, x := range visibleTicks(in.Bounds.MinX, in.Bounds.MaxX, maxTicks) {
		px := tr.MapX(x)
		prims = append(prims,
			Primitive{Kind: KindLine, Role: RoleGridX, X1: px, Y1: v.Top, X2: px, Y2: v.Bottom()},
			Primitive{Kind: KindText, Role: RoleTickX, X1: px, Y1: v.Bottom() + tickLabelOffset, Text: FormatTick(x, xStep)},
		)
	}

	yStep := NiceStep(in.Bounds.SpanY(), maxTicks)
	for _, y := range visibleTicks(in.Bounds.MinY, in.Bounds.MaxY, maxTicks) {
		py := tr.MapY(y)
		prims = append(prims,
			Primitive{Kind: KindLine, Role: RoleGridY, X1: v.Left, Y1: py, X2: v.Right(), Y2: py},
			Primitive{Kind: KindText, Role: RoleTickY, X1: v.Left - tickLabelOffset, Y1: py, Text: FormatTick(y, yStep)},
		)
	}

	prims = append(prims,
		Primitive{Kind: KindText, Role: RoleTitleX, X1: v.Left + v.Width/2, Y1: v.Bottom() + titleLabelOffset, Text: in.XTitle},
		Primitive{Kind: KindText, Role: RoleTitleY, X1: v.Left - titleLabelOffset, Y1: v.Top + v.Height/2, Text: in.YTitle},
	)

	for i, s := range in.Series {
		if len(s.Points) == 0 {
			continue
		}
		pts := make([]ScreenPoint, len(s.Points))
		for j, p := range s.Points {
			pts[j] = ScreenPoint{X: tr.MapX(p.X), Y: tr.MapY(p.Y)}
		}
		prims = append(prims, Primitive{Kind: KindPolyline, Role: RoleSeriesLine, Series: i, Name: s.Name, Points: pts})
	}

	return Scene{Viewport: v, Bounds: in.Bounds, Primitives: prims}
}

// visibleTicks drops the nice ticks that fall outside the bounds.
func visibleTicks(min, max float64, maxTicks int) []float64 {
	ticks := NiceTicks(min, max, maxTicks)
	slack := NiceStep(span(min, max), maxTicks) * 1e-9
	out := ticks[:0]
	for _, t := range ticks {
		if t >= min-slack && t <= max+slack {
			out = append(out, t)
		}
	}
	return out
}
