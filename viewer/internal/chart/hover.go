package chart

import (
	"github.com/Krimson/radar-scope/viewer/internal/peaks"
	"github.com/Krimson/radar-scope/viewer/internal/plot"
	"github.com/Krimson/radar-scope/viewer/internal/series"
)

// SeriesValue is the interpolated y of one series under the pointer.
type SeriesValue struct {
	Handle Handle  `json:"handle"`
	Name   string  `json:"name"`
	Y      float64 `json:"y"`
}

// SnapResult is the peak the pointer snapped to.
type SnapResult struct {
	Handle  Handle       `json:"handle"`
	Name    string       `json:"name"`
	Series  int          `json:"series"`
	Point   series.Point `json:"point"`
	ScreenX float64      `json:"screen_x"`
	ScreenY float64      `json:"screen_y"`
}

// HoverResult answers a pointer query.
type HoverResult struct {
	DataX  float64       `json:"data_x"`
	DataY  float64       `json:"data_y"`
	Inside bool          `json:"inside"`
	Values []SeriesValue `json:"values"`
	Snap   *SnapResult   `json:"snap,omitempty"`
}

// Hover maps a plot-local pointer position to data space, interpolates every series at that x
// and searches all series for the best peak within snapRadiusPx.
func (s *Session) Hover(pointerX, pointerY float64, vp plot.Viewport, snapRadiusPx float64) HoverResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tr := plot.NewTransform(s.bounds, vp)
	res := HoverResult{
		DataX:  tr.InvMapX(pointerX),
		DataY:  tr.InvMapY(pointerY),
		Inside: vp.Contains(pointerX, pointerY),
		Values: []SeriesValue{},
	}
	if !s.hasData {
		return res
	}

	candidates := make([]peaks.Candidate, 0, len(s.entries))
	for i, e := range s.entries {
		d := s.derivedFor(e)
		if y, ok := peaks.Interpolate(d.sorted, res.DataX); ok {
			res.Values = append(res.Values, SeriesValue{Handle: e.handle, Name: e.series.Name, Y: y})
		}
		candidates = append(candidates, peaks.Candidate{Series: i, Sorted: d.sorted, Peaks: d.peaks})
	}

	tol := peaks.DataTolerance(snapRadiusPx, vp.Width, s.bounds.MinX, s.bounds.MaxX)
	if best, ok := peaks.Find(candidates, res.DataX, tol); ok {
		e := s.entries[best.Series]
		res.Snap = &SnapResult{
			Handle:  e.handle,
			Name:    e.series.Name,
			Series:  best.Series,
			Point:   best.Point,
			ScreenX: tr.MapX(best.Point.X),
			ScreenY: tr.MapY(best.Point.Y),
		}
	}
	return res
}
