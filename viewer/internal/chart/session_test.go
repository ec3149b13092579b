package chart

import (
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krimson/radar-scope/viewer/internal/aggregate"
	"github.com/Krimson/radar-scope/viewer/internal/csvload"
	"github.com/Krimson/radar-scope/viewer/internal/plot"
	"github.com/Krimson/radar-scope/viewer/internal/valueparse"
)

const radarCSV = "time_ms,radar_voltage,radar_adc\n0,1.0,10\n10,2.5,12\n20,1.2,9\n"

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSession_LoadRadarFile(t *testing.T) {
	s := NewSession(valueparse.Invariant())
	path := writeCSV(t, t.TempDir(), "run1.csv", radarCSV)

	report := s.Load(path)
	assert.Equal(t, 2, report.SeriesAdded)
	assert.Empty(t, report.Failures)

	list := s.Series()
	require.Len(t, list, 2)
	assert.Equal(t, "run1 - radar_voltage", list[0].Name)
	assert.Equal(t, "run1 - radar_adc", list[1].Name)

	x, y := s.Titles()
	assert.Equal(t, "Time [s]", x)
	assert.Equal(t, "Voltage/ADC", y)

	assert.True(t, s.HasData())
	b := s.Bounds()
	assert.InDelta(t, -0.001, b.MinX, 1e-12)
	assert.InDelta(t, 0.021, b.MaxX, 1e-12)
	assert.Len(t, s.Handles(), 2)
}

func TestSession_PartialFailureKeepsGoodFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeCSV(t, dir, "good.csv", radarCSV)
	blank := writeCSV(t, dir, "blank.csv", "\n \n")
	other := writeCSV(t, dir, "plain.csv", "0,5\n1,7\n2,3\n")

	s := NewSession(nil)
	report := s.Load(good, blank, filepath.Join(dir, "missing.csv"), other)

	assert.Equal(t, 3, report.SeriesAdded)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, blank, report.Failures[0].Path)
	assert.ErrorIs(t, report.Failures[0], csvload.ErrNoRows)
	assert.Equal(t, filepath.Join(dir, "missing.csv"), report.Failures[1].Path)
	assert.Equal(t, 3, s.Len())
}

func TestSession_FailedLoadLeavesStateUnchanged(t *testing.T) {
	dir := t.TempDir()
	s := NewSession(nil)
	s.Load(writeCSV(t, dir, "good.csv", radarCSV))
	before := s.State()

	report := s.Load(writeCSV(t, dir, "blank.csv", "\n\n"))
	require.Len(t, report.Failures, 1)
	assert.Equal(t, before, s.State())

	report = s.Load(writeCSV(t, dir, "nodata.csv", "time,speed\nx,y\n"))
	require.Len(t, report.Failures, 1)
	assert.Equal(t, before, s.State())
}

func TestSession_TitleMerge(t *testing.T) {
	dir := t.TempDir()
	s := NewSession(nil)

	s.Load(writeCSV(t, dir, "a.csv", "time,Voltage [V]\n0,1\n1,2\n"))
	_, y := s.Titles()
	assert.Equal(t, "Voltage [V]", y)

	s.Load(writeCSV(t, dir, "b.csv", "time,voltage [v]\n0,1\n1,2\n"))
	_, y = s.Titles()
	assert.Equal(t, "Voltage [V]", y)

	s.Load(writeCSV(t, dir, "c.csv", "time,speed\n0,1\n1,2\n"))
	x, y := s.Titles()
	assert.Equal(t, "Time [s]", x)
	assert.Equal(t, "Value", y)
}

func TestSession_FallbackThenHeaderGivesGenericX(t *testing.T) {
	dir := t.TempDir()
	s := NewSession(nil)
	s.Load(writeCSV(t, dir, "plain.csv", "0,5\n1,7\n2,3\n"))
	x, y := s.Titles()
	assert.Equal(t, "X", x)
	assert.Equal(t, "Y", y)

	s.Load(writeCSV(t, dir, "run.csv", radarCSV))
	x, y = s.Titles()
	assert.Equal(t, "Time [s]", x)
	assert.Equal(t, "Value", y)
}

func TestSession_Clear(t *testing.T) {
	s := NewSession(nil)
	s.Load(writeCSV(t, t.TempDir(), "run.csv", radarCSV))
	s.Clear()

	assert.Equal(t, 0, s.Len())
	assert.False(t, s.HasData())
	assert.Equal(t, plot.DefaultBounds(), s.Bounds())
	x, y := s.Titles()
	assert.Equal(t, DefaultXTitle, x)
	assert.Equal(t, DefaultYTitle, y)
	assert.False(t, s.Fit())
}

func peakSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(nil)
	report := s.Load(writeCSV(t, t.TempDir(), "peak.csv", "t,speed\n0,0\n1,1\n2,3\n3,2\n4,0\n"))
	require.Equal(t, 1, report.SeriesAdded)
	return s
}

func TestSession_HoverSnapsToPeak(t *testing.T) {
	s := peakSession(t)
	// x bounds are [-0.2, 4.2]: 100 px per data unit
	vp := plot.Viewport{Left: 0, Top: 0, Width: 440, Height: 200}

	res := s.Hover(225, 100, vp, 10)
	assert.InDelta(t, 2.05, res.DataX, 1e-9)
	assert.True(t, res.Inside)
	require.Len(t, res.Values, 1)
	assert.InDelta(t, 2.95, res.Values[0].Y, 1e-9)
	require.NotNil(t, res.Snap)
	assert.Equal(t, 3.0, res.Snap.Point.Y)
	assert.Equal(t, "peak - speed", res.Snap.Name)
	assert.InDelta(t, 220.0, res.Snap.ScreenX, 1e-9)

	res = s.Hover(300, 100, vp, 10)
	assert.Nil(t, res.Snap)
	assert.InDelta(t, 2.2, res.Values[0].Y, 1e-9)
}

func TestSession_HoverEmpty(t *testing.T) {
	s := NewSession(nil)
	res := s.Hover(10, 10, plot.Viewport{Width: 100, Height: 100}, 8)
	assert.Empty(t, res.Values)
	assert.Nil(t, res.Snap)
	assert.InDelta(t, 0.1, res.DataX, 1e-12)
}

func TestSession_SceneAndSummary(t *testing.T) {
	s := NewSession(nil)
	s.Load(writeCSV(t, t.TempDir(), "run.csv", "time,speed\n2,2\n0,2\n1,4\n"))

	scene := s.Scene(plot.Viewport{Width: 300, Height: 200}, 6)
	var line *plot.Primitive
	for i := range scene.Primitives {
		if scene.Primitives[i].Kind == plot.KindPolyline {
			line = &scene.Primitives[i]
		}
	}
	require.NotNil(t, line)
	require.Len(t, line.Points, 3)
	assert.Less(t, line.Points[0].X, line.Points[1].X, "polyline drawn in x order")

	// area follows file order: (2,2)-(0,2) then (0,2)-(1,4)
	slices, err := s.Summary()
	require.NoError(t, err)
	assert.Equal(t, []aggregate.Slice{{Name: "run - speed", Value: 7}}, slices)

	s.Clear()
	slices, err = s.Summary()
	assert.ErrorIs(t, err, aggregate.ErrEmptyAggregation)
	assert.Empty(t, slices)
}

func TestSession_StateRoundTrip(t *testing.T) {
	s := NewSession(nil)
	s.Load(writeCSV(t, t.TempDir(), "run.csv", radarCSV))
	st := s.State()

	restored := NewSession(nil)
	restored.Restore(st)

	assert.Equal(t, st, restored.State())
	assert.Equal(t, s.Handles(), restored.Handles())
}

func TestSession_ConcurrentReadersAndWriter(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "run.csv", radarCSV)
	s := NewSession(nil)
	vp := plot.Viewport{Width: 400, Height: 300}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				res := s.Hover(float64(j*8), 150, vp, 10)
				for _, v := range res.Values {
					assert.False(t, math.IsNaN(v.Y), "NaN leaked into hover")
				}
				s.Scene(vp, 6)
			}
		}()
	}
	for i := 0; i < 10; i++ {
		s.Load(path)
		if i%3 == 0 {
			s.Clear()
		}
	}
	wg.Wait()
}
