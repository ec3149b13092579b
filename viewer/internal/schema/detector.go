package schema

import (
	"errors"
	"log"
	"sort"
	"strings"
)

// ErrNoXColumn is returned when no header names a time column.
var ErrNoXColumn = errors.New("no time column in header")

// MaxYColumns caps the number of Y columns taken from one file.
const MaxYColumns = 12

const (
	TitleTime       = "Time [s]"
	TitleValue      = "Value"
	TitleVoltageADC = "Voltage/ADC"
)

// Map describes which columns of one file become X and Y.
type Map struct {
	XIndex             int
	TimeScaleToSeconds float64
	XTitle             string
	YIndices           []int
	YTitle             string
}

// Detect maps a header row to a time column and ordered Y columns.
// rows only size files whose data is wider than the header; cell conversion is done by XValues.
func Detect(header []string, rows [][]string) (*Map, error) {
	xIndex, scale := findTimeColumn(header)
	if xIndex < 0 {
		return nil, ErrNoXColumn
	}

	width := len(header)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	yIndices, radar := selectY(header, width, xIndex)
	m := &Map{
		XIndex:             xIndex,
		TimeScaleToSeconds: scale,
		XTitle:             TitleTime,
		YIndices:           yIndices,
		YTitle:             yTitle(header, yIndices, radar),
	}

	log.Printf("[SCHEMA] x=%q scale=%g y=%d title=%q", header[xIndex], scale, len(yIndices), m.YTitle)
	return m, nil
}

func findTimeColumn(header []string) (int, float64) {
	for i, h := range header {
		base, unit := SplitUnit(h)
		if IsTimeHeader(base) {
			return i, TimeScale(unit, h)
		}
	}
	return -1, 1
}

func headerAt(header []string, i int) string {
	if i < len(header) {
		return header[i]
	}
	return ""
}

// selectY applies the radar override, then the ordered rule groups, then falls back to every
// non-X column. The result is stably ordered by group and capped.
func selectY(header []string, width, xIndex int) ([]int, bool) {
	var radar []int
	for i := 0; i < width; i++ {
		if i != xIndex && IsRadarSignalHeader(headerAt(header, i)) {
			radar = append(radar, i)
		}
	}
	if len(radar) > 0 {
		return capY(radar), true
	}

	var picked []int
	for _, rule := range Rules {
		for i := 0; i < width; i++ {
			if i == xIndex {
				continue
			}
			base, _ := SplitUnit(headerAt(header, i))
			if base != "" && rule.Match(base) {
				picked = append(picked, i)
			}
		}
		if len(picked) > 0 {
			break
		}
	}
	if len(picked) == 0 {
		for i := 0; i < width; i++ {
			if i != xIndex {
				picked = append(picked, i)
			}
		}
	}

	sort.SliceStable(picked, func(a, b int) bool {
		return Classify(headerAt(header, picked[a])) < Classify(headerAt(header, picked[b]))
	})
	return capY(picked), false
}

func capY(indices []int) []int {
	if len(indices) > MaxYColumns {
		return indices[:MaxYColumns]
	}
	return indices
}

func yTitle(header []string, yIndices []int, radar bool) string {
	if radar {
		return TitleVoltageADC
	}
	for _, i := range yIndices {
		h := headerAt(header, i)
		if Classify(h) != GroupVoltage {
			continue
		}
		_, unit := SplitUnit(h)
		if unit == "" {
			unit = "V"
		}
		return "Voltage [" + unit + "]"
	}
	if len(yIndices) > 0 {
		base, unit := SplitUnit(headerAt(header, yIndices[0]))
		if base != "" {
			if unit != "" {
				return base + " [" + unit + "]"
			}
			return base
		}
	}
	return TitleValue
}

// SeriesLabel is the cleaned header used in series names, or "" for a blank cell.
func SeriesLabel(header []string, i int) string {
	return strings.TrimSpace(CleanHeader(headerAt(header, i)))
}
