package series

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Krimson/radar-scope/viewer/internal/csvload"
	"github.com/Krimson/radar-scope/viewer/internal/schema"
	"github.com/Krimson/radar-scope/viewer/internal/valueparse"
)

// Fallback axis titles.
const (
	TitleX = "X"
	TitleY = "Y"
)

// Result is what one file contributes to a session.
type Result struct {
	Series []Series
	XTitle string
	YTitle string
}

// Build turns a loaded table into series, header-driven when a time column is found and
// through BuildFallback otherwise.
func Build(table *csvload.Table, parser *valueparse.Parser) (*Result, error) {
	if table == nil || len(table.Records) == 0 {
		return nil, fmt.Errorf("failed to build series: %w", csvload.ErrNoRows)
	}

	header := table.Header()
	if header == nil {
		return BuildFallback(table, parser), nil
	}

	m, err := schema.Detect(header, table.DataRows())
	if errors.Is(err, schema.ErrNoXColumn) {
		log.Printf("[SCHEMA] %s: %v, using column 0 as X", table.BaseName, err)
		return BuildFallback(table, parser), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to detect schema of %s: %w", table.BaseName, err)
	}

	return fromSchema(table, m, parser), nil
}

func fromSchema(table *csvload.Table, m *schema.Map, parser *valueparse.Parser) *Result {
	rows := table.DataRows()
	header := table.Header()
	xs := schema.XValues(schema.Column(rows, m.XIndex), m.TimeScaleToSeconds, parser)

	result := &Result{XTitle: m.XTitle, YTitle: m.YTitle}
	for _, col := range m.YIndices {
		ys := schema.NumericValues(schema.Column(rows, col), parser)
		points := Pair(xs, ys)
		if len(points) == 0 {
			continue
		}
		label := schema.SeriesLabel(header, col)
		if label == "" {
			label = fmt.Sprintf("Y%d", col)
		}
		result.Series = append(result.Series, Series{
			Name:   table.BaseName + " - " + label,
			Points: points,
		})
	}
	return result
}

// BuildFallback uses column 0 as X. A header row restricts Y to radar voltage/ADC columns
// when any of them exist.
func BuildFallback(table *csvload.Table, parser *valueparse.Parser) *Result {
	header := table.Header()
	rows := table.DataRows()
	width := table.ColumnCount()

	result := &Result{XTitle: TitleX, YTitle: TitleY}
	if width == 0 {
		return result
	}

	xs := schema.XValues(schema.Column(rows, 0), 1, parser)

	var cols []int
	if header != nil {
		for col := 1; col < width; col++ {
			if col < len(header) && schema.IsRadarSignalHeader(header[col]) {
				cols = append(cols, col)
			}
		}
		if len(cols) > 0 {
			result.YTitle = schema.TitleVoltageADC
		}
	}
	if len(cols) == 0 {
		for col := 1; col < width; col++ {
			cols = append(cols, col)
		}
	}

	for _, col := range cols {
		points := Pair(xs, schema.NumericValues(schema.Column(rows, col), parser))
		if len(points) == 0 {
			continue
		}
		result.Series = append(result.Series, Series{
			Name:   fallbackName(table.BaseName, header, col, width),
			Points: points,
		})
	}
	return result
}

func fallbackName(base string, header []string, col, width int) string {
	if label := schema.SeriesLabel(header, col); label != "" {
		return base + " - " + label
	}
	if width > 2 {
		return fmt.Sprintf("%s - Y%d", base, col)
	}
	return base
}

// MergeTitle combines a session axis title with one contributed by a newly loaded file.
// The first file's title is adopted; a later case-insensitive mismatch yields generic.
func MergeTitle(current, incoming, generic string, first bool) string {
	if first {
		return incoming
	}
	if strings.EqualFold(current, incoming) {
		return current
	}
	return generic
}
