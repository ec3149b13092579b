package schema

import (
	"math"
	"strings"
	"time"

	"github.com/Krimson/radar-scope/viewer/internal/valueparse"
)

// ColumnKind is the result of sampling a column's cells.
type ColumnKind int

const (
	Numeric ColumnKind = iota
	DateTimeLikely
)

func (k ColumnKind) String() string {
	if k == DateTimeLikely {
		return "datetime"
	}
	return "numeric"
}

const classifySampleRows = 20

// ClassifyColumn samples up to 20 non-empty cells; the column is DateTimeLikely
// when at least half of them parse as timestamps.
func ClassifyColumn(cells []string, parser *valueparse.Parser) ColumnKind {
	sampled, stamps := 0, 0
	for _, cell := range cells {
		if sampled == classifySampleRows {
			break
		}
		if strings.TrimSpace(cell) == "" {
			continue
		}
		sampled++
		if _, ok := parser.ParseTimestamp(cell); ok {
			stamps++
		}
	}
	if sampled == 0 {
		return Numeric
	}
	if float64(stamps) >= float64(sampled)*0.5 {
		return DateTimeLikely
	}
	return Numeric
}

// Column extracts cell index col from every row; short rows yield "".
func Column(rows [][]string, col int) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		if col < len(row) {
			out[i] = row[col]
		}
	}
	return out
}

// NumericValues parses every cell; failures become NaN.
func NumericValues(cells []string, parser *valueparse.Parser) []float64 {
	out := make([]float64, len(cells))
	for i, cell := range cells {
		v, ok := parser.ParseNumber(cell)
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

// ElapsedSeconds converts timestamp cells to seconds since the first parseable one.
func ElapsedSeconds(cells []string, parser *valueparse.Parser) []float64 {
	out := make([]float64, len(cells))
	var (
		base    time.Time
		hasBase bool
	)
	for i, cell := range cells {
		ts, ok := parser.ParseTimestamp(cell)
		if !ok {
			out[i] = math.NaN()
			continue
		}
		if !hasBase {
			base, hasBase = ts, true
		}
		out[i] = ts.Sub(base).Seconds()
	}
	return out
}

// XValues classifies an X column and converts it to seconds (timestamps) or scaled numbers.
func XValues(cells []string, scale float64, parser *valueparse.Parser) []float64 {
	if ClassifyColumn(cells, parser) == DateTimeLikely {
		return ElapsedSeconds(cells, parser)
	}
	values := NumericValues(cells, parser)
	if scale != 1 {
		for i := range values {
			values[i] *= scale
		}
	}
	return values
}
