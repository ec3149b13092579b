package csvload

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Krimson/radar-scope/viewer/internal/valueparse"
)

// HeaderKind is the result of the header-row heuristic.
type HeaderKind int

const (
	NoHeader HeaderKind = iota
	HeaderPresent
)

func (k HeaderKind) String() string {
	if k == HeaderPresent {
		return "header"
	}
	return "no-header"
}

// delimiterSampleLines bounds how many lines are inspected for delimiter detection.
const delimiterSampleLines = 20

// candidateDelimiters in preference order: tab and semicolon are rarely part of a value,
// while a comma may be a decimal separator.
var candidateDelimiters = []rune{'\t', ';', ','}

// Table holds the usable rows of one file.
type Table struct {
	Path       string
	BaseName   string
	Delimiter  rune
	HeaderKind HeaderKind
	Records    [][]string
}

// Header returns row 0 when the header heuristic fired, nil otherwise.
func (t *Table) Header() []string {
	if t.HeaderKind == HeaderPresent && len(t.Records) > 0 {
		return t.Records[0]
	}
	return nil
}

// DataRows returns all rows after the header, or every row when there is none.
func (t *Table) DataRows() [][]string {
	if t.HeaderKind == HeaderPresent && len(t.Records) > 0 {
		return t.Records[1:]
	}
	return t.Records
}

// ColumnCount returns the widest row length.
func (t *Table) ColumnCount() int {
	n := 0
	for _, r := range t.Records {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

// Load reads a delimited text file or an .xlsx workbook into a Table.
func Load(path string, parser *valueparse.Parser) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, NewIngestError(path, "failed to open file", err)
	}
	defer file.Close()

	return LoadReader(path, file, parser)
}

// LoadReader is Load for an already opened stream; name selects the format and the series base name.
func LoadReader(name string, r io.Reader, parser *valueparse.Parser) (*Table, error) {
	var (
		records [][]string
		delim   rune
		err     error
	)

	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		records, err = readWorkbook(r)
	} else {
		records, delim, err = readDelimited(r)
	}
	if err != nil {
		return nil, NewIngestError(name, "failed to read rows", err)
	}

	records = dropBlankRows(records)
	if len(records) == 0 {
		return nil, NewIngestError(name, ErrNoRows.Error(), ErrNoRows)
	}

	table := &Table{
		Path:       name,
		BaseName:   baseName(name),
		Delimiter:  delim,
		HeaderKind: DetectHeader(records[0], parser),
		Records:    records,
	}

	log.Printf("[INGEST] Loaded %s: rows=%d columns=%d delimiter=%q header=%s",
		table.BaseName, len(records), table.ColumnCount(), delim, table.HeaderKind)
	return table, nil
}

// DetectHeader treats row 0 as data only when its first field and at least one other field are numbers.
func DetectHeader(row []string, parser *valueparse.Parser) HeaderKind {
	if len(row) == 0 {
		return NoHeader
	}
	if _, ok := parser.ParseNumber(row[0]); !ok {
		return HeaderPresent
	}
	for _, field := range row[1:] {
		if _, ok := parser.ParseNumber(field); ok {
			return NoHeader
		}
	}
	return HeaderPresent
}

func readDelimited(r io.Reader) ([][]string, rune, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	delim := DetectDelimiter(data)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, delim, fmt.Errorf("failed to parse delimited data: %w", err)
	}

	for _, record := range records {
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
	}
	return records, delim, nil
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Join(ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	for _, row := range rows {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
	}
	return rows, nil
}

// DetectDelimiter picks the first candidate that splits every sampled line into the same
// number of fields as the first line. Without a consistent candidate it falls back to the one
// occurring most often in the first line, then to comma.
func DetectDelimiter(data []byte) rune {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() && len(lines) < delimiterSampleLines {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return ','
	}

	for _, d := range candidateDelimiters {
		first := countOutsideQuotes(lines[0], d)
		if first == 0 {
			continue
		}
		consistent := true
		for _, line := range lines[1:] {
			if countOutsideQuotes(line, d) != first {
				consistent = false
				break
			}
		}
		if consistent {
			return d
		}
	}

	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		if c := countOutsideQuotes(lines[0], d); c > bestCount {
			best, bestCount = d, c
		}
	}
	return best
}

func countOutsideQuotes(line string, delim rune) int {
	count := 0
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			count++
		}
	}
	return count
}

func dropBlankRows(records [][]string) [][]string {
	out := records[:0]
	for _, record := range records {
		blank := true
		for _, field := range record {
			if strings.TrimSpace(field) != "" {
				blank = false
				break
			}
		}
		if !blank {
			out = append(out, record)
		}
	}
	return out
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
