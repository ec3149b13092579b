package emulator

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sink receives generated rows. Cells are strings or float64.
type Sink interface {
	Write(row []any) error
	Flush() error
	Close() error
}

// CSVSink writes delimited text.
type CSVSink struct {
	w            *csv.Writer
	closer       io.Closer
	decimalComma bool
	rows         int
}

// NewCSVSink writes to w. closer may be nil.
func NewCSVSink(w io.Writer, closer io.Closer, delimiter rune, decimalComma bool) *CSVSink {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter
	return &CSVSink{w: cw, closer: closer, decimalComma: decimalComma}
}

func (s *CSVSink) Write(row []any) error {
	record := make([]string, len(row))
	for i, cell := range row {
		switch v := cell.(type) {
		case string:
			record[i] = v
		case float64:
			record[i] = formatNumber(v, s.decimalComma)
		default:
			record[i] = fmt.Sprint(v)
		}
	}
	if err := s.w.Write(record); err != nil {
		return fmt.Errorf("failed to write row %d: %w", s.rows, err)
	}
	s.rows++
	return nil
}

func (s *CSVSink) Flush() error {
	s.w.Flush()
	return s.w.Error()
}

func (s *CSVSink) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// Rows returns the number of rows written.
func (s *CSVSink) Rows() int {
	return s.rows
}

func formatNumber(v float64, decimalComma bool) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if decimalComma {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s
}

// XLSXSink writes the first sheet of a new workbook and saves it on Close.
type XLSXSink struct {
	file   *excelize.File
	stream *excelize.StreamWriter
	path   string
	rows   int
}

func NewXLSXSink(path string) (*XLSXSink, error) {
	f := excelize.NewFile()
	sw, err := f.NewStreamWriter(f.GetSheetName(0))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create stream writer: %w", err)
	}
	return &XLSXSink{file: f, stream: sw, path: path}, nil
}

func (s *XLSXSink) Write(row []any) error {
	cell, err := excelize.CoordinatesToCellName(1, s.rows+1)
	if err != nil {
		return err
	}
	if err := s.stream.SetRow(cell, row); err != nil {
		return fmt.Errorf("failed to write row %d: %w", s.rows, err)
	}
	s.rows++
	return nil
}

// Flush is a no-op; the workbook is written on Close.
func (s *XLSXSink) Flush() error {
	return nil
}

func (s *XLSXSink) Close() error {
	defer s.file.Close()
	if err := s.stream.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := s.file.SaveAs(s.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// OpenSink creates the sink for path: .xlsx gets a workbook, anything else delimited text.
func OpenSink(path string, cfg Config) (Sink, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return NewXLSXSink(path)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return NewCSVSink(f, f, cfg.Delimiter, cfg.DecimalComma), nil
}
