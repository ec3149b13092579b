package emulator

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05.000"

// Emulator generates synthetic radar recordings.
type Emulator struct {
	cfg        Config
	generators []Generator
}

// New validates cfg and prepares one generator per column.
func New(cfg Config) (*Emulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gens := make([]Generator, len(cfg.Columns))
	for i, k := range cfg.Columns {
		g, err := NewGenerator(k, cfg.Seed+int64(i), cfg.Noise)
		if err != nil {
			return nil, err
		}
		gens[i] = g
	}
	return &Emulator{cfg: cfg, generators: gens}, nil
}

// Header returns the header row for the configured style, or nil for HeaderNone.
func (e *Emulator) Header() []string {
	if e.cfg.HeaderStyle == HeaderNone {
		return nil
	}

	header := []string{e.timeHeader()}
	for _, k := range e.cfg.Columns {
		name := columnNames[k]
		if e.cfg.HeaderStyle == HeaderBracket {
			header = append(header, name.bracket)
		} else {
			header = append(header, name.suffix)
		}
	}
	return header
}

func (e *Emulator) timeHeader() string {
	if e.cfg.TimeUnit == UnitTimestamp {
		if e.cfg.HeaderStyle == HeaderBracket {
			return "Timestamp"
		}
		return "timestamp"
	}
	if e.cfg.HeaderStyle == HeaderBracket {
		return fmt.Sprintf("Time [%s]", e.cfg.TimeUnit)
	}
	return "time_" + string(e.cfg.TimeUnit)
}

// row produces sample i. Generators keep random state, so rows must be produced in order.
func (e *Emulator) row(i int) []any {
	elapsed := time.Duration(i) * e.cfg.SampleRate
	t := elapsed.Seconds()

	row := make([]any, 0, len(e.generators)+1)
	switch e.cfg.TimeUnit {
	case UnitTimestamp:
		row = append(row, e.cfg.Start.Add(elapsed).Format(timestampLayout))
	case UnitMilliseconds:
		row = append(row, float64(elapsed)/float64(time.Millisecond))
	case UnitMicroseconds:
		row = append(row, float64(elapsed)/float64(time.Microsecond))
	default:
		row = append(row, t)
	}

	for _, g := range e.generators {
		row = append(row, round(g.Next(t), 4))
	}
	return row
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func (e *Emulator) writeHeader(sink Sink) error {
	header := e.Header()
	if header == nil {
		return nil
	}
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	return sink.Write(cells)
}

// Generate writes the whole recording to sink and returns the number of data rows.
func (e *Emulator) Generate(sink Sink) (int, error) {
	if err := e.writeHeader(sink); err != nil {
		return 0, err
	}

	n := e.cfg.Samples()
	for i := 0; i < n; i++ {
		if err := sink.Write(e.row(i)); err != nil {
			return i, err
		}
	}
	if err := sink.Flush(); err != nil {
		return n, fmt.Errorf("failed to flush output: %w", err)
	}
	return n, nil
}

// Stream writes one row per tick until the recording is complete or ctx is done, flushing every row.
func (e *Emulator) Stream(ctx context.Context, sink Sink, ticker *Ticker) (int, error) {
	if err := e.writeHeader(sink); err != nil {
		return 0, err
	}

	tickCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	n := e.cfg.Samples()
	written := 0
	if n == 0 {
		return 0, nil
	}
	for range ticker.Tick(tickCtx) {
		if err := sink.Write(e.row(written)); err != nil {
			return written, err
		}
		if err := sink.Flush(); err != nil {
			return written, fmt.Errorf("failed to flush output: %w", err)
		}
		written++
		if written >= n {
			break
		}
	}

	if written < n {
		log.Printf("[INFO] Emulator stopped after %d of %d rows", written, n)
		return written, ctx.Err()
	}
	return written, nil
}

// WriteFile generates a complete recording into path.
func WriteFile(path string, cfg Config) (int, error) {
	e, err := New(cfg)
	if err != nil {
		return 0, err
	}

	sink, err := OpenSink(path, cfg)
	if err != nil {
		return 0, err
	}

	n, err := e.Generate(sink)
	if cerr := sink.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close %s: %w", path, cerr)
	}
	if err != nil {
		return n, err
	}

	log.Printf("[INFO] Emulator wrote %s: %d rows, columns=%v", path, n, cfg.Columns)
	return n, nil
}
