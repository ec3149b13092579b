package chart

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/Krimson/radar-scope/viewer/internal/aggregate"
	"github.com/Krimson/radar-scope/viewer/internal/csvload"
	"github.com/Krimson/radar-scope/viewer/internal/peaks"
	"github.com/Krimson/radar-scope/viewer/internal/plot"
	"github.com/Krimson/radar-scope/viewer/internal/schema"
	"github.com/Krimson/radar-scope/viewer/internal/series"
	"github.com/Krimson/radar-scope/viewer/internal/valueparse"
)

// Default axis titles of an empty session.
const (
	DefaultXTitle = "X"
	DefaultYTitle = "Y"
)

// Handle identifies one series for the lifetime of a session.
type Handle = uuid.UUID

type entry struct {
	handle Handle
	series series.Series
}

// derived holds per-series data rebuilt lazily after any structural change.
type derived struct {
	sorted []series.Point
	peaks  []int
}

// LoadReport summarizes a batch load. One failing file does not stop the batch.
type LoadReport struct {
	SeriesAdded int                    `json:"series_added"`
	Failures    []*csvload.IngestError `json:"failures"`
}

// Session owns the loaded series, fitted bounds and axis titles.
// Load, Clear and Fit take the write lock; every query takes the read lock.
type Session struct {
	parser *valueparse.Parser

	mu        sync.RWMutex
	entries   []entry
	bounds    plot.Bounds
	hasData   bool
	xTitle    string
	yTitle    string
	titlesSet bool

	cacheMu sync.Mutex
	cache   map[Handle]*derived
}

// NewSession creates an empty session parsing cells with the given locale parser.
func NewSession(parser *valueparse.Parser) *Session {
	if parser == nil {
		parser = valueparse.Invariant()
	}
	return &Session{
		parser: parser,
		bounds: plot.DefaultBounds(),
		xTitle: DefaultXTitle,
		yTitle: DefaultYTitle,
		cache:  make(map[Handle]*derived),
	}
}

// Parser returns the session's value parser.
func (s *Session) Parser() *valueparse.Parser {
	return s.parser
}

// Load ingests files in order. Each file is committed on its own, so a failure leaves the
// session exactly as the previous file left it.
func (s *Session) Load(paths ...string) LoadReport {
	report := LoadReport{Failures: []*csvload.IngestError{}}
	for _, path := range paths {
		table, err := csvload.Load(path, s.parser)
		if err != nil {
			report.Failures = append(report.Failures, asIngestError(path, err))
			log.Printf("[WARN] Skipping %s: %v", path, err)
			continue
		}
		added, err := s.LoadTable(table)
		if err != nil {
			report.Failures = append(report.Failures, asIngestError(path, err))
			log.Printf("[WARN] Skipping %s: %v", path, err)
			continue
		}
		report.SeriesAdded += added
	}
	return report
}

// LoadTable builds series from an already loaded table and appends them.
func (s *Session) LoadTable(table *csvload.Table) (int, error) {
	result, err := series.Build(table, s.parser)
	if err != nil {
		return 0, csvload.NewIngestError(table.Path, "failed to build series", err)
	}
	if len(result.Series) == 0 {
		return 0, csvload.NewIngestError(table.Path, "no valid data points", csvload.ErrNoRows)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	first := !s.titlesSet
	s.xTitle = series.MergeTitle(s.xTitle, result.XTitle, schema.TitleTime, first)
	s.yTitle = series.MergeTitle(s.yTitle, result.YTitle, schema.TitleValue, first)
	s.titlesSet = true

	for _, sr := range result.Series {
		s.entries = append(s.entries, entry{handle: uuid.New(), series: sr})
	}
	s.invalidateLocked()
	s.fitLocked()

	log.Printf("[CHART] Loaded %d series from %s (total=%d)", len(result.Series), table.BaseName, len(s.entries))
	return len(result.Series), nil
}

// Clear drops every series and restores defaults.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.bounds = plot.DefaultBounds()
	s.hasData = false
	s.xTitle, s.yTitle = DefaultXTitle, DefaultYTitle
	s.titlesSet = false
	s.invalidateLocked()
}

// Fit recomputes bounds from the current series. It returns false and keeps the
// bounds when there is no finite point.
func (s *Session) Fit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fitLocked()
}

func (s *Session) fitLocked() bool {
	b, ok := plot.Fit(s.seriesLocked())
	if !ok {
		return false
	}
	s.bounds = b
	s.hasData = true
	return true
}

func (s *Session) seriesLocked() []series.Series {
	out := make([]series.Series, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.series
	}
	return out
}

// Series returns the series in load order.
func (s *Session) Series() []series.Series {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seriesLocked()
}

// Handles returns series handles in load order.
func (s *Session) Handles() []Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Handle, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.handle
	}
	return out
}

// Len returns the number of loaded series.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Bounds returns the fitted data bounds.
func (s *Session) Bounds() plot.Bounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bounds
}

// HasData reports whether bounds were fitted to loaded data.
func (s *Session) HasData() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasData
}

// Titles returns the X and Y axis titles.
func (s *Session) Titles() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.xTitle, s.yTitle
}

// Summary collapses every series to its |y| area.
func (s *Session) Summary() ([]aggregate.Slice, error) {
	return aggregate.Summarize(s.Series())
}

// Scene lays out the current chart for a renderer.
func (s *Session) Scene(vp plot.Viewport, maxTicks int) plot.Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()

	drawn := make([]series.Series, len(s.entries))
	for i, e := range s.entries {
		drawn[i] = series.Series{Name: e.series.Name, Points: s.derivedFor(e).sorted}
	}
	return plot.BuildScene(plot.SceneInput{
		Bounds:   s.bounds,
		Viewport: vp,
		XTitle:   s.xTitle,
		YTitle:   s.yTitle,
		Series:   drawn,
		MaxTicks: maxTicks,
	})
}

// invalidateLocked drops every derived cache entry. Callers hold the write lock.
func (s *Session) invalidateLocked() {
	s.cacheMu.Lock()
	s.cache = make(map[Handle]*derived)
	s.cacheMu.Unlock()
}

// derivedFor returns the cached sorted view and peaks of an entry, building them on first use.
// Callers hold at least the read lock.
func (s *Session) derivedFor(e entry) *derived {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if d, ok := s.cache[e.handle]; ok {
		return d
	}
	sorted := peaks.SortedView(e.series.Points)
	d := &derived{sorted: sorted, peaks: peaks.Detect(sorted)}
	s.cache[e.handle] = d
	return d
}

func asIngestError(path string, err error) *csvload.IngestError {
	var ingestErr *csvload.IngestError
	if errors.As(err, &ingestErr) {
		return ingestErr
	}
	return csvload.NewIngestError(path, fmt.Sprintf("failed to load: %v", err), err)
}
