package chart

import (
	"github.com/google/uuid"

	"github.com/Krimson/radar-scope/viewer/internal/plot"
	"github.com/Krimson/radar-scope/viewer/internal/series"
)

// StoredSeries is a series with its handle, as persisted by session stores.
type StoredSeries struct {
	Handle Handle `json:"handle"`
	series.Series
}

// State is a serializable copy of a session.
type State struct {
	Series  []StoredSeries `json:"series"`
	Bounds  plot.Bounds    `json:"bounds"`
	HasData bool           `json:"has_data"`
	XTitle  string         `json:"x_title"`
	YTitle  string         `json:"y_title"`
}

// State copies the session for persistence.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		Series:  make([]StoredSeries, len(s.entries)),
		Bounds:  s.bounds,
		HasData: s.hasData,
		XTitle:  s.xTitle,
		YTitle:  s.yTitle,
	}
	for i, e := range s.entries {
		st.Series[i] = StoredSeries{Handle: e.handle, Series: e.series}
	}
	return st
}

// Restore replaces the session contents with a stored state.
func (s *Session) Restore(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make([]entry, 0, len(st.Series))
	for _, sr := range st.Series {
		h := sr.Handle
		if h == uuid.Nil {
			h = uuid.New()
		}
		s.entries = append(s.entries, entry{handle: h, series: sr.Series})
	}
	s.bounds = st.Bounds
	s.hasData = st.HasData
	if !s.hasData {
		s.bounds = plot.DefaultBounds()
	}
	s.xTitle, s.yTitle = st.XTitle, st.YTitle
	if s.xTitle == "" {
		s.xTitle = DefaultXTitle
	}
	if s.yTitle == "" {
		s.yTitle = DefaultYTitle
	}
	s.titlesSet = len(s.entries) > 0
	s.invalidateLocked()
}
