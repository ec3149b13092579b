package session

import (
	"errors"
	"io"
	"time"

	"github.com/Krimson/radar-scope/viewer/internal/chart"
	"github.com/Krimson/radar-scope/viewer/internal/series"
)

// ErrSessionNotFound is returned by every lookup that misses memory, cache and database.
var ErrSessionNotFound = errors.New("session not found")

// Status is the lifecycle state of a viewing session.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusSaved  Status = "SAVED"
)

// Session is the metadata of one chart session.
type Session struct {
	ID          string     `json:"id"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	SavedAt     *time.Time `json:"saved_at,omitempty"`
	SeriesCount int        `json:"series_count"`
	XTitle      string     `json:"x_title"`
	YTitle      string     `json:"y_title"`
	Metadata    Metadata   `json:"metadata"`
}

// Metadata holds user supplied details of a session.
type Metadata struct {
	Locale      string   `json:"locale,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	CreatedFrom string   `json:"created_from,omitempty"` // "web", "cli", "emulator"
	Files       []string `json:"files,omitempty"`
}

// SessionData is a session with its full chart state.
type SessionData struct {
	Session *Session    `json:"session"`
	State   chart.State `json:"state"`
}

// CreateSessionRequest is the body of POST /api/sessions.
type CreateSessionRequest struct {
	Locale      string `json:"locale,omitempty"`
	Notes       string `json:"notes,omitempty"`
	CreatedFrom string `json:"created_from,omitempty"`
}

// SessionResponse wraps a session for API responses.
type SessionResponse struct {
	Session *Session `json:"session"`
}

// SaveSessionRequest is the optional body of POST /api/sessions/{id}/save.
type SaveSessionRequest struct {
	Notes string `json:"notes,omitempty"`
}

// LoadPathsRequest is the body of POST /api/sessions/{id}/paths.
type LoadPathsRequest struct {
	Paths []string `json:"paths"`
}

// SeriesInfo describes one loaded series without its points.
type SeriesInfo struct {
	Handle string  `json:"handle"`
	Name   string  `json:"name"`
	Points int     `json:"points"`
	MinX   float64 `json:"min_x"`
	MaxX   float64 `json:"max_x"`
}

// SeriesResponse is returned by GET /api/sessions/{id}/series.
type SeriesResponse struct {
	Series []SeriesInfo    `json:"series"`
	Data   []series.Series `json:"data,omitempty"`
}

// Upload is one uploaded file handed to the manager.
type Upload struct {
	Name   string
	Reader io.Reader
}
