package csvload

import (
	"errors"
	"fmt"
)

// ErrNoRows indicates the file produced no usable rows after blank rows were dropped.
var ErrNoRows = errors.New("no usable rows")

// ErrUnsupportedFormat indicates the file could not be read as delimited text or a workbook.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// IngestError reports why one file could not be loaded.
// Callers log it per file and keep loading the rest of a batch.
type IngestError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

func (e *IngestError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Reason {
		return fmt.Sprintf("ingest %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("ingest %s: %s", e.Path, e.Reason)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// NewIngestError creates a new IngestError.
func NewIngestError(path, reason string, err error) *IngestError {
	return &IngestError{
		Path:   path,
		Reason: reason,
		Err:    err,
	}
}
