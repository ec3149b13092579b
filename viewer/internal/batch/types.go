package batch

import (
	"context"
	"time"
)

// Change is one structural change of a session's series list.
type Change struct {
	SessionID   string
	SeriesCount int
	At          time.Time
}

// Batch is the coalesced result of consecutive changes to one session.
// SeriesCount is the count after the last change.
type Batch struct {
	SessionID   string
	SeriesCount int
	Changes     int
	First       time.Time
	Last        time.Time
}

// Sink consumes flushed batches.
type Sink interface {
	Consume(ctx context.Context, b Batch) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, b Batch) error

func (f SinkFunc) Consume(ctx context.Context, b Batch) error {
	return f(ctx, b)
}

// MultiSink hands every batch to each sink in order and returns the first error.
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, b Batch) error {
		var first error
		for _, s := range sinks {
			if err := s.Consume(ctx, b); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}

type pending struct {
	Batch
}

func (p *pending) add(c Change) {
	if p.Changes == 0 {
		p.First = c.At
	}
	p.SeriesCount = c.SeriesCount
	p.Last = c.At
	p.Changes++
}

func (p *pending) reset() {
	p.Batch = Batch{SessionID: p.SessionID}
}
