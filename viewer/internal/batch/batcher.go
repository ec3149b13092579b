package batch

import (
	"context"
	"log"
	"sync"
	"time"
)

// Config controls when pending changes are flushed.
type Config struct {
	// FlushInterval is how long a session stays quiet before its changes are flushed.
	FlushInterval time.Duration
	// MaxPending flushes a session immediately after this many changes.
	MaxPending int
	// QueueSize bounds the flushed batches waiting for the sink.
	QueueSize int
}

// DefaultConfig flushes after 100ms of quiet or 50 changes.
func DefaultConfig() Config {
	return Config{
		FlushInterval: 100 * time.Millisecond,
		MaxPending:    50,
		QueueSize:     100,
	}
}

// Batcher coalesces bursts of session changes, such as a multi-file upload,
// into one notification per session.
type Batcher struct {
	cfg     Config
	sink    Sink
	mu      sync.Mutex
	pending map[string]*pending
	now     func() time.Time

	flushChan chan Batch
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	stats struct {
		mu       sync.RWMutex
		received int64
		flushed  int64
		dropped  int64
	}
}

// Stats is a snapshot of the batcher counters.
type Stats struct {
	Received int64 `json:"received"`
	Flushed  int64 `json:"flushed"`
	Dropped  int64 `json:"dropped"`
}

// LogSink logs every batch.
type LogSink struct{}

func (LogSink) Consume(ctx context.Context, b Batch) error {
	log.Printf("[BATCH] session=%s series=%d changes=%d span=%v",
		b.SessionID, b.SeriesCount, b.Changes, b.Last.Sub(b.First))
	return nil
}

// NewBatcher starts the flush workers. Call Stop to release them.
func NewBatcher(cfg Config, sink Sink) *Batcher {
	def := DefaultConfig()
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = def.MaxPending
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}

	b := &Batcher{
		cfg:       cfg,
		sink:      sink,
		pending:   make(map[string]*pending),
		now:       time.Now,
		flushChan: make(chan Batch, cfg.QueueSize),
		stopChan:  make(chan struct{}),
	}

	b.wg.Add(2)
	go b.flushWorker()
	go b.timerFlusher()

	return b
}

// Add records a change. Its signature matches session.Manager.OnChange.
func (b *Batcher) Add(sessionID string, seriesCount int) {
	if sessionID == "" {
		b.incrementDropped()
		log.Printf("[WARN] Change without session id dropped")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.stopChan:
		b.incrementDropped()
		return
	default:
	}

	p, ok := b.pending[sessionID]
	if !ok {
		p = &pending{Batch: Batch{SessionID: sessionID}}
		b.pending[sessionID] = p
	}
	p.add(Change{SessionID: sessionID, SeriesCount: seriesCount, At: b.now()})
	b.incrementReceived()

	if p.Changes >= b.cfg.MaxPending {
		b.flushLocked(p)
	}
}

func (b *Batcher) flushLocked(p *pending) {
	if p.Changes == 0 {
		return
	}
	out := p.Batch
	p.reset()

	select {
	case b.flushChan <- out:
		b.incrementFlushed()
	default:
		log.Printf("[WARN] Flush queue full, batch for session %s dropped", out.SessionID)
		b.incrementDropped()
	}
}

func (b *Batcher) flushWorker() {
	defer b.wg.Done()
	for {
		select {
		case batch := <-b.flushChan:
			b.consume(batch)
		case <-b.stopChan:
			for {
				select {
				case batch := <-b.flushChan:
					b.consume(batch)
				default:
					return
				}
			}
		}
	}
}

func (b *Batcher) consume(batch Batch) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.sink.Consume(ctx, batch); err != nil {
		log.Printf("[ERROR] Failed to consume batch for session %s: %v", batch.SessionID, err)
	}
}

func (b *Batcher) timerFlusher() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.cfg.FlushInterval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.flushQuiet()
		case <-b.stopChan:
			return
		}
	}
}

func (b *Batcher) flushQuiet() {
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	for id, p := range b.pending {
		if p.Changes == 0 {
			delete(b.pending, id)
			continue
		}
		if now.Sub(p.Last) >= b.cfg.FlushInterval {
			b.flushLocked(p)
		}
	}
}

// Flush hands every pending batch to the sink queue.
func (b *Batcher) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.pending {
		b.flushLocked(p)
	}
}

// Stop flushes pending changes, waits for the sink to drain them and stops the workers.
func (b *Batcher) Stop() {
	b.stopOnce.Do(func() {
		log.Printf("[INFO] Stopping change batcher...")
		b.Flush()

		b.mu.Lock()
		close(b.stopChan)
		b.mu.Unlock()

		b.wg.Wait()
		b.logStats()
	})
}

// Stats returns the current counters.
func (b *Batcher) Stats() Stats {
	b.stats.mu.RLock()
	defer b.stats.mu.RUnlock()
	return Stats{Received: b.stats.received, Flushed: b.stats.flushed, Dropped: b.stats.dropped}
}

func (b *Batcher) incrementReceived() {
	b.stats.mu.Lock()
	b.stats.received++
	b.stats.mu.Unlock()
}

func (b *Batcher) incrementFlushed() {
	b.stats.mu.Lock()
	b.stats.flushed++
	b.stats.mu.Unlock()
}

func (b *Batcher) incrementDropped() {
	b.stats.mu.Lock()
	b.stats.dropped++
	b.stats.mu.Unlock()
}

func (b *Batcher) logStats() {
	s := b.Stats()
	log.Printf("[STATS] changes received=%d flushed=%d dropped=%d", s.Received, s.Flushed, s.Dropped)
}
