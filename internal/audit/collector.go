package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// BatchInserter is the interface used by Collector to persist entries.
type BatchInserter interface {
	BatchInsert(ctx context.Context, entries []Entry) error
}

// Observer receives collector activity for metrics.
type Observer interface {
	SetAuditBuffer(n int)
	IncAuditFlush(ok bool)
}

// Collector buffers entries in memory and periodically flushes them to the
// store in batches. It is safe for concurrent use.
type Collector struct {
	store         BatchInserter
	buffer        []Entry
	mu            sync.Mutex
	batchSize     int
	flushInterval time.Duration
	done          chan struct{}
	stopOnce      sync.Once
	finished      chan struct{}
	startOnce     sync.Once
	now           func() time.Time
	obs           Observer
}

// NewCollector creates a new Collector that flushes to the given store when the
// buffer reaches batchSize or every flushInterval, whichever comes first.
func NewCollector(store BatchInserter, batchSize int, flushInterval time.Duration) *Collector {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Collector{
		store:         store,
		buffer:        make([]Entry, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		done:          make(chan struct{}),
		finished:      make(chan struct{}),
		now:           time.Now,
	}
}

// SetObserver attaches obs. Call before Start.
func (c *Collector) SetObserver(obs Observer) {
	c.obs = obs
}

// Start begins flushing buffered entries on a timer. It blocks until Stop is
// called or the context is cancelled, then performs a final flush.
func (c *Collector) Start(ctx context.Context) {
	started := false
	c.startOnce.Do(func() { started = true })
	if !started {
		return
	}
	defer close(c.finished)

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-ctx.Done():
			c.flush()
			return
		case <-c.done:
			c.flush()
			return
		}
	}
}

// Record adds an entry to the buffer, stamping a missing timestamp. If the
// buffer reaches batchSize, a flush is triggered immediately.
func (c *Collector) Record(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = c.now().UTC()
	}

	c.mu.Lock()
	c.buffer = append(c.buffer, e)
	n := len(c.buffer)
	c.mu.Unlock()

	if c.obs != nil {
		c.obs.SetAuditBuffer(n)
	}
	if n >= c.batchSize {
		c.flush()
	}
}

// flush drains all buffered entries and writes them to the store. It logs
// errors rather than returning them so callers are not blocked.
func (c *Collector) flush() {
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	batch := c.buffer
	c.buffer = make([]Entry, 0, c.batchSize)
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := c.store.BatchInsert(ctx, batch)
	if err != nil {
		slog.Error("failed to flush audit entries", "count", len(batch), "error", err)
	}
	if c.obs != nil {
		c.obs.SetAuditBuffer(0)
		c.obs.IncAuditFlush(err == nil)
	}
}

// Stop signals the background goroutine to exit and waits for its final
// flush. Without a running Start, Stop flushes directly.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.done) })

	started := true
	c.startOnce.Do(func() { started = false; close(c.finished) })
	if !started {
		c.flush()
		return
	}
	<-c.finished
}
