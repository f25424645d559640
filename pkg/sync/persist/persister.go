package persist

import (
	"context"
	"sync"
	"time"

	"ai-analytics-client/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// WriteFunc performs the remote write for one owner's merged fields.
type WriteFunc func(ctx context.Context, ownerId uuid.UUID, fields map[string]interface{}) error

type pendingWrite struct {
	fields map[string]interface{}
	timer  clockwork.Timer
	// seq identifies the schedule that armed the current timer. A timer
	// that already fired when Schedule restarts the window would otherwise
	// drain the freshly merged record before a full quiet period.
	seq uint64
}

// Persister coalesces rapid successive state writes per owner into one
// remote call after a quiet period. This channel is advisory: failures
// are logged and dropped, never surfaced to the caller.
type Persister struct {
	mu      sync.Mutex
	pending map[uuid.UUID]*pendingWrite
	window  time.Duration
	write   WriteFunc
	clock   clockwork.Clock
	logger  logger.ILogger
	stopped bool
}

func NewPersister(clock clockwork.Clock, window time.Duration, write WriteFunc, log logger.ILogger) *Persister {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Persister{
		pending: make(map[uuid.UUID]*pendingWrite),
		window:  window,
		write:   write,
		clock:   clock,
		logger:  log,
	}
}

// Schedule merges fields into the owner's pending record and restarts its
// delay timer. Last value per field wins; fields absent from this call
// keep their previously scheduled value. An explicit nil value survives
// the merge and travels to the remote as a field clear.
func (p *Persister) Schedule(ownerId uuid.UUID, fields map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}

	rec, ok := p.pending[ownerId]
	if !ok {
		rec = &pendingWrite{fields: make(map[string]interface{})}
		p.pending[ownerId] = rec
	}
	for k, v := range fields {
		rec.fields[k] = v
	}

	if rec.timer != nil {
		rec.timer.Stop()
	}
	rec.seq++
	seq := rec.seq
	rec.timer = p.clock.AfterFunc(p.window, func() {
		p.flushOwner(ownerId, seq)
	})
}

func (p *Persister) flushOwner(ownerId uuid.UUID, seq uint64) {
	p.mu.Lock()
	rec, ok := p.pending[ownerId]
	if ok && rec.seq != seq {
		// A newer Schedule restarted the quiet period after this timer
		// fired; its own timer will flush.
		p.mu.Unlock()
		return
	}
	if ok {
		delete(p.pending, ownerId)
	}
	p.mu.Unlock()
	if !ok {
		return
	}

	if err := p.write(context.Background(), ownerId, rec.fields); err != nil {
		p.logger.Warn("Persister", "Context write failed, dropping", map[string]interface{}{
			"owner_id": ownerId.String(),
			"error":    err.Error(),
		})
	}
}

// Flush writes out every pending record immediately. Optional; teardown
// only requires Stop.
func (p *Persister) Flush(ctx context.Context) {
	p.mu.Lock()
	drained := p.pending
	p.pending = make(map[uuid.UUID]*pendingWrite)
	for _, rec := range drained {
		if rec.timer != nil {
			rec.timer.Stop()
		}
	}
	p.mu.Unlock()

	for ownerId, rec := range drained {
		if err := p.write(ctx, ownerId, rec.fields); err != nil {
			p.logger.Warn("Persister", "Context write failed, dropping", map[string]interface{}{
				"owner_id": ownerId.String(),
				"error":    err.Error(),
			})
		}
	}
}

// Stop cancels all pending timers without flushing.
func (p *Persister) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	for _, rec := range p.pending {
		if rec.timer != nil {
			rec.timer.Stop()
		}
	}
	p.pending = make(map[uuid.UUID]*pendingWrite)
}
