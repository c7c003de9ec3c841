package todo

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// writer persists snapshots on a single background goroutine. Snapshots
// that arrive while a save is in flight are coalesced: only the newest one
// is written next, so the stored blob never goes back to an older state.
type writer struct {
	p      Persister
	logger *log.Logger

	mu        sync.Mutex
	pending   []Task
	hasNext   bool
	scheduled uint64
	written   uint64
	progress  chan struct{}
	stopped   bool

	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}
	quit   chan struct{}
	done   chan struct{}
}

func startWriter(p Persister, logger *log.Logger) *writer {
	ctx, cancel := context.WithCancel(context.Background())
	w := &writer{
		ctx:      ctx,
		cancel:   cancel,
		p:        p,
		logger:   logger,
		progress: make(chan struct{}),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *writer) schedule(tasks []Task) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		w.logger.Warn("store closed, change not persisted", "count", len(tasks))
		return
	}
	w.pending = tasks
	w.hasNext = true
	w.scheduled++
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.drain()
		case <-w.quit:
			w.drain()
			return
		}
	}
}

func (w *writer) drain() {
	for {
		w.mu.Lock()
		if !w.hasNext {
			w.mu.Unlock()
			return
		}
		snap, seq := w.pending, w.scheduled
		w.pending, w.hasNext = nil, false
		w.mu.Unlock()

		if err := w.p.Save(w.ctx, snap); err != nil {
			w.logger.Debug("save failed, in-memory state kept", "err", err, "count", len(snap))
		}

		w.mu.Lock()
		w.written = seq
		close(w.progress)
		w.progress = make(chan struct{})
		w.mu.Unlock()
	}
}

func (w *writer) flush(ctx context.Context) error {
	w.mu.Lock()
	target := w.scheduled
	for w.written < target {
		ch := w.progress
		w.mu.Unlock()
		select {
		case <-ch:
		case <-w.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
		w.mu.Lock()
	}
	w.mu.Unlock()
	return nil
}

// stop drains what is queued and waits for the writer to exit. When ctx
// ends first the in-flight save is cancelled and ctx.Err is returned.
func (w *writer) stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.quit)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		w.cancel()
		return nil
	case <-ctx.Done():
		w.cancel()
		return ctx.Err()
	}
}
