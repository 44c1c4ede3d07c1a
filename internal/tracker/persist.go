package tracker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Tiliavir/trivial-sleep-tracker/internal/storage"
)

// persister writes state blobs to the store on a background goroutine.
// Only the newest pending blob is kept; an unwritten older one is dropped.
type persister struct {
	store  storage.Store
	key    string
	logger *slog.Logger

	kick chan struct{}
	quit chan struct{}
	done chan struct{}
	errs chan error

	mu      sync.Mutex
	pending []byte
	queued  uint64 // sequence of the newest enqueued blob
	written uint64 // sequence of the newest attempted blob
	lastErr error
	changed chan struct{} // closed and replaced after every attempt
	closed  bool
}

func newPersister(store storage.Store, key string, logger *slog.Logger) *persister {
	p := &persister{
		store:   store,
		key:     key,
		logger:  logger,
		kick:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		errs:    make(chan error, 8),
		changed: make(chan struct{}),
	}
	go p.run()
	return p
}

// enqueue schedules data to be written. It never blocks.
func (p *persister) enqueue(data []byte) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.Warn("state change not persisted, repository closed", "key", p.key)
		return
	}
	p.pending = data
	p.queued++
	p.mu.Unlock()

	select {
	case p.kick <- struct{}{}:
	default:
	}
}

func (p *persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.kick:
			p.writePending()
		case <-p.quit:
			p.writePending()
			return
		}
	}
}

func (p *persister) writePending() {
	p.mu.Lock()
	data, seq := p.pending, p.queued
	p.pending = nil
	p.mu.Unlock()
	if data == nil {
		return
	}

	err := p.store.Set(context.Background(), p.key, data)
	if err != nil {
		p.logger.Error("persisting sleep state failed", "key", p.key, "error", err)
		select {
		case p.errs <- err:
		default:
		}
	} else {
		p.logger.Debug("sleep state persisted", "key", p.key, "bytes", len(data))
	}

	p.mu.Lock()
	p.written = seq
	p.lastErr = err
	close(p.changed)
	p.changed = make(chan struct{})
	p.mu.Unlock()
}

// flush waits until every blob enqueued before the call has been attempted
// and returns the error of the newest attempt.
func (p *persister) flush(ctx context.Context) error {
	p.mu.Lock()
	target := p.queued
	p.mu.Unlock()

	for {
		p.mu.Lock()
		if p.written >= target {
			err := p.lastErr
			p.mu.Unlock()
			return err
		}
		changed := p.changed
		p.mu.Unlock()

		select {
		case <-changed:
		case <-p.done:
			p.mu.Lock()
			err := p.lastErr
			p.mu.Unlock()
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// close writes any pending blob and stops the goroutine.
func (p *persister) close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.quit)
	select {
	case <-p.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}
