// Package persist holds the persistence plumbing shared by the ledgers and the
// daily aggregate: a debounced writer and tolerant JSON load/save helpers.
package persist

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is the quiet period before a scheduled write runs.
const DefaultDelay = 500 * time.Millisecond

// WriteTimeout bounds a single background write.
const WriteTimeout = 5 * time.Second

// WriteFunc performs one write. It should read the owner's latest state when
// it runs, not when it was scheduled.
type WriteFunc func(ctx context.Context)

// Debouncer coalesces bursts of Schedule calls into a single write that runs
// once no new call arrived for the configured delay. At most one timer is
// armed at any time and writes never overlap.
type Debouncer struct {
	// writeMu is held while a write runs.
	writeMu sync.Mutex

	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending WriteFunc
	gen     uint64
	stopped bool
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay < 0 {
		delay = 0
	}
	return &Debouncer{delay: delay}
}

// Schedule cancels any armed timer and arms a new one for fn.
func (d *Debouncer) Schedule(fn WriteFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = fn
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	fn := d.takeLocked(gen)
	d.mu.Unlock()
	if fn == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), WriteTimeout)
	defer cancel()
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	fn(ctx)
}

// takeLocked claims the pending write if it still belongs to generation gen.
func (d *Debouncer) takeLocked(gen uint64) WriteFunc {
	if gen != d.gen || d.pending == nil {
		return nil
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	return fn
}

// Pending reports whether a write is armed and has not run yet.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Flush runs the pending write immediately on the caller's goroutine and
// waits for a timer write that is already running. It returns false when
// nothing was pending.
func (d *Debouncer) Flush(ctx context.Context) bool {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	fn := d.takeLocked(d.gen)
	d.mu.Unlock()

	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	if fn == nil {
		return false
	}
	fn(ctx)
	return true
}

// Stop disarms the timer and drops the pending write. Later Schedule calls
// are ignored. It reports whether a write was dropped.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	dropped := d.pending != nil
	d.pending = nil
	return dropped
}
