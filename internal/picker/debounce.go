package picker

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultQuietPeriod keeps outbound lookups at or below one per second.
const DefaultQuietPeriod = time.Second

// Debouncer is a trailing-edge, last-value-wins funnel. Each Push restarts the
// quiet-period timer; only the value held when the timer elapses is forwarded.
// Intermediate values are dropped, never queued.
type Debouncer[T any] struct {
	clock clockwork.Clock
	quiet time.Duration
	fire  func(T)

	mu      sync.Mutex
	timer   clockwork.Timer
	pending T
	armed   bool
	seq     uint64
	stopped bool
}

// NewDebouncer creates a Debouncer that calls fire after quiet has elapsed
// without a newer Push.
func NewDebouncer[T any](clock clockwork.Clock, quiet time.Duration, fire func(T)) *Debouncer[T] {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Debouncer[T]{
		clock: clock,
		quiet: quiet,
		fire:  fire,
	}
}

// Push replaces the pending value with v and restarts the timer.
// Pushes after Stop are ignored.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = v
	d.armed = true
	d.timer = d.clock.AfterFunc(d.quiet, func() { d.expire(seq) })
}

// Pending returns the value waiting for the timer, if any.
func (d *Debouncer[T]) Pending() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending, d.armed
}

// Stop cancels the pending timer. No forward happens after Stop returns.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.clearPending()
}

func (d *Debouncer[T]) expire(seq uint64) {
	d.mu.Lock()
	// A newer Push or a Stop raced with this timer.
	if d.stopped || seq != d.seq || !d.armed {
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.timer = nil
	d.clearPending()
	// fire runs under the lock so Stop cannot return while a forward is still
	// being handed off. fire must not call back into the Debouncer.
	d.fire(v)
	d.mu.Unlock()
}

func (d *Debouncer[T]) clearPending() {
	var zero T
	d.pending = zero
	d.armed = false
}
