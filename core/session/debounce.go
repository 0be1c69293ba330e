package session

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet window applied to login and password reset events.
const DefaultDebounce = 100 * time.Millisecond

// Debouncer is a coalescing queue of capacity 1.
// Push replaces the pending value and restarts the delay; once the delay elapses
// without another Push, the handler is called with the latest value on its own goroutine.
type Debouncer[T any] struct {
	mu         sync.Mutex
	delay      time.Duration
	handler    func(T)
	timer      *time.Timer
	pending    T
	hasPending bool
	seq        uint64
	closed     bool
}

func NewDebouncer[T any](delay time.Duration, handler func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, handler: handler}
}

func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	d.pending = v
	d.hasPending = true
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	// a stale timer may fire after being replaced
	if d.closed || !d.hasPending || seq != d.seq {
		d.mu.Unlock()
		return
	}
	v := d.pending
	var zero T
	d.pending = zero
	d.hasPending = false
	d.mu.Unlock()

	d.handler(v)
}

// Pending reports whether a value is waiting for the delay to elapse.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hasPending
}

// Unsubscribe drops the pending value; later pushes are ignored.
func (d *Debouncer[T]) Unsubscribe() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	var zero T
	d.pending = zero
	d.hasPending = false
}
