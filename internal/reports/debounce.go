package reports

import (
	"sync"
	"sync/atomic"
	"time"
)

// DebounceDelay is the quiet period between a filter change and the refetch
// it triggers.
const DebounceDelay = 300 * time.Millisecond

// Debouncer delays a function call until a quiet period elapses after the
// last trigger. Each Trigger replaces any pending call.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the debounce delay, cancelling any pending call.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// sequence hands out monotonic fetch tokens. A response is applied only when
// its token is still the latest issued, so an overlapping refetch triggered
// by a newer filter change always wins regardless of response order.
type sequence struct {
	n atomic.Uint64
}

func (s *sequence) next() uint64 {
	return s.n.Add(1)
}

func (s *sequence) latest(token uint64) bool {
	return s.n.Load() == token
}
