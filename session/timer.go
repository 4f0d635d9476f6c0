package session

import (
	"sync"
	"time"
)

// Timer is a one-shot cancellable timer. Scheduling replaces any pending
// callback, so at most one is ever armed. Implementations other than the
// real one exist so tests can fire the callback deterministically.
type Timer interface {
	// Schedule cancels any pending callback and arms fn after d.
	Schedule(d time.Duration, fn func())

	// Cancel drops the pending callback, if any.
	Cancel()
}

type realTimer struct {
	mu    sync.Mutex
	timer *time.Timer
}

// NewTimer returns a Timer backed by the runtime clock.
func NewTimer() Timer {
	return &realTimer{}
}

func (t *realTimer) Schedule(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(d, fn)
}

func (t *realTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
