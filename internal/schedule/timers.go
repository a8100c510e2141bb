// Package schedule provides the cancellable delayed-task primitive used for
// quiet-hours deferral and snooze re-delivery. Handles are retained per alert
// id so a dismiss can reliably cancel a pending task before it fires.
package schedule

import (
	"sync"
	"time"
)

type TimerSet struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewTimerSet() *TimerSet {
	return &TimerSet{timers: make(map[string]*time.Timer)}
}

// Arm schedules fn to run after d, keyed by id. An already-armed task for the
// same id is cancelled and replaced; at most one task per id is ever pending.
func (ts *TimerSet) Arm(id string, d time.Duration, fn func()) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if t, ok := ts.timers[id]; ok {
		t.Stop()
	}
	ts.timers[id] = time.AfterFunc(d, func() {
		ts.mu.Lock()
		delete(ts.timers, id)
		ts.mu.Unlock()
		fn()
	})
}

// Cancel stops the pending task for id, reporting whether one was armed.
func (ts *TimerSet) Cancel(id string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t, ok := ts.timers[id]
	if !ok {
		return false
	}
	t.Stop()
	delete(ts.timers, id)
	return ok
}

// Armed reports whether a task is pending for id.
func (ts *TimerSet) Armed(id string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	_, ok := ts.timers[id]
	return ok
}

// CancelAll stops every pending task; used on shutdown.
func (ts *TimerSet) CancelAll() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for id, t := range ts.timers {
		t.Stop()
		delete(ts.timers, id)
	}
}
