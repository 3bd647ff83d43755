package fanout

import "sync"

// Tracker exposes batch progress to a UI without coupling the pool to any
// rendering library. All methods are safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	total   int
	doneN   int
	failedN int
	current string
}

// NewTracker creates a tracker expecting total tasks.
func NewTracker(total int) *Tracker {
	return &Tracker{total: total}
}

func (t *Tracker) done(key string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.doneN++
	if !ok {
		t.failedN++
	}
	t.current = key
}

// Progress returns completed count, failed count, total, and the key of the
// most recently finished task.
func (t *Tracker) Progress() (done, failed, total int, current string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.doneN, t.failedN, t.total, t.current
}

// Fraction returns completion in [0, 1].
func (t *Tracker) Fraction() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.total == 0 {
		return 1
	}
	return float64(t.doneN) / float64(t.total)
}

// Finished reports whether every task has completed.
func (t *Tracker) Finished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.doneN >= t.total
}
