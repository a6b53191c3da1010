package resilience

import "sync"

// slidingWindow is a count-based ring of the most recent call outcomes.
// Every reset starts a new epoch; outcomes of calls admitted in an earlier
// epoch are dropped so a slow call cannot leak into the state that replaced
// the one it started in.
type slidingWindow struct {
	mu       sync.Mutex
	outcomes []bool // true marks a fault
	next     int
	filled   int
	faults   int
	epoch    uint64
}

func newSlidingWindow(size int) *slidingWindow {
	return &slidingWindow{outcomes: make([]bool, size)}
}

// current returns the epoch a call being admitted now belongs to.
func (w *slidingWindow) current() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.epoch
}

// recordIn adds an outcome observed by a call admitted in epoch. It reports
// false and records nothing when the window was reset since.
func (w *slidingWindow) recordIn(epoch uint64, fault bool) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if epoch != w.epoch {
		return false
	}
	if w.filled == len(w.outcomes) {
		if w.outcomes[w.next] {
			w.faults--
		}
	} else {
		w.filled++
	}
	w.outcomes[w.next] = fault
	if fault {
		w.faults++
	}
	w.next = (w.next + 1) % len(w.outcomes)
	return true
}

// snapshot returns how many outcomes the window holds and how many were faults.
func (w *slidingWindow) snapshot() (calls, faults int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.filled, w.faults
}

func (w *slidingWindow) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.outcomes {
		w.outcomes[i] = false
	}
	w.next, w.filled, w.faults = 0, 0, 0
	w.epoch++
}
