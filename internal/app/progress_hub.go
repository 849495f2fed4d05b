package app

import "sync"

// ProgressHub fans out "progress changed" signals to live dashboard
// subscribers of one student. Signals carry no payload: a subscriber reloads
// the snapshot, so a slow reader only ever misses redundant signals.
type ProgressHub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan struct{}]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{subscribers: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe registers for a student's signals.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *ProgressHub) Subscribe(studentID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	subs, ok := h.subscribers[studentID]
	if !ok {
		subs = make(map[chan struct{}]struct{})
		h.subscribers[studentID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs, ok := h.subscribers[studentID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(h.subscribers, studentID)
		}
	}
	return ch, cancel
}

// Publish wakes every subscriber of studentID without blocking.
func (h *ProgressHub) Publish(studentID string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[studentID] {
		select {
		case ch <- struct{}{}:
		default:
			// a signal is already pending
		}
	}
}

// Subscribers reports how many live feeds a student has open.
func (h *ProgressHub) Subscribers(studentID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[studentID])
}
