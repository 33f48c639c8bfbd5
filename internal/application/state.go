package application

import (
	"sync"

	"holdings-pricer/internal/domain"
)

// StateHub holds the current RefreshState and fans every change out to
// subscribers. Each subscriber channel buffers one value and keeps only the
// latest, so a slow observer never stalls a refresh.
type StateHub struct {
	mu    sync.Mutex
	state domain.RefreshState
	subs  map[int]chan domain.RefreshState
	next  int
}

func NewStateHub() *StateHub {
	return &StateHub{subs: map[int]chan domain.RefreshState{}}
}

func (h *StateHub) Snapshot() domain.RefreshState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Update applies fn to the state under the hub lock and publishes the result.
func (h *StateHub) Update(fn func(s *domain.RefreshState)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(&h.state)
	for _, ch := range h.subs {
		publish(ch, h.state)
	}
}

// Subscribe returns a channel that immediately holds the current state.
// cancel unregisters and closes the channel.
func (h *StateHub) Subscribe() (<-chan domain.RefreshState, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan domain.RefreshState, 1)
	ch <- h.state
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func publish(ch chan domain.RefreshState, s domain.RefreshState) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		// drop the stale value and retry
		select {
		case <-ch:
		default:
		}
	}
}
