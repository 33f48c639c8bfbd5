package worker

import (
	"context"
	"sync"
	"time"
)

// RefreshRequest asks the refresh worker for one batch.
type RefreshRequest struct {
	Force       bool
	TraceID     string
	RequestedAt time.Time
}

// Queue is a single-slot trigger queue. A request arriving while another
// one is still pending is folded into it; Force is sticky.
type Queue struct {
	mu      sync.Mutex
	pending *RefreshRequest
	signal  chan struct{}
}

func NewQueue() *Queue {
	return &Queue{signal: make(chan struct{}, 1)}
}

// Enqueue reports whether req was merged into an already pending request.
func (q *Queue) Enqueue(req RefreshRequest) (coalesced bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending != nil {
		q.pending.Force = q.pending.Force || req.Force
		return true
	}
	q.pending = &req
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return false
}

// Next blocks until a request is pending or ctx is done.
func (q *Queue) Next(ctx context.Context) (RefreshRequest, bool) {
	for {
		select {
		case <-ctx.Done():
			return RefreshRequest{}, false
		case <-q.signal:
		}
		q.mu.Lock()
		req := q.pending
		q.pending = nil
		q.mu.Unlock()
		if req != nil {
			return *req, true
		}
	}
}

func (q *Queue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending != nil
}
