package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"holdings-pricer/internal/application"
	"holdings-pricer/internal/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSvc struct {
	mu     sync.Mutex
	calls  []bool
	err    error
	errs   []error
	block  chan struct{}
	panics bool
}

func (f *fakeSvc) RefreshAll(ctx context.Context, force bool) (domain.RefreshReport, error) {
	f.mu.Lock()
	f.calls = append(f.calls, force)
	block, panics, err := f.block, f.panics, f.err
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	f.mu.Unlock()
	if panics {
		panic("boom")
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return domain.RefreshReport{}, ctx.Err()
		}
	}
	return domain.RefreshReport{BatchID: "b"}, err
}

func (f *fakeSvc) Calls() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.calls...)
}

func TestQueue_CoalescesPendingRequests(t *testing.T) {
	q := NewQueue()
	require.False(t, q.Enqueue(RefreshRequest{}))
	require.True(t, q.Enqueue(RefreshRequest{Force: true}))
	require.True(t, q.Enqueue(RefreshRequest{}))
	require.True(t, q.Pending())

	req, ok := q.Next(context.Background())
	require.True(t, ok)
	require.True(t, req.Force, "force is sticky")
	require.False(t, q.Pending())

	require.False(t, q.Enqueue(RefreshRequest{}))
}

func TestQueue_NextHonoursContext(t *testing.T) {
	q := NewQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, ok := q.Next(ctx)
	require.False(t, ok)
}

func TestChanWorker_RunsQueuedRequests(t *testing.T) {
	svc := &fakeSvc{}
	q := NewQueue()
	w := NewChanWorker(svc, q, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { w.Start(ctx); close(done) }()

	q.Enqueue(RefreshRequest{Force: true})
	require.Eventually(t, func() bool { return len(svc.Calls()) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, []bool{true}, svc.Calls())

	cancel()
	<-done
}

func TestChanWorker_SurvivesPanicAndErrors(t *testing.T) {
	svc := &fakeSvc{panics: true}
	q := NewQueue()
	w := NewChanWorker(svc, q, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	q.Enqueue(RefreshRequest{})
	require.Eventually(t, func() bool { return len(svc.Calls()) == 1 }, time.Second, 5*time.Millisecond)

	svc.mu.Lock()
	svc.panics = false
	svc.err = application.ErrRefreshInProgress
	svc.mu.Unlock()
	q.Enqueue(RefreshRequest{})
	require.Eventually(t, func() bool { return len(svc.Calls()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestChanWorker_RetriesWhileBatchRunning(t *testing.T) {
	svc := &fakeSvc{errs: []error{application.ErrRefreshInProgress, application.ErrRefreshInProgress}}
	q := NewQueue()
	w := NewChanWorker(svc, q, time.Second)
	w.retryDelay = 5 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { w.Start(ctx); close(done) }()

	q.Enqueue(RefreshRequest{Force: true})
	require.Eventually(t, func() bool { return len(svc.Calls()) == 3 }, time.Second, 5*time.Millisecond)
	require.Equal(t, []bool{true, true, true}, svc.Calls())
	require.False(t, q.Pending())

	// nothing left to retry once the batch went through
	time.Sleep(30 * time.Millisecond)
	require.Len(t, svc.Calls(), 3)
	cancel()
	<-done
}

func TestChanWorker_TimeoutCancelsRun(t *testing.T) {
	svc := &fakeSvc{block: make(chan struct{})}
	q := NewQueue()
	w := NewChanWorker(svc, q, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	q.Enqueue(RefreshRequest{})
	require.Eventually(t, func() bool { return len(svc.Calls()) == 1 }, time.Second, 5*time.Millisecond)
	// a stuck run must not block the next one forever
	q.Enqueue(RefreshRequest{})
	require.Eventually(t, func() bool { return len(svc.Calls()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestTickWorker(t *testing.T) {
	svc := &fakeSvc{}
	w := &TickWorker{Svc: svc, Every: 10 * time.Millisecond, RunOnStart: true}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { w.Start(ctx); close(done) }()

	require.Eventually(t, func() bool { return len(svc.Calls()) >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	for _, force := range svc.Calls() {
		require.False(t, force)
	}
}

func TestTickWorker_DisabledReturnsImmediately(t *testing.T) {
	w := &TickWorker{Svc: &fakeSvc{}}
	done := make(chan struct{})
	go func() { w.Start(context.Background()); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled worker did not return")
	}
}

func TestTickWorker_LogEvents(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc := &fakeSvc{errs: []error{application.ErrRefreshInProgress}}
	w := &TickWorker{Svc: svc, Every: 10 * time.Millisecond, RunOnStart: true, Log: zap.New(core)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { w.Start(ctx); close(done) }()

	require.Eventually(t, func() bool { return len(svc.Calls()) >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	require.Equal(t, 1, logs.FilterMessage("tick_worker.started").Len())
	require.Equal(t, 1, logs.FilterMessage("tick_worker.skipped_in_progress").Len())
	require.GreaterOrEqual(t, logs.FilterMessage("tick_worker.refresh_done").Len(), 1)
	require.Equal(t, 1, logs.FilterMessage("tick_worker.stopped").Len())
}
