package application

import "context"

// RefreshLock excludes overlapping refresh batches across processes that
// share one provider quota.
type RefreshLock interface {
	// TryAcquire returns ok=false if another holder owns key.
	// release must be called once the batch is done.
	TryAcquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// NoopLock always succeeds; used when a single process talks to the provider.
type NoopLock struct{}

func (NoopLock) TryAcquire(context.Context, string) (func(), bool, error) {
	return func() {}, true, nil
}
