package application

import "context"

// Worker drives refresh batches in the background.
// Implementations must run until the context is canceled.
type Worker interface {
	Start(ctx context.Context)
}
