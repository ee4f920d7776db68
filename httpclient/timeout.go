package httpclient

import (
	"context"
	"time"
)

// WithTimeout runs op in its own goroutine and races it against a timer of d.
// The first of the two wins: op's result, or a TimeoutError. The loser is not
// awaited. The context handed to op is cancelled once the race resolves, so
// an abandoned transport call is aborted instead of running on.
//
// If ctx ends first the result is a NetworkError wrapping ctx.Err().
// A non-positive d runs op directly with no deadline.
func WithTimeout[T any](ctx context.Context, d time.Duration, op func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return op(ctx)
	}

	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	// buffered so the losing goroutine can always deliver and exit
	done := make(chan result, 1)
	go func() {
		v, err := op(attemptCtx)
		done <- result{value: v, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	var zero T
	select {
	case r := <-done:
		return r.value, r.err
	case <-timer.C:
		return zero, NewTimeoutError("request timed out", d)
	case <-ctx.Done():
		return zero, NewNetworkError("request cancelled", ctx.Err())
	}
}
