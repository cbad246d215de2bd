package app

import (
	"context"
	"fmt"
)

// Result holds the single outcome of an asynchronous call.
type Result[T any] struct {
	Value T
	Err   error
}

// Async runs fn on its own goroutine and delivers exactly one Result on the
// returned channel, which is then closed. The channel is buffered, so the
// goroutine finishes even if nobody ever receives: callers may stop waiting
// on ctx.Done without leaking it. A panic in fn is delivered as an error.
//
// Example:
//
//	select {
//	case res := <-Async(ctx, fetcher.FetchRandomQuote):
//	    ...
//	case <-ctx.Done():
//	}
func Async[T any](ctx context.Context, fn func(context.Context) (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 1)

	go func() {
		defer close(out)

		var res Result[T]

		defer func() {
			if r := recover(); r != nil {
				res = Result[T]{Err: fmt.Errorf("async call panicked: %v", r)}
			}

			out <- res
		}()

		res.Value, res.Err = fn(ctx)
	}()

	return out
}
