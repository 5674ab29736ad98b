// Package batch runs a fixed set of indexed tasks concurrently and collects
// results back into submission order.
package batch

import (
	"context"
	"fmt"
)

// IndexedError reports which task in a batch failed.
type IndexedError struct {
	Index int
	Err   error
}

func (e *IndexedError) Error() string {
	return fmt.Sprintf("task %d: %v", e.Index, e.Err)
}

func (e *IndexedError) Unwrap() error {
	return e.Err
}

type indexed[T any] struct {
	index int
	value T
	err   error
}

// Run executes fn for each index in [0, n) concurrently and returns the
// results in index order. Every task is allowed to finish before Run
// returns; completion order does not matter because each result carries its
// index. The first failure (lowest drain position, any index) is returned as
// an IndexedError and the partial results are discarded.
//
// Run does not cap concurrency. Callers submit bounded batches and the
// providers behind fn enforce their own limits.
func Run[T any](ctx context.Context, n int, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	if n == 0 {
		return nil, nil
	}

	results := make(chan indexed[T], n)
	for i := 0; i < n; i++ {
		go func(i int) {
			value, err := fn(ctx, i)
			results <- indexed[T]{index: i, value: value, err: err}
		}(i)
	}

	out := make([]T, n)
	filled := make([]bool, n)
	var firstErr error
	for i := 0; i < n; i++ {
		r := <-results
		if r.err != nil {
			if firstErr == nil {
				firstErr = &IndexedError{Index: r.index, Err: r.err}
			}
			continue
		}
		out[r.index] = r.value
		filled[r.index] = true
	}
	if firstErr != nil {
		return nil, firstErr
	}

	for i, ok := range filled {
		if !ok {
			return nil, fmt.Errorf("batch: task %d never reported a result", i)
		}
	}
	return out, nil
}
