package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/panics"
)

type Options struct {
	// Size is the chunk size and the parallelism inside a chunk.
	Size int
	// Delay is the pause between two chunks.
	Delay time.Duration
}

// Outcome is the result of one item, reported at the item's input index.
type Outcome[R any] struct {
	Index int
	Value R
	Err   error
}

type Worker[T, R any] func(ctx context.Context, item T) (R, error)

// Chunks splits items into consecutive slices of at most size elements.
func Chunks[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}

// Run processes items chunk by chunk. Items of one chunk run concurrently and are
// awaited before the next chunk starts. Worker errors and panics are recorded on the
// item's outcome and never stop the run. Outcomes come back in input order.
//
// When ctx is cancelled, items not yet started get ctx.Err() as their outcome.
func Run[T, R any](ctx context.Context, items []T, opts Options, worker Worker[T, R]) []Outcome[R] {
	outcomes := make([]Outcome[R], len(items))
	for i := range outcomes {
		outcomes[i].Index = i
	}
	if len(items) == 0 {
		return outcomes
	}

	size := opts.Size
	if size < 1 {
		size = 1
	}

	pool, err := ants.NewPool(size)
	if err != nil {
		for i := range outcomes {
			outcomes[i].Err = fmt.Errorf("create worker pool: %w", err)
		}
		return outcomes
	}
	defer pool.Release()

	for start := 0; start < len(items); start += size {
		if start > 0 && opts.Delay > 0 {
			if err := wait(ctx, opts.Delay); err != nil {
				failFrom(outcomes, start, err)
				return outcomes
			}
		}
		if err := ctx.Err(); err != nil {
			failFrom(outcomes, start, err)
			return outcomes
		}

		end := start + size
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			idx := i
			wg.Add(1)
			if err := pool.Submit(func() {
				defer wg.Done()
				runOne(ctx, items[idx], worker, &outcomes[idx])
			}); err != nil {
				wg.Done()
				outcomes[idx].Err = fmt.Errorf("submit item %d to worker pool: %w", idx, err)
			}
		}
		wg.Wait()
	}

	return outcomes
}

// Failed counts outcomes carrying an error.
func Failed[R any](outcomes []Outcome[R]) int {
	count := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			count++
		}
	}
	return count
}

func runOne[T, R any](ctx context.Context, item T, worker Worker[T, R], out *Outcome[R]) {
	var catcher panics.Catcher
	catcher.Try(func() {
		out.Value, out.Err = worker(ctx, item)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		var zero R
		out.Value = zero
		out.Err = recovered.AsError()
	}
}

func failFrom[R any](outcomes []Outcome[R], start int, err error) {
	for i := start; i < len(outcomes); i++ {
		outcomes[i].Err = err
	}
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
