package batch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunKeepsInputOrder(t *testing.T) {
	t.Parallel()

	items := []int{5, 4, 3, 2, 1, 0}
	outcomes := Run(context.Background(), items, Options{Size: 3}, func(_ context.Context, item int) (int, error) {
		time.Sleep(time.Duration(item) * time.Millisecond)
		return item * 10, nil
	})

	if len(outcomes) != len(items) {
		t.Fatalf("expected %d outcomes, got %d", len(items), len(outcomes))
	}
	for i, outcome := range outcomes {
		if outcome.Index != i || outcome.Value != items[i]*10 || outcome.Err != nil {
			t.Fatalf("unexpected outcome at %d: %+v", i, outcome)
		}
	}
}

func TestRunIsolatesErrorsAndPanics(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	items := []string{"ok", "err", "panic", "ok"}
	outcomes := Run(context.Background(), items, Options{Size: 2}, func(_ context.Context, item string) (string, error) {
		switch item {
		case "err":
			return "", boom
		case "panic":
			panic("worker exploded")
		default:
			return strings.ToUpper(item), nil
		}
	})

	if outcomes[0].Value != "OK" || outcomes[3].Value != "OK" {
		t.Fatalf("healthy items must complete: %+v", outcomes)
	}
	if !errors.Is(outcomes[1].Err, boom) {
		t.Fatalf("expected boom, got %v", outcomes[1].Err)
	}
	if outcomes[2].Err == nil || !strings.Contains(outcomes[2].Err.Error(), "worker exploded") {
		t.Fatalf("expected recovered panic, got %v", outcomes[2].Err)
	}
	if got := Failed(outcomes); got != 2 {
		t.Fatalf("expected 2 failures, got %d", got)
	}
}

func TestRunChunksAreSequentialWithBoundedParallelism(t *testing.T) {
	t.Parallel()

	var (
		inFlight atomic.Int32
		peak     atomic.Int32
		mu       sync.Mutex
		order    []int
	)
	items := []int{0, 1, 2, 3, 4, 5, 6}
	Run(context.Background(), items, Options{Size: 2, Delay: time.Millisecond}, func(_ context.Context, item int) (struct{}, error) {
		current := inFlight.Add(1)
		for {
			seen := peak.Load()
			if current <= seen || peak.CompareAndSwap(seen, current) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		mu.Lock()
		order = append(order, item/2)
		mu.Unlock()
		inFlight.Add(-1)
		return struct{}{}, nil
	})

	if peak.Load() > 2 {
		t.Fatalf("parallelism exceeded chunk size: %d", peak.Load())
	}
	for i := 1; i < len(order); i++ {
		if order[i] < order[i-1] {
			t.Fatalf("chunk %d finished after chunk %d started: %v", order[i], order[i-1], order)
		}
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := atomic.Int32{}
	outcomes := Run(ctx, []int{1, 2, 3}, Options{Size: 1, Delay: time.Hour}, func(_ context.Context, item int) (int, error) {
		calls.Add(1)
		cancel()
		return item, nil
	})

	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
	if outcomes[0].Err != nil {
		t.Fatalf("first item must succeed: %v", outcomes[0].Err)
	}
	if !errors.Is(outcomes[1].Err, context.Canceled) || !errors.Is(outcomes[2].Err, context.Canceled) {
		t.Fatalf("remaining items must report cancellation: %+v", outcomes)
	}
}

func TestChunks(t *testing.T) {
	t.Parallel()

	chunks := Chunks([]int{1, 2, 3, 4, 5}, 2)
	if len(chunks) != 3 || len(chunks[2]) != 1 {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
	if len(Chunks([]int{}, 3)) != 0 {
		t.Fatalf("expected no chunks for empty input")
	}
}
