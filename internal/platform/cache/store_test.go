package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/riskibarqy/matchday-sync/internal/platform/metrics"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "same-key", loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "value" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_UsesCachedValueAfterFirstLoad(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		return "cached", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("first GetOrLoad error: %v", err)
	}
	if _, err := store.GetOrLoad(context.Background(), "k", loader); err != nil {
		t.Fatalf("second GetOrLoad error: %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_ExpiresEntriesAfterTTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 8, 16, 12, 0, 0, 0, time.UTC)
	store := NewStore(time.Minute)
	store.now = func() time.Time { return now }

	store.Set(context.Background(), "fixtures:football:2025-08-16", 3)
	if _, ok := store.Get(context.Background(), "fixtures:football:2025-08-16"); !ok {
		t.Fatalf("expected fresh entry")
	}

	now = now.Add(61 * time.Second)
	if _, ok := store.Get(context.Background(), "fixtures:football:2025-08-16"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	store.Set(context.Background(), "fixtures:football:date:2025-08-16", 1)
	store.Set(context.Background(), "fixtures:football:team:57", 2)
	store.Set(context.Background(), "events:golf:pga", 3)

	store.DeletePrefix(context.Background(), "fixtures:football:")
	if store.Len() != 1 {
		t.Fatalf("expected only golf entry to remain, got %d", store.Len())
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute, WithName("test"))
	boom := errors.New("db down")
	if _, err := store.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}

	v, err := store.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Fatalf("expected reload after error, got %v %v", v, err)
	}

	before := testutil.ToFloat64(metrics.CacheLookupsTotal.WithLabelValues("test", "hit"))
	if _, err := store.GetOrLoad(context.Background(), "k", nil); err == nil {
		t.Fatalf("expected error for nil loader")
	}
	if _, err := store.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) { return "unused", nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after := testutil.ToFloat64(metrics.CacheLookupsTotal.WithLabelValues("test", "hit")); after-before != 1 {
		t.Fatalf("expected one hit recorded, got %v", after-before)
	}
}

func TestStore_ZeroTTLKeepsEntries(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	store.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }
	store.Set(context.Background(), "k", 1)
	if _, ok := store.Get(context.Background(), "k"); !ok {
		t.Fatalf("expected entry without ttl to persist")
	}
}
