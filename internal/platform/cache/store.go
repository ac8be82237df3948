package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/platform/metrics"
	"golang.org/x/sync/singleflight"
)

type entry struct {
	value     any
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(now)
}

type Option func(*Store)

// WithName labels the store's lookup metrics.
func WithName(name string) Option {
	return func(s *Store) { s.name = name }
}

// Store is an in-process TTL cache for read-side queries. Concurrent loads of one key run once.
// A non-positive ttl keeps entries until they are dropped by prefix.
type Store struct {
	name    string
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]entry
	flight  singleflight.Group
	now     func() time.Time
}

func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		name:    "default",
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Len reports the number of entries, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if e.expired(s.now()) {
		s.mu.Lock()
		if current, ok := s.entries[key]; ok && current.expired(s.now()) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}

	e := entry{value: value}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
}

// DeletePrefix drops every key under prefix; writers use it to invalidate a sport or tour.
func (s *Store) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
}

// GetOrLoad returns the cached value for key or stores what loader returns. Loader errors are not cached.
func (s *Store) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, errors.New("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}
	if value, ok := s.Get(ctx, key); ok {
		metrics.RecordCacheLookup(s.name, "hit")
		return value, nil
	}

	value, err, shared := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}
		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		s.Set(ctx, key, loaded)
		return loaded, nil
	})
	if shared {
		metrics.RecordCacheLookup(s.name, "shared")
	} else {
		metrics.RecordCacheLookup(s.name, "miss")
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}
