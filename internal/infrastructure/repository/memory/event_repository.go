package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/event"
)

type EventRepository struct {
	mu     sync.RWMutex
	events map[string]event.Event
	now    func() time.Time
}

func NewEventRepository() *EventRepository {
	return &EventRepository{
		events: make(map[string]event.Event),
		now:    time.Now,
	}
}

// UpsertMany replaces each event wholesale; an unchanged payload hash keeps the previous UpdatedAt.
func (r *EventRepository) UpsertMany(_ context.Context, items []event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	for _, item := range items {
		if existing, ok := r.events[item.ID]; ok && existing.PayloadHash == item.PayloadHash && existing.Status == item.Status {
			item.UpdatedAt = existing.UpdatedAt
		} else {
			item.UpdatedAt = now
		}
		r.events[item.ID] = item
	}
	return nil
}

func (r *EventRepository) ListByTour(_ context.Context, tour, fromDate, toDate string) ([]event.Event, error) {
	return r.filter(func(item event.Event) bool {
		if item.Tour != tour {
			return false
		}
		if fromDate != "" && item.EventDate < fromDate {
			return false
		}
		if toDate != "" && item.EventDate > toDate {
			return false
		}
		return true
	}), nil
}

func (r *EventRepository) ListLive(_ context.Context, tour string) ([]event.Event, error) {
	return r.filter(func(item event.Event) bool {
		return item.Tour == tour && item.Status.IsLive()
	}), nil
}

func (r *EventRepository) filter(keep func(event.Event) bool) []event.Event {
	r.mu.RLock()
	out := make([]event.Event, 0)
	for _, item := range r.events {
		if keep(item) {
			out = append(out, item)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EventDate != out[j].EventDate {
			return out[i].EventDate < out[j].EventDate
		}
		return out[i].ID < out[j].ID
	})
	return out
}
