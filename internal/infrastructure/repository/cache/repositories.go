package cache

import (
	"context"
	"strconv"
	"strings"

	"github.com/riskibarqy/matchday-sync/internal/domain/event"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	basecache "github.com/riskibarqy/matchday-sync/internal/platform/cache"
)

// FixtureRepository caches the read-side listings. Sync-side reads pass through so the
// overlay and the reconciler always see stored state; every write drops the sport's entries.
type FixtureRepository struct {
	next  fixture.Repository
	cache *basecache.Store
}

func NewFixtureRepository(next fixture.Repository, cache *basecache.Store) *FixtureRepository {
	return &FixtureRepository{next: next, cache: cache}
}

func (r *FixtureRepository) ListByDate(ctx context.Context, sportType, matchDate string) ([]fixture.Fixture, error) {
	key := fixturePrefix(sportType) + "date:" + matchDate
	return r.loadList(ctx, key, func(ctx context.Context) ([]fixture.Fixture, error) {
		return r.next.ListByDate(ctx, sportType, matchDate)
	})
}

func (r *FixtureRepository) ListByTeam(ctx context.Context, sportType string, teamID int64, limit int) ([]fixture.Fixture, error) {
	key := fixturePrefix(sportType) + "team:" + strconv.FormatInt(teamID, 10) + ":" + strconv.Itoa(limit)
	return r.loadList(ctx, key, func(ctx context.Context) ([]fixture.Fixture, error) {
		return r.next.ListByTeam(ctx, sportType, teamID, limit)
	})
}

func (r *FixtureRepository) ListByLeagueAndDate(ctx context.Context, sportType, leagueCode, matchDate string) ([]fixture.Fixture, error) {
	return r.next.ListByLeagueAndDate(ctx, sportType, leagueCode, matchDate)
}

func (r *FixtureRepository) ListLiveByDates(ctx context.Context, sportType string, matchDates []string) ([]fixture.Fixture, error) {
	return r.next.ListLiveByDates(ctx, sportType, matchDates)
}

func (r *FixtureRepository) ListFinishedWithoutDetails(ctx context.Context, sportType, matchDate string, limit int) ([]fixture.Fixture, error) {
	return r.next.ListFinishedWithoutDetails(ctx, sportType, matchDate, limit)
}

func (r *FixtureRepository) UpsertBatch(ctx context.Context, items []fixture.Fixture) error {
	err := r.next.UpsertBatch(ctx, items)
	sports := make(map[string]struct{}, 1)
	for _, item := range items {
		sports[item.SportType] = struct{}{}
	}
	for sport := range sports {
		r.cache.DeletePrefix(ctx, fixturePrefix(sport))
	}
	return err
}

func (r *FixtureRepository) ApplyLiveUpdate(ctx context.Context, update fixture.LiveUpdate) (bool, error) {
	applied, err := r.next.ApplyLiveUpdate(ctx, update)
	if applied {
		r.cache.DeletePrefix(ctx, fixturePrefix(update.Key.SportType))
	}
	return applied, err
}

func (r *FixtureRepository) MarkFinished(ctx context.Context, keys []fixture.Key) (int, error) {
	count, err := r.next.MarkFinished(ctx, keys)
	if count > 0 {
		for _, key := range keys {
			r.cache.DeletePrefix(ctx, fixturePrefix(key.SportType))
		}
	}
	return count, err
}

func (r *FixtureRepository) SetMatchDetails(ctx context.Context, key fixture.Key, details []byte) error {
	err := r.next.SetMatchDetails(ctx, key, details)
	r.cache.DeletePrefix(ctx, fixturePrefix(key.SportType))
	return err
}

func (r *FixtureRepository) loadList(ctx context.Context, key string, load func(context.Context) ([]fixture.Fixture, error)) ([]fixture.Fixture, error) {
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return append([]fixture.Fixture(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]fixture.Fixture)
	return append([]fixture.Fixture(nil), items...), nil
}

func fixturePrefix(sportType string) string {
	return "fixture:" + strings.ToLower(strings.TrimSpace(sportType)) + ":"
}

type EventRepository struct {
	next  event.Repository
	cache *basecache.Store
}

func NewEventRepository(next event.Repository, cache *basecache.Store) *EventRepository {
	return &EventRepository{next: next, cache: cache}
}

func (r *EventRepository) ListByTour(ctx context.Context, tour, fromDate, toDate string) ([]event.Event, error) {
	key := eventPrefix(tour) + fromDate + ":" + toDate
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByTour(ctx, tour, fromDate, toDate)
		if err != nil {
			return nil, err
		}
		return append([]event.Event(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]event.Event)
	return append([]event.Event(nil), items...), nil
}

func (r *EventRepository) ListLive(ctx context.Context, tour string) ([]event.Event, error) {
	return r.next.ListLive(ctx, tour)
}

func (r *EventRepository) UpsertMany(ctx context.Context, items []event.Event) error {
	err := r.next.UpsertMany(ctx, items)
	tours := make(map[string]struct{}, 1)
	for _, item := range items {
		tours[item.Tour] = struct{}{}
	}
	for tour := range tours {
		r.cache.DeletePrefix(ctx, eventPrefix(tour))
	}
	return err
}

func eventPrefix(tour string) string {
	return "event:" + strings.ToLower(strings.TrimSpace(tour)) + ":"
}
