package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
)

// FixtureRepository keeps the fixture cache in process, keyed like the SQL table.
type FixtureRepository struct {
	mu    sync.RWMutex
	items map[fixture.Key]fixture.Fixture
	now   func() time.Time
}

func NewFixtureRepository(seed []fixture.Fixture) *FixtureRepository {
	r := &FixtureRepository{
		items: make(map[fixture.Key]fixture.Fixture, len(seed)),
		now:   time.Now,
	}
	for _, item := range seed {
		r.items[item.Key()] = item
	}
	return r
}

// SetClock overrides the UpdatedAt source.
func (r *FixtureRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *FixtureRepository) UpsertBatch(_ context.Context, items []fixture.Fixture) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	for _, item := range items {
		if existing, ok := r.items[item.Key()]; ok && len(item.MatchDetails) == 0 {
			item.MatchDetails = existing.MatchDetails
		}
		item.UpdatedAt = now
		r.items[item.Key()] = item
	}
	return nil
}

func (r *FixtureRepository) ListByDate(_ context.Context, sportType, matchDate string) ([]fixture.Fixture, error) {
	return r.filter(func(item fixture.Fixture) bool {
		return item.SportType == sportType && item.MatchDate == matchDate
	}, 0), nil
}

func (r *FixtureRepository) ListByTeam(_ context.Context, sportType string, teamID int64, limit int) ([]fixture.Fixture, error) {
	return r.filter(func(item fixture.Fixture) bool {
		return item.SportType == sportType && (item.Home.TeamID == teamID || item.Away.TeamID == teamID)
	}, limit), nil
}

func (r *FixtureRepository) ListByLeagueAndDate(_ context.Context, sportType, leagueCode, matchDate string) ([]fixture.Fixture, error) {
	return r.filter(func(item fixture.Fixture) bool {
		return item.SportType == sportType && item.LeagueCode == leagueCode && item.MatchDate == matchDate
	}, 0), nil
}

func (r *FixtureRepository) ListLiveByDates(_ context.Context, sportType string, matchDates []string) ([]fixture.Fixture, error) {
	dates := make(map[string]struct{}, len(matchDates))
	for _, date := range matchDates {
		dates[date] = struct{}{}
	}
	return r.filter(func(item fixture.Fixture) bool {
		_, ok := dates[item.MatchDate]
		return ok && item.SportType == sportType && item.Status.IsLive()
	}, 0), nil
}

func (r *FixtureRepository) ListFinishedWithoutDetails(_ context.Context, sportType, matchDate string, limit int) ([]fixture.Fixture, error) {
	return r.filter(func(item fixture.Fixture) bool {
		return item.SportType == sportType && item.MatchDate == matchDate &&
			item.Status.IsFinished() && len(item.MatchDetails) == 0
	}, limit), nil
}

func (r *FixtureRepository) ApplyLiveUpdate(_ context.Context, update fixture.LiveUpdate) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[update.Key]
	if !ok || item.Status.IsFinished() {
		return false, nil
	}
	item.Status = update.Status
	item.Minute = update.Minute
	item.Home.Score = update.HomeScore
	item.Away.Score = update.AwayScore
	item.UpdatedAt = r.now().UTC()
	r.items[update.Key] = item
	return true, nil
}

func (r *FixtureRepository) MarkFinished(_ context.Context, keys []fixture.Key) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	now := r.now().UTC()
	for _, key := range keys {
		item, ok := r.items[key]
		if !ok || !item.Status.IsLive() {
			continue
		}
		item.Status = fixture.StatusFinished
		item.Minute = nil
		item.UpdatedAt = now
		r.items[key] = item
		count++
	}
	return count, nil
}

func (r *FixtureRepository) SetMatchDetails(_ context.Context, key fixture.Key, details []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[key]
	if !ok {
		return nil
	}
	item.MatchDetails = append([]byte(nil), details...)
	r.items[key] = item
	return nil
}

// Get returns a single row; used by tests.
func (r *FixtureRepository) Get(key fixture.Key) (fixture.Fixture, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[key]
	return item, ok
}

func (r *FixtureRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *FixtureRepository) filter(keep func(fixture.Fixture) bool, limit int) []fixture.Fixture {
	r.mu.RLock()
	out := make([]fixture.Fixture, 0)
	for _, item := range r.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Kickoff.Equal(out[j].Kickoff) {
			return out[i].Kickoff.Before(out[j].Kickoff)
		}
		return out[i].ProviderID < out[j].ProviderID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
