package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/event"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
)

const (
	defaultFreshnessWindow = 60 * time.Second
	defaultTeamLimit       = 20
	maxTeamLimit           = 100
)

// Freshness tells readers whether cached rows can be shown as current.
type Freshness struct {
	Fresh         bool       `json:"fresh"`
	LastUpdatedAt *time.Time `json:"last_updated_at,omitempty"`
}

type FixtureRow struct {
	fixture.Fixture
	Fresh bool
}

type FixtureList struct {
	Items     []FixtureRow
	Freshness Freshness
}

type EventRow struct {
	event.Event
	Fresh bool
}

type EventList struct {
	Items     []EventRow
	Freshness Freshness
}

// QueryService is the read side over the cache.
type QueryService struct {
	fixtures fixture.Repository
	events   event.Repository
	window   time.Duration
	loc      *time.Location
	now      func() time.Time
}

func NewQueryService(fixtures fixture.Repository, events event.Repository, window time.Duration, loc *time.Location) *QueryService {
	if window <= 0 {
		window = defaultFreshnessWindow
	}
	if loc == nil {
		loc = time.UTC
	}
	return &QueryService{
		fixtures: fixtures,
		events:   events,
		window:   window,
		loc:      loc,
		now:      time.Now,
	}
}

func (s *QueryService) ListFixturesByDate(ctx context.Context, sport, date string) (FixtureList, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.ListFixturesByDate")
	defer span.End()

	sport = fixture.NormalizeSport(sport)
	date = strings.TrimSpace(date)
	if date == "" {
		date = s.now().In(s.loc).Format(referenceDateLayout)
	}
	if _, err := time.Parse(referenceDateLayout, date); err != nil {
		return FixtureList{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}

	items, err := s.fixtures.ListByDate(ctx, sport, date)
	if err != nil {
		return FixtureList{}, fmt.Errorf("list fixtures sport=%s date=%s: %w", sport, date, err)
	}
	return s.fixtureList(items), nil
}

func (s *QueryService) ListFixturesByTeam(ctx context.Context, sport string, teamID int64, limit int) (FixtureList, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.ListFixturesByTeam")
	defer span.End()

	sport = fixture.NormalizeSport(sport)
	if teamID <= 0 {
		return FixtureList{}, fmt.Errorf("%w: team id must be greater than zero", ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultTeamLimit
	}
	if limit > maxTeamLimit {
		limit = maxTeamLimit
	}

	items, err := s.fixtures.ListByTeam(ctx, sport, teamID, limit)
	if err != nil {
		return FixtureList{}, fmt.Errorf("list fixtures sport=%s team=%d: %w", sport, teamID, err)
	}
	return s.fixtureList(items), nil
}

func (s *QueryService) ListGolfEvents(ctx context.Context, tour, from, to string) (EventList, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.ListGolfEvents")
	defer span.End()

	if s.events == nil {
		return EventList{}, fmt.Errorf("%w: golf events are not configured", ErrDependencyUnavailable)
	}
	tour = strings.ToLower(strings.TrimSpace(tour))
	if tour == "" {
		return EventList{}, fmt.Errorf("%w: tour is required", ErrInvalidInput)
	}
	for field, value := range map[string]string{"from": from, "to": to} {
		if value == "" {
			continue
		}
		if _, err := time.Parse(referenceDateLayout, value); err != nil {
			return EventList{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrInvalidInput, field)
		}
	}

	items, err := s.events.ListByTour(ctx, tour, from, to)
	if err != nil {
		return EventList{}, fmt.Errorf("list golf events tour=%s: %w", tour, err)
	}

	now := s.now()
	out := EventList{Items: make([]EventRow, 0, len(items))}
	stamps := make([]time.Time, 0, len(items))
	for _, item := range items {
		out.Items = append(out.Items, EventRow{Event: item, Fresh: s.isFresh(item.UpdatedAt, now)})
		stamps = append(stamps, item.UpdatedAt)
	}
	out.Freshness = ComputeFreshness(stamps, now, s.window)
	return out, nil
}

func (s *QueryService) fixtureList(items []fixture.Fixture) FixtureList {
	fixture.SortByKickoff(items)

	now := s.now()
	out := FixtureList{Items: make([]FixtureRow, 0, len(items))}
	stamps := make([]time.Time, 0, len(items))
	for _, item := range items {
		out.Items = append(out.Items, FixtureRow{Fixture: item, Fresh: s.isFresh(item.UpdatedAt, now)})
		stamps = append(stamps, item.UpdatedAt)
	}
	out.Freshness = ComputeFreshness(stamps, now, s.window)
	return out
}

func (s *QueryService) isFresh(updatedAt, now time.Time) bool {
	return !updatedAt.IsZero() && now.Sub(updatedAt) <= s.window
}

// ComputeFreshness reports the newest update and whether it lies inside window.
func ComputeFreshness(updated []time.Time, now time.Time, window time.Duration) Freshness {
	var newest time.Time
	for _, at := range updated {
		if at.After(newest) {
			newest = at
		}
	}
	if newest.IsZero() {
		return Freshness{}
	}
	return Freshness{
		Fresh:         now.Sub(newest) <= window,
		LastUpdatedAt: &newest,
	}
}
