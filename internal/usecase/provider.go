package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
)

// ScheduleProvider is the primary schedule and results upstream.
type ScheduleProvider interface {
	Name() string
	StatusTable() fixture.StatusTable
	FetchLeagueFixtures(ctx context.Context, leagueCode string, from, to time.Time) ([]ExternalFixture, error)
	FetchFixturesByDate(ctx context.Context, from, to time.Time) ([]ExternalFixture, error)
	FetchMatchDetails(ctx context.Context, providerID int64) ([]byte, error)
	FetchHeadToHead(ctx context.Context, providerID int64, limit int) ([]byte, error)
}

// LiveProvider returns every in-play event across competitions in one call.
type LiveProvider interface {
	Name() string
	StatusTable() fixture.StatusTable
	FetchLiveSnapshot(ctx context.Context) ([]ExternalLiveEvent, error)
}

// GolfProvider serves tour schedules and opaque leaderboard payloads.
type GolfProvider interface {
	Name() string
	StatusTable() fixture.StatusTable
	FetchSchedule(ctx context.Context, tour string, season int) ([]ExternalGolfEvent, error)
	FetchLeaderboard(ctx context.Context, tour, eventID string) ([]byte, error)
}

type ExternalSide struct {
	ProviderID int64
	Name       string
	ShortName  string
	TLA        string
	Logo       string
	Score      *int
}

// ExternalFixture is a provider-shaped schedule record before normalization.
type ExternalFixture struct {
	ProviderID int64
	SportType  string
	Kickoff    time.Time
	StatusCode string
	Minute     *int
	Stage      string
	Matchday   *int
	LeagueCode string
	LeagueName string
	LeagueLogo string
	Home       ExternalSide
	Away       ExternalSide
	Venue      string
}

// ExternalLiveEvent carries no identifier shared with the schedule provider.
type ExternalLiveEvent struct {
	ProviderEventID string
	LeagueCode      string
	Kickoff         time.Time
	HomeName        string
	AwayName        string
	StatusCode      string
	Minute          *int
	HomeScore       *int
	AwayScore       *int
}

type ExternalGolfEvent struct {
	ProviderEventID string
	Name            string
	StatusCode      string
	StartDate       string
	EndDate         string
	Raw             []byte
}
