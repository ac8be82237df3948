package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
)

var testTable = fixture.StatusTable{
	"SCHEDULED": fixture.StatusNotStarted,
	"TIMED":     fixture.StatusNotStarted,
	"IN_PLAY":   fixture.StatusLive,
	"1H":        fixture.StatusFirstPeriod,
	"HT":        fixture.StatusBreak,
	"2H":        fixture.StatusSecondPeriod,
	"FINISHED":  fixture.StatusFinished,
	"FT":        fixture.StatusFinished,
}

func intPtr(v int) *int {
	return &v
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func newTestRunLogger() (*RunLogger, *memory.SyncRunRepository) {
	repo := memory.NewSyncRunRepository()
	return NewRunLogger(repo, nil, logging.NewNop()), repo
}

func externalFixture(id int64, league string, kickoff time.Time, status string, home, away string) ExternalFixture {
	return ExternalFixture{
		ProviderID: id,
		SportType:  fixture.SportFootball,
		Kickoff:    kickoff,
		StatusCode: status,
		LeagueCode: league,
		LeagueName: "Premier League",
		Home:       ExternalSide{ProviderID: id*10 + 1, Name: home},
		Away:       ExternalSide{ProviderID: id*10 + 2, Name: away},
	}
}

type fakeScheduleProvider struct {
	mu        sync.Mutex
	byLeague  map[string][]ExternalFixture
	byDate    []ExternalFixture
	failOn    map[string]error
	details   map[int64][]byte
	h2hErr    error
	leagueHit []string
}

func (p *fakeScheduleProvider) Name() string                     { return "fake-schedule" }
func (p *fakeScheduleProvider) StatusTable() fixture.StatusTable { return testTable }

func (p *fakeScheduleProvider) FetchLeagueFixtures(_ context.Context, leagueCode string, _, _ time.Time) ([]ExternalFixture, error) {
	p.mu.Lock()
	p.leagueHit = append(p.leagueHit, leagueCode)
	p.mu.Unlock()
	if err := p.failOn[leagueCode]; err != nil {
		return nil, err
	}
	return p.byLeague[leagueCode], nil
}

func (p *fakeScheduleProvider) FetchFixturesByDate(_ context.Context, from, to time.Time) ([]ExternalFixture, error) {
	if err := p.failOn[from.Format(referenceDateLayout)]; err != nil {
		return nil, err
	}
	out := make([]ExternalFixture, 0, len(p.byDate))
	for _, item := range p.byDate {
		day := item.Kickoff.UTC().Format(referenceDateLayout)
		if day >= from.Format(referenceDateLayout) && day <= to.Format(referenceDateLayout) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (p *fakeScheduleProvider) FetchMatchDetails(_ context.Context, providerID int64) ([]byte, error) {
	raw, ok := p.details[providerID]
	if !ok {
		return nil, ErrUpstreamUnavailable
	}
	return raw, nil
}

func (p *fakeScheduleProvider) FetchHeadToHead(_ context.Context, _ int64, _ int) ([]byte, error) {
	if p.h2hErr != nil {
		return nil, p.h2hErr
	}
	return []byte(`{"matches":[]}`), nil
}

type fakeLiveProvider struct {
	snapshot []ExternalLiveEvent
	err      error
}

func (p *fakeLiveProvider) Name() string                     { return "fake-live" }
func (p *fakeLiveProvider) StatusTable() fixture.StatusTable { return testTable }

func (p *fakeLiveProvider) FetchLiveSnapshot(context.Context) ([]ExternalLiveEvent, error) {
	return p.snapshot, p.err
}

// flakyFixtureRepository rejects the UpsertBatch calls whose 1-based ordinal is in failCalls.
type flakyFixtureRepository struct {
	*memory.FixtureRepository
	mu        sync.Mutex
	calls     int
	failCalls map[int]bool
}

func (r *flakyFixtureRepository) UpsertBatch(ctx context.Context, items []fixture.Fixture) error {
	r.mu.Lock()
	r.calls++
	fail := r.failCalls[r.calls]
	r.mu.Unlock()
	if fail {
		return errors.New("connection reset by peer")
	}
	return r.FixtureRepository.UpsertBatch(ctx, items)
}

type recordingQueue struct {
	mu    sync.Mutex
	paths []string
	delay []time.Duration
}

func (q *recordingQueue) Enqueue(_ context.Context, path string, _ any, delay time.Duration, _ string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.paths = append(q.paths, path)
	q.delay = append(q.delay, delay)
	return nil
}
