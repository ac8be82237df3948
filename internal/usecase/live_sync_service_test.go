package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
)

func seededLiveRepo(kickoff time.Time) *memory.FixtureRepository {
	return memory.NewFixtureRepository([]fixture.Fixture{
		{
			ProviderID: 1, SportType: fixture.SportFootball, MatchDate: "2025-08-16", Kickoff: kickoff,
			Status: fixture.StatusFirstPeriod, LeagueCode: "PL",
			Home: fixture.Side{Name: "Arsenal FC", Score: intPtr(0)}, Away: fixture.Side{Name: "Chelsea FC", Score: intPtr(0)},
		},
		{
			ProviderID: 2, SportType: fixture.SportFootball, MatchDate: "2025-08-16", Kickoff: kickoff.Add(-2 * time.Hour),
			Status: fixture.StatusSecondPeriod, LeagueCode: "PL",
			Home: fixture.Side{Name: "Fulham FC", Score: intPtr(1)}, Away: fixture.Side{Name: "Brentford FC", Score: intPtr(1)},
		},
		{
			ProviderID: 3, SportType: fixture.SportFootball, MatchDate: "2025-08-16", Kickoff: kickoff.Add(-2 * time.Hour),
			Status: fixture.StatusFinished, LeagueCode: "PL",
			Home: fixture.Side{Name: "Everton FC", Score: intPtr(3)}, Away: fixture.Side{Name: "Burnley FC", Score: intPtr(0)},
		},
	})
}

func newTestLiveSync(provider LiveProvider, repo fixture.Repository, queue JobQueue, now time.Time) (*LiveSyncService, *memory.SyncRunRepository) {
	runs, runRepo := newTestRunLogger()
	reconciler := NewOrphanReconciler(repo, ReconcilerConfig{}, logging.NewNop())
	reconciler.now = fixedClock(now)
	orchestrator := NewJobOrchestratorService(repo, queue, JobOrchestratorConfig{}, logging.NewNop())
	orchestrator.now = fixedClock(now)

	svc := NewLiveSyncService(provider, repo, nil, reconciler, orchestrator, runs, DefaultSyncConfig(), logging.NewNop())
	svc.now = fixedClock(now)
	return svc, runRepo
}

func TestLiveSync_OverlaysAndFinalizesOrphans(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)
	now := kickoff.Add(70 * time.Minute)
	repo := seededLiveRepo(kickoff)
	provider := &fakeLiveProvider{snapshot: []ExternalLiveEvent{
		{ProviderEventID: "a", LeagueCode: "PL", Kickoff: kickoff, HomeName: "Arsenal", AwayName: "Chelsea", StatusCode: "2H", Minute: intPtr(67), HomeScore: intPtr(1), AwayScore: intPtr(0)},
		{ProviderEventID: "b", LeagueCode: "PL", Kickoff: kickoff.Add(-2 * time.Hour), HomeName: "Everton", AwayName: "Burnley", StatusCode: "2H", Minute: intPtr(80), HomeScore: intPtr(3), AwayScore: intPtr(1)},
		{ProviderEventID: "c", LeagueCode: "PL", Kickoff: kickoff, HomeName: "Leeds United", AwayName: "Sunderland", StatusCode: "1H"},
	}}
	queue := &recordingQueue{}
	svc, _ := newTestLiveSync(provider, repo, queue, now)

	summary, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("live sync: %v", err)
	}

	live, _ := repo.Get(fixture.Key{ProviderID: 1, SportType: fixture.SportFootball})
	if live.Status != fixture.StatusSecondPeriod || *live.Home.Score != 1 || *live.Minute != 67 {
		t.Fatalf("expected overlay applied, got %+v", live)
	}

	orphan, _ := repo.Get(fixture.Key{ProviderID: 2, SportType: fixture.SportFootball})
	if orphan.Status != fixture.StatusFinished {
		t.Fatalf("expected orphan finalized, got %s", orphan.Status)
	}

	done, _ := repo.Get(fixture.Key{ProviderID: 3, SportType: fixture.SportFootball})
	if done.Status != fixture.StatusFinished || *done.Away.Score != 0 {
		t.Fatalf("finished rows must never regress, got %+v", done)
	}

	if summary.Finalized != 1 || summary.Unmatched != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Status != string(syncrun.StatusSuccess) {
		t.Fatalf("expected success, got %s (%+v)", summary.Status, summary.Errors)
	}
	if len(queue.paths) != 1 || queue.paths[0] != liveSyncPath {
		t.Fatalf("expected live pass to be re-armed, got %v", queue.paths)
	}
}

func TestLiveSync_FailedSnapshotSkipsReconcile(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)
	now := kickoff.Add(4 * time.Hour)
	repo := seededLiveRepo(kickoff)
	svc, runRepo := newTestLiveSync(&fakeLiveProvider{err: ErrUpstreamUnavailable}, repo, &recordingQueue{}, now)

	summary, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("live sync: %v", err)
	}
	if summary.Status != string(syncrun.StatusError) {
		t.Fatalf("expected error status, got %s", summary.Status)
	}

	row, _ := repo.Get(fixture.Key{ProviderID: 1, SportType: fixture.SportFootball})
	if row.Status != fixture.StatusFirstPeriod {
		t.Fatalf("rows must stay live when the snapshot failed, got %s", row.Status)
	}
	runs, _ := runRepo.ListRecent(context.Background(), 5)
	if len(runs) != 1 || runs[0].SyncType != syncrun.TypeLive {
		t.Fatalf("expected one live run row, got %+v", runs)
	}
}

func TestLiveSync_AmbiguousMatchOverwritesNothing(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)
	repo := memory.NewFixtureRepository([]fixture.Fixture{
		{ProviderID: 1, SportType: fixture.SportFootball, MatchDate: "2025-08-16", Kickoff: kickoff, Status: fixture.StatusFirstPeriod, LeagueCode: "PL",
			Home: fixture.Side{Name: "Manchester United"}, Away: fixture.Side{Name: "Arsenal"}},
		{ProviderID: 2, SportType: fixture.SportFootball, MatchDate: "2025-08-16", Kickoff: kickoff, Status: fixture.StatusFirstPeriod, LeagueCode: "PL",
			Home: fixture.Side{Name: "Manchester City"}, Away: fixture.Side{Name: "Arsenal"}},
	})
	provider := &fakeLiveProvider{snapshot: []ExternalLiveEvent{
		{ProviderEventID: "x", LeagueCode: "PL", Kickoff: kickoff, HomeName: "Manchester", AwayName: "Arsenal", StatusCode: "HT", HomeScore: intPtr(4), AwayScore: intPtr(4)},
	}}
	svc, _ := newTestLiveSync(provider, repo, &recordingQueue{}, kickoff.Add(45*time.Minute))

	summary, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("live sync: %v", err)
	}
	if summary.Ambiguous != 1 {
		t.Fatalf("expected one ambiguous record, got %+v", summary)
	}
	for _, id := range []int64{1, 2} {
		row, _ := repo.Get(fixture.Key{ProviderID: id, SportType: fixture.SportFootball})
		if row.Status != fixture.StatusFirstPeriod || row.Home.Score != nil {
			t.Fatalf("fixture %d must not be overwritten, got %+v", id, row)
		}
	}
}

func TestLiveSync_AmbiguousCandidatesAreNotFinalized(t *testing.T) {
	t.Parallel()

	kickoff := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)
	repo := memory.NewFixtureRepository([]fixture.Fixture{
		{ProviderID: 1, SportType: fixture.SportFootball, MatchDate: "2025-08-16", Kickoff: kickoff, Status: fixture.StatusSecondPeriod, LeagueCode: "PL",
			Home: fixture.Side{Name: "Manchester United"}, Away: fixture.Side{Name: "Arsenal"}},
		{ProviderID: 2, SportType: fixture.SportFootball, MatchDate: "2025-08-16", Kickoff: kickoff, Status: fixture.StatusSecondPeriod, LeagueCode: "PL",
			Home: fixture.Side{Name: "Manchester City"}, Away: fixture.Side{Name: "Arsenal"}},
	})
	provider := &fakeLiveProvider{snapshot: []ExternalLiveEvent{
		{ProviderEventID: "x", LeagueCode: "PL", Kickoff: kickoff, HomeName: "Manchester", AwayName: "Arsenal", StatusCode: "2H"},
	}}
	// Both rows are well past the league cutoff.
	svc, _ := newTestLiveSync(provider, repo, &recordingQueue{}, kickoff.Add(3*time.Hour))

	summary, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("live sync: %v", err)
	}
	if summary.Ambiguous != 1 || summary.Finalized != 0 {
		t.Fatalf("expected no finalization for ambiguous candidates, got %+v", summary)
	}
	for _, id := range []int64{1, 2} {
		row, _ := repo.Get(fixture.Key{ProviderID: id, SportType: fixture.SportFootball})
		if row.Status != fixture.StatusSecondPeriod {
			t.Fatalf("fixture %d must stay live, got %s", id, row.Status)
		}
	}
}
