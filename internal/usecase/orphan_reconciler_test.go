package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
)

func liveRow(id int64, league, stage string, status fixture.Status, kickoff time.Time) fixture.Fixture {
	return fixture.Fixture{
		ProviderID: id,
		SportType:  fixture.SportFootball,
		MatchDate:  kickoff.Format(referenceDateLayout),
		Kickoff:    kickoff,
		Status:     status,
		Stage:      stage,
		LeagueCode: league,
		Home:       fixture.Side{Name: "Home", Score: intPtr(1)},
		Away:       fixture.Side{Name: "Away", Score: intPtr(1)},
	}
}

func TestOrphanReconciler_CutoffPolicy(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 8, 16, 20, 0, 0, 0, time.UTC)
	repo := memory.NewFixtureRepository([]fixture.Fixture{
		liveRow(1, "CL", "LEAGUE_STAGE", fixture.StatusExtraTime, now.Add(-90*time.Minute)),
		liveRow(2, "PL", "REGULAR_SEASON", fixture.StatusSecondPeriod, now.Add(-110*time.Minute)),
		liveRow(3, "PL", "REGULAR_SEASON", fixture.StatusSecondPeriod, now.Add(-3*time.Hour)),
		liveRow(4, "XYZ", "QUARTER_FINALS", fixture.StatusPenalties, now.Add(-110*time.Minute)),
		liveRow(5, "PL", "REGULAR_SEASON", fixture.StatusFinished, now.Add(-3*time.Hour)),
		liveRow(6, "PL", "REGULAR_SEASON", fixture.StatusNotStarted, now.Add(-3*time.Hour)),
	})
	r := NewOrphanReconciler(repo, ReconcilerConfig{}, logging.NewNop())
	r.now = fixedClock(now)

	result, err := r.Reconcile(context.Background(), ReconcileInput{
		SportType: fixture.SportFootball,
		Dates:     []string{"2025-08-16"},
		Seen:      map[fixture.Key]struct{}{{ProviderID: 3, SportType: fixture.SportFootball}: {}},
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if result.Candidates != 4 {
		t.Fatalf("expected 4 live candidates, got %d", result.Candidates)
	}
	if result.Finalized != 1 {
		t.Fatalf("expected only the league row past 105m to finalize, got %d", result.Finalized)
	}

	want := map[int64]fixture.Status{
		1: fixture.StatusExtraTime,
		2: fixture.StatusFinished,
		3: fixture.StatusSecondPeriod,
		4: fixture.StatusPenalties,
		5: fixture.StatusFinished,
		6: fixture.StatusNotStarted,
	}
	for id, status := range want {
		got, _ := repo.Get(fixture.Key{ProviderID: id, SportType: fixture.SportFootball})
		if got.Status != status {
			t.Fatalf("fixture %d: got %s want %s", id, got.Status, status)
		}
	}

	finished, _ := repo.Get(fixture.Key{ProviderID: 2, SportType: fixture.SportFootball})
	if finished.Home.Score == nil || *finished.Home.Score != 1 {
		t.Fatalf("last known score must stand")
	}
}

func TestOrphanReconciler_IsMonotonic(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 8, 16, 23, 0, 0, 0, time.UTC)
	repo := memory.NewFixtureRepository([]fixture.Fixture{
		liveRow(1, "CL", "", fixture.StatusFirstPeriod, now.Add(-3*time.Hour)),
		liveRow(2, "PL", "", fixture.StatusBreak, now.Add(-3*time.Hour)),
	})
	r := NewOrphanReconciler(repo, ReconcilerConfig{}, logging.NewNop())
	r.now = fixedClock(now)

	input := ReconcileInput{SportType: fixture.SportFootball, Dates: []string{"2025-08-16"}}
	first, err := r.Reconcile(context.Background(), input)
	if err != nil || first.Finalized != 2 {
		t.Fatalf("expected 2 finalized, got %d err=%v", first.Finalized, err)
	}
	second, err := r.Reconcile(context.Background(), input)
	if err != nil || second.Finalized != 0 || second.Candidates != 0 {
		t.Fatalf("second pass must be a no-op, got %+v err=%v", second, err)
	}
}

func TestIsKnockoutStage(t *testing.T) {
	t.Parallel()

	for _, stage := range []string{"FINAL", "SEMI_FINALS", "ROUND_OF_16", "Knockout Round Play-offs", "PLAYOFFS"} {
		if !IsKnockoutStage(stage) {
			t.Fatalf("expected %q to be a knockout stage", stage)
		}
	}
	for _, stage := range []string{"", "REGULAR_SEASON", "GROUP_STAGE"} {
		if IsKnockoutStage(stage) {
			t.Fatalf("expected %q not to be a knockout stage", stage)
		}
	}
}

func TestReferenceDates(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 8, 16, 23, 30, 0, 0, time.UTC)
	got := ReferenceDates(now, time.FixedZone("UTC+2", 7200), 1)
	if len(got) != 2 || got[0] != "2025-08-17" || got[1] != "2025-08-16" {
		t.Fatalf("unexpected reference dates: %v", got)
	}
}
