package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
)

func TestDedupKey_UsesQStashSafeFormat(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, time.February, 25, 4, 25, 42, 0, time.UTC)
	got := dedupKey("sync-live", "idn:liga/1 2025", at, 5*time.Minute)

	if strings.Contains(got, ":") {
		t.Fatalf("dedup key must not contain colon, got=%q", got)
	}

	want := "sync-live-idn-liga-1-2025-20260225T042500Z"
	if got != want {
		t.Fatalf("unexpected dedup key: got=%q want=%q", got, want)
	}
}

func TestSanitizeDedupSegment_EmptyFallback(t *testing.T) {
	t.Parallel()

	if got := sanitizeDedupSegment(" \t "); got != "unknown" {
		t.Fatalf("unexpected sanitize fallback: got=%q want=%q", got, "unknown")
	}
}

func TestAfterLivePass_ArmsBeforeNextKickoff(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 8, 16, 10, 0, 0, 0, time.UTC)
	repo := memory.NewFixtureRepository([]fixture.Fixture{
		{ProviderID: 1, SportType: fixture.SportFootball, MatchDate: "2025-08-16", Kickoff: now.Add(2 * time.Hour), Status: fixture.StatusNotStarted},
		{ProviderID: 2, SportType: fixture.SportFootball, MatchDate: "2025-08-16", Kickoff: now.Add(5 * time.Hour), Status: fixture.StatusNotStarted},
	})
	queue := &recordingQueue{}
	svc := NewJobOrchestratorService(repo, queue, JobOrchestratorConfig{}, logging.NewNop())
	svc.now = fixedClock(now)

	result, err := svc.AfterLivePass(context.Background(), 0, "2025-08-16")
	if err != nil {
		t.Fatalf("after live pass: %v", err)
	}
	if !result.Queued || result.Delay != 2*time.Hour-5*time.Minute {
		t.Fatalf("unexpected re-arm: %+v", result)
	}
}

func TestAfterLivePass_NothingLeftToday(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 8, 16, 22, 0, 0, 0, time.UTC)
	repo := memory.NewFixtureRepository([]fixture.Fixture{
		{ProviderID: 1, SportType: fixture.SportFootball, MatchDate: "2025-08-16", Kickoff: now.Add(-4 * time.Hour), Status: fixture.StatusFinished},
	})
	queue := &recordingQueue{}
	svc := NewJobOrchestratorService(repo, queue, JobOrchestratorConfig{}, logging.NewNop())
	svc.now = fixedClock(now)

	result, err := svc.AfterLivePass(context.Background(), 0, "2025-08-16")
	if err != nil || result.Queued || len(queue.paths) != 0 {
		t.Fatalf("expected no re-arm, got %+v err=%v", result, err)
	}
}
