package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
)

func TestEnrichment_StoresDetailsForFinishedFixtures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kickoff := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)
	repo := memory.NewFixtureRepository([]fixture.Fixture{
		{ProviderID: 1, SportType: fixture.SportFootball, MatchDate: "2025-08-16", Kickoff: kickoff, Status: fixture.StatusFinished},
		{ProviderID: 2, SportType: fixture.SportFootball, MatchDate: "2025-08-16", Kickoff: kickoff, Status: fixture.StatusFinished},
		{ProviderID: 3, SportType: fixture.SportFootball, MatchDate: "2025-08-16", Kickoff: kickoff, Status: fixture.StatusSecondPeriod},
	})
	provider := &fakeScheduleProvider{
		details: map[int64][]byte{1: []byte(`{"id":1,"referees":[]}`)},
		h2hErr:  errors.New("head to head unavailable"),
	}
	runs, _ := newTestRunLogger()
	svc := NewEnrichmentService(provider, repo, runs, DefaultSyncConfig(), logging.NewNop())

	summary, err := svc.EnrichFinished(ctx, EnrichInput{Date: "2025-08-16"})
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if summary.Status != string(syncrun.StatusPartial) || summary.RecordsSynced != 1 || summary.FailedUnits != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	row, _ := repo.Get(fixture.Key{ProviderID: 1, SportType: fixture.SportFootball})
	var blob matchDetailsBlob
	if err := sonic.Unmarshal(row.MatchDetails, &blob); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if len(blob.Match) == 0 || len(blob.HeadToHead) != 0 {
		t.Fatalf("unexpected details blob: %s", row.MatchDetails)
	}

	live, _ := repo.Get(fixture.Key{ProviderID: 3, SportType: fixture.SportFootball})
	if len(live.MatchDetails) != 0 {
		t.Fatalf("live fixtures must not be enriched")
	}
}
