package cache

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/infrastructure/repository/memory"
	basecache "github.com/riskibarqy/matchday-sync/internal/platform/cache"
)

func testFixture(id int64, status fixture.Status) fixture.Fixture {
	return fixture.Fixture{
		ProviderID: id,
		SportType:  fixture.SportFootball,
		MatchDate:  "2025-08-16",
		Kickoff:    time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC),
		Status:     status,
		LeagueCode: "PL",
		Home:       fixture.Side{TeamID: 57, Name: "Arsenal"},
		Away:       fixture.Side{TeamID: 65, Name: "Manchester City"},
	}
}

func TestFixtureRepository_ReadsAreCachedUntilWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inner := memory.NewFixtureRepository(nil)
	repo := NewFixtureRepository(inner, basecache.NewStore(time.Minute))

	if err := repo.UpsertBatch(ctx, []fixture.Fixture{testFixture(1, fixture.StatusNotStarted)}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	first, err := repo.ListByDate(ctx, fixture.SportFootball, "2025-08-16")
	if err != nil || len(first) != 1 {
		t.Fatalf("unexpected first read: %v %d", err, len(first))
	}

	// Bypass the decorator: the cached listing must not notice.
	if err := inner.UpsertBatch(ctx, []fixture.Fixture{testFixture(2, fixture.StatusNotStarted)}); err != nil {
		t.Fatalf("inner write: %v", err)
	}
	cached, _ := repo.ListByDate(ctx, fixture.SportFootball, "2025-08-16")
	if len(cached) != 1 {
		t.Fatalf("expected cached listing, got %d rows", len(cached))
	}

	if err := repo.UpsertBatch(ctx, []fixture.Fixture{testFixture(3, fixture.StatusNotStarted)}); err != nil {
		t.Fatalf("write: %v", err)
	}
	fresh, _ := repo.ListByDate(ctx, fixture.SportFootball, "2025-08-16")
	if len(fresh) != 3 {
		t.Fatalf("expected invalidated listing with 3 rows, got %d", len(fresh))
	}
}

func TestFixtureRepository_LiveUpdateInvalidates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inner := memory.NewFixtureRepository([]fixture.Fixture{testFixture(1, fixture.StatusFirstPeriod)})
	repo := NewFixtureRepository(inner, basecache.NewStore(time.Minute))

	if _, err := repo.ListByDate(ctx, fixture.SportFootball, "2025-08-16"); err != nil {
		t.Fatalf("warm: %v", err)
	}

	two, one := 2, 1
	applied, err := repo.ApplyLiveUpdate(ctx, fixture.LiveUpdate{
		Key:       fixture.Key{ProviderID: 1, SportType: fixture.SportFootball},
		Status:    fixture.StatusSecondPeriod,
		HomeScore: &two,
		AwayScore: &one,
	})
	if err != nil || !applied {
		t.Fatalf("expected applied live update, got applied=%v err=%v", applied, err)
	}

	rows, _ := repo.ListByDate(ctx, fixture.SportFootball, "2025-08-16")
	if rows[0].Status != fixture.StatusSecondPeriod || rows[0].Home.Score == nil || *rows[0].Home.Score != 2 {
		t.Fatalf("expected refreshed row, got %+v", rows[0])
	}
}
