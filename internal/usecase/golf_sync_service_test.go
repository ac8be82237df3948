package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/matchday-sync/internal/domain/event"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
)

type fakeGolfProvider struct {
	schedule    map[string][]ExternalGolfEvent
	boards      map[string][]byte
	boardCalled []string
}

func (p *fakeGolfProvider) Name() string { return "fake-golf" }

func (p *fakeGolfProvider) StatusTable() fixture.StatusTable {
	return fixture.StatusTable{
		"UPCOMING":    fixture.StatusNotStarted,
		"IN_PROGRESS": fixture.StatusLive,
		"COMPLETED":   fixture.StatusFinished,
	}
}

func (p *fakeGolfProvider) FetchSchedule(_ context.Context, tour string, _ int) ([]ExternalGolfEvent, error) {
	return p.schedule[tour], nil
}

func (p *fakeGolfProvider) FetchLeaderboard(_ context.Context, _, eventID string) ([]byte, error) {
	p.boardCalled = append(p.boardCalled, eventID)
	board, ok := p.boards[eventID]
	if !ok {
		return nil, ErrUpstreamUnavailable
	}
	return board, nil
}

func newTestGolfSync(provider GolfProvider, events event.Repository, now time.Time) *GolfSyncService {
	runs, _ := newTestRunLogger()
	cfg := DefaultSyncConfig()
	cfg.BatchDelay = 0
	svc := NewGolfSyncService(provider, events, runs, cfg, logging.NewNop())
	svc.now = fixedClock(now)
	return svc
}

func TestGolfSync_FullStoresVersionedEnvelopes(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	provider := &fakeGolfProvider{
		schedule: map[string][]ExternalGolfEvent{"pga": {
			{ProviderEventID: "14", Name: "Masters", StatusCode: "completed", StartDate: "2025-04-10", EndDate: "2025-04-13", Raw: []byte(`{"id":14}`)},
			{ProviderEventID: "15", Name: "Heritage", StatusCode: "in_progress", StartDate: "2025-04-17", EndDate: "2025-04-20", Raw: []byte(`{"id":15}`)},
			{ProviderEventID: "16", Name: "Zurich", StatusCode: "upcoming", StartDate: "2025-04-24", EndDate: "2025-04-27", Raw: []byte(`{"id":16}`)},
		}},
		boards: map[string][]byte{"15": []byte(`{"leaderboard":[{"position":1}]}`)},
	}
	events := memory.NewEventRepository()
	svc := newTestGolfSync(provider, events, time.Date(2025, 4, 18, 12, 0, 0, 0, time.UTC))

	summary, err := svc.Sync(ctx, GolfSyncInput{Mode: GolfSyncModeFull})
	if err != nil {
		t.Fatalf("golf sync: %v", err)
	}
	if summary.Status != string(syncrun.StatusSuccess) || summary.RecordsSynced != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(provider.boardCalled) != 1 || provider.boardCalled[0] != "15" {
		t.Fatalf("only the in-play event needs a leaderboard, got %v", provider.boardCalled)
	}

	stored, _ := events.ListByTour(ctx, "pga", "", "")
	if len(stored) != 3 {
		t.Fatalf("expected 3 events, got %d", len(stored))
	}
	heritage := stored[1]
	if heritage.Envelope.SchemaVersion != event.CurrentSchemaVersion || heritage.Envelope.Kind != event.KindLeaderboard {
		t.Fatalf("unexpected envelope: %+v", heritage.Envelope)
	}
	var payload map[string]any
	if err := sonic.Unmarshal(heritage.Envelope.Payload, &payload); err != nil {
		t.Fatalf("payload must stay valid json: %v", err)
	}
	if stored[0].Envelope.Kind != event.KindSchedule {
		t.Fatalf("finished event outside lookback keeps schedule payload, got %s", stored[0].Envelope.Kind)
	}
}

func TestGolfSync_LiveRefreshesOnlyCachedLiveEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	events := memory.NewEventRepository()
	_ = events.UpsertMany(ctx, []event.Event{
		{ID: "pga:15", SportType: fixture.SportGolf, Tour: "pga", ProviderEventID: "15", Status: fixture.StatusLive, EventDate: "2025-04-17"},
		{ID: "pga:16", SportType: fixture.SportGolf, Tour: "pga", ProviderEventID: "16", Status: fixture.StatusNotStarted, EventDate: "2025-04-24"},
	})
	provider := &fakeGolfProvider{boards: map[string][]byte{"15": []byte(`{"round":3}`)}}
	svc := newTestGolfSync(provider, events, time.Date(2025, 4, 19, 12, 0, 0, 0, time.UTC))

	summary, err := svc.Sync(ctx, GolfSyncInput{})
	if err != nil {
		t.Fatalf("golf sync: %v", err)
	}
	if summary.RecordsSynced != 1 || len(provider.boardCalled) != 1 {
		t.Fatalf("unexpected live refresh: %+v calls=%v", summary, provider.boardCalled)
	}
}

func TestGolfSync_RejectsUnknownMode(t *testing.T) {
	t.Parallel()

	svc := newTestGolfSync(&fakeGolfProvider{}, memory.NewEventRepository(), time.Now())
	summary, err := svc.Sync(context.Background(), GolfSyncInput{Mode: "weekly"})
	if err == nil || summary.Status != string(syncrun.StatusError) {
		t.Fatalf("expected invalid mode error, got status=%s err=%v", summary.Status, err)
	}
}
