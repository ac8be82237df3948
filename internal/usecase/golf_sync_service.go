package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/event"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/platform/batch"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
)

const (
	GolfSyncModeLive = "live"
	GolfSyncModeFull = "full"
)

type GolfSyncInput struct {
	Mode  string
	Tours []string
}

// GolfSyncService caches tour schedules and leaderboards as versioned envelopes.
type GolfSyncService struct {
	provider   GolfProvider
	events     event.Repository
	normalizer *Normalizer
	runs       *RunLogger
	cfg        SyncConfig
	logger     *logging.Logger
	now        func() time.Time
}

func NewGolfSyncService(
	provider GolfProvider,
	events event.Repository,
	runs *RunLogger,
	cfg SyncConfig,
	logger *logging.Logger,
) *GolfSyncService {
	cfg = NormalizeSyncConfig(cfg)
	if logger == nil {
		logger = logging.Default()
	}

	var normalizer *Normalizer
	if provider != nil {
		normalizer = NewNormalizer(provider.Name(), provider.StatusTable(), cfg.Location)
	}

	return &GolfSyncService{
		provider:   provider,
		events:     events,
		normalizer: normalizer,
		runs:       runs,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *GolfSyncService) Sync(ctx context.Context, input GolfSyncInput) (summary SyncSummary, err error) {
	ctx, cancel := s.cfg.invocationContext(ctx)
	defer cancel()
	ctx, span := startUsecaseSpan(ctx, "usecase.GolfSyncService.Sync")
	defer span.End()

	run := s.runs.Start(ctx, syncrun.TypeGolf, fixture.SportGolf)
	defer func() {
		if rec := recover(); rec != nil {
			run.Abort(fmt.Errorf("panic: %v", rec))
		}
		summary = s.runs.Finish(ctx, run)
	}()

	if s.provider == nil || s.events == nil {
		err = fmt.Errorf("%w: golf provider is not configured", ErrDependencyUnavailable)
		run.Abort(err)
		return summary, err
	}

	mode := strings.ToLower(strings.TrimSpace(input.Mode))
	if mode == "" {
		mode = GolfSyncModeLive
	}
	if mode != GolfSyncModeLive && mode != GolfSyncModeFull {
		err = fmt.Errorf("%w: mode must be %s or %s", ErrInvalidInput, GolfSyncModeLive, GolfSyncModeFull)
		run.Abort(err)
		return summary, err
	}

	tours := normalizeCodes(input.Tours, strings.ToLower)
	if len(tours) == 0 {
		tours = s.cfg.GolfTours
	}
	if len(tours) == 0 {
		err = fmt.Errorf("%w: no golf tours configured", ErrInvalidInput)
		run.Abort(err)
		return summary, err
	}

	outcomes := batch.Run(ctx, tours, batch.Options{Size: 1, Delay: s.cfg.BatchDelay}, func(ctx context.Context, tour string) (unitResult, error) {
		if mode == GolfSyncModeFull {
			return s.syncTourFull(ctx, tour)
		}
		return s.syncTourLive(ctx, tour)
	})
	for idx, outcome := range outcomes {
		label := "tour:" + tours[idx]
		if outcome.Err != nil {
			s.logger.WarnContext(ctx, "golf sync unit failed", "unit", label, "error", outcome.Err)
			run.UnitFailed(label, outcome.Err)
			continue
		}
		run.UnitSucceeded(outcome.Value.written)
		for _, recErr := range outcome.Value.errs {
			run.RecordError(label, recErr)
		}
	}

	return summary, nil
}

// syncTourFull refreshes the season schedule and the leaderboards of events in play
// or finished within the lookback window.
func (s *GolfSyncService) syncTourFull(ctx context.Context, tour string) (unitResult, error) {
	season := s.now().In(s.cfg.Location).Year()
	records, err := s.provider.FetchSchedule(ctx, tour, season)
	if err != nil {
		return unitResult{}, fmt.Errorf("fetch golf schedule tour=%s season=%d: %w", tour, season, err)
	}

	var result unitResult
	cutoff := s.cfg.today(s.now()).AddDate(0, 0, -s.cfg.LookbackDays).Format(referenceDateLayout)
	items := make([]event.Event, 0, len(records))
	for _, record := range records {
		item, err := s.toEvent(tour, record)
		if err != nil {
			result.errs = append(result.errs, err)
			continue
		}

		wantsBoard := item.Status.IsLive() || (item.Status.IsFinished() && endDateOf(item) >= cutoff)
		if wantsBoard {
			if board, err := s.provider.FetchLeaderboard(ctx, tour, item.ProviderEventID); err != nil {
				result.errs = append(result.errs, fmt.Errorf("fetch leaderboard event=%s: %w", item.ID, err))
			} else {
				setEnvelope(&item, event.KindLeaderboard, board)
			}
		}
		items = append(items, item)
	}

	if err := s.write(ctx, items); err != nil {
		result.errs = append(result.errs, err)
		return result, nil
	}
	result.written = len(items)
	return result, nil
}

// syncTourLive refreshes only leaderboards of events the cache holds as in play.
func (s *GolfSyncService) syncTourLive(ctx context.Context, tour string) (unitResult, error) {
	live, err := s.events.ListLive(ctx, tour)
	if err != nil {
		return unitResult{}, fmt.Errorf("list live golf events tour=%s: %w", tour, err)
	}

	var result unitResult
	items := make([]event.Event, 0, len(live))
	for _, item := range live {
		board, err := s.provider.FetchLeaderboard(ctx, tour, item.ProviderEventID)
		if err != nil {
			result.errs = append(result.errs, fmt.Errorf("fetch leaderboard event=%s: %w", item.ID, err))
			continue
		}
		setEnvelope(&item, event.KindLeaderboard, board)
		items = append(items, item)
	}
	if len(live) > 0 && len(items) == 0 {
		return result, fmt.Errorf("%w: no leaderboard fetched for tour=%s", ErrUpstreamUnavailable, tour)
	}

	if err := s.write(ctx, items); err != nil {
		result.errs = append(result.errs, err)
		return result, nil
	}
	result.written = len(items)
	return result, nil
}

func (s *GolfSyncService) toEvent(tour string, record ExternalGolfEvent) (event.Event, error) {
	status, err := s.normalizer.ResolveStatus(record.StatusCode)
	if err != nil {
		return event.Event{}, fmt.Errorf("event=%s: %w", record.ProviderEventID, err)
	}
	item := event.Event{
		ID:              event.BuildID(tour, record.ProviderEventID),
		SportType:       fixture.SportGolf,
		Tour:            tour,
		ProviderEventID: strings.TrimSpace(record.ProviderEventID),
		Name:            strings.TrimSpace(record.Name),
		Status:          status,
		EventDate:       strings.TrimSpace(record.StartDate),
		EndDate:         strings.TrimSpace(record.EndDate),
	}
	setEnvelope(&item, event.KindSchedule, record.Raw)
	if err := item.Validate(); err != nil {
		return event.Event{}, fmt.Errorf("%w: event=%s: %v", ErrMalformedRecord, record.ProviderEventID, err)
	}
	return item, nil
}

func (s *GolfSyncService) write(ctx context.Context, items []event.Event) error {
	if len(items) == 0 {
		return nil
	}
	if err := s.events.UpsertMany(ctx, items); err != nil {
		return fmt.Errorf("%w: upsert golf events: %w", ErrCacheWriteFailed, err)
	}
	return nil
}

func setEnvelope(item *event.Event, kind string, payload []byte) {
	if len(payload) == 0 {
		payload = []byte("null")
	}
	item.Envelope = event.NewEnvelope(kind, payload)
	item.PayloadHash = event.PayloadHash(item.Envelope.Payload)
}

func endDateOf(item event.Event) string {
	if item.EndDate != "" {
		return item.EndDate
	}
	return item.EventDate
}
