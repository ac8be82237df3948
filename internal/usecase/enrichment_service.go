package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/platform/batch"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
)

const headToHeadLimit = 5

type EnrichInput struct {
	Date  string
	Limit int
}

type matchDetailsBlob struct {
	Match      json.RawMessage `json:"match"`
	HeadToHead json.RawMessage `json:"head_to_head,omitempty"`
	FetchedAt  time.Time       `json:"fetched_at"`
}

// EnrichmentService fills the match details blob of finished fixtures.
type EnrichmentService struct {
	provider ScheduleProvider
	fixtures fixture.Repository
	runs     *RunLogger
	cfg      SyncConfig
	logger   *logging.Logger
	now      func() time.Time
}

func NewEnrichmentService(
	provider ScheduleProvider,
	fixtures fixture.Repository,
	runs *RunLogger,
	cfg SyncConfig,
	logger *logging.Logger,
) *EnrichmentService {
	cfg = NormalizeSyncConfig(cfg)
	if logger == nil {
		logger = logging.Default()
	}
	return &EnrichmentService{
		provider: provider,
		fixtures: fixtures,
		runs:     runs,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *EnrichmentService) EnrichFinished(ctx context.Context, input EnrichInput) (summary SyncSummary, err error) {
	ctx, cancel := s.cfg.invocationContext(ctx)
	defer cancel()
	ctx, span := startUsecaseSpan(ctx, "usecase.EnrichmentService.EnrichFinished")
	defer span.End()

	run := s.runs.Start(ctx, syncrun.TypeEnrich, fixture.SportFootball)
	defer func() {
		if rec := recover(); rec != nil {
			run.Abort(fmt.Errorf("panic: %v", rec))
		}
		summary = s.runs.Finish(ctx, run)
	}()

	if s.provider == nil || s.fixtures == nil {
		err = fmt.Errorf("%w: schedule provider is not configured", ErrDependencyUnavailable)
		run.Abort(err)
		return summary, err
	}

	date := s.cfg.today(s.now()).Format(referenceDateLayout)
	if input.Date != "" {
		day, parseErr := s.cfg.parseDate("date", input.Date)
		if parseErr != nil {
			err = parseErr
			run.Abort(err)
			return summary, err
		}
		date = day.Format(referenceDateLayout)
	}
	limit := input.Limit
	if limit <= 0 || limit > s.cfg.EnrichLimit {
		limit = s.cfg.EnrichLimit
	}

	rows, err := s.fixtures.ListFinishedWithoutDetails(ctx, fixture.SportFootball, date, limit)
	if err != nil {
		err = fmt.Errorf("list finished fixtures without details date=%s: %w", date, err)
		run.Abort(err)
		return summary, err
	}

	outcomes := batch.Run(ctx, rows, batch.Options{Size: 1}, func(ctx context.Context, item fixture.Fixture) (int, error) {
		return 1, s.enrichOne(ctx, item)
	})
	for idx, outcome := range outcomes {
		label := "fixture:" + rows[idx].Key().String()
		if outcome.Err != nil {
			run.UnitFailed(label, outcome.Err)
			continue
		}
		run.UnitSucceeded(outcome.Value)
	}

	return summary, nil
}

func (s *EnrichmentService) enrichOne(ctx context.Context, item fixture.Fixture) error {
	match, err := s.provider.FetchMatchDetails(ctx, item.ProviderID)
	if err != nil {
		return fmt.Errorf("fetch match details fixture=%d: %w", item.ProviderID, err)
	}

	blob := matchDetailsBlob{Match: match, FetchedAt: s.now().UTC()}
	if h2h, err := s.provider.FetchHeadToHead(ctx, item.ProviderID, headToHeadLimit); err != nil {
		s.logger.WarnContext(ctx, "head to head unavailable, storing match details only",
			"fixture_id", item.ProviderID,
			"error", err,
		)
	} else {
		blob.HeadToHead = h2h
	}

	raw, err := sonic.Marshal(blob)
	if err != nil {
		return fmt.Errorf("encode match details fixture=%d: %w", item.ProviderID, err)
	}
	if err := s.fixtures.SetMatchDetails(ctx, item.Key(), raw); err != nil {
		return fmt.Errorf("%w: store match details fixture=%d: %w", ErrCacheWriteFailed, item.ProviderID, err)
	}
	return nil
}
