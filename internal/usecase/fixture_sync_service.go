package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/domain/team"
	"github.com/riskibarqy/matchday-sync/internal/platform/batch"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
)

const (
	FixtureSyncModeLeagues  = "leagues"
	FixtureSyncModeBackfill = "backfill"
)

type FixtureSyncInput struct {
	Mode    string
	Start   string
	End     string
	Leagues []string
}

// FixtureSyncService runs the scheduled ingestion pass against the schedule provider.
type FixtureSyncService struct {
	provider   ScheduleProvider
	normalizer *Normalizer
	cache      *FixtureCache
	runs       *RunLogger
	cfg        SyncConfig
	logger     *logging.Logger
	now        func() time.Time
}

func NewFixtureSyncService(
	provider ScheduleProvider,
	cache *FixtureCache,
	runs *RunLogger,
	cfg SyncConfig,
	logger *logging.Logger,
) *FixtureSyncService {
	cfg = NormalizeSyncConfig(cfg)
	if logger == nil {
		logger = logging.Default()
	}

	var normalizer *Normalizer
	if provider != nil {
		normalizer = NewNormalizer(provider.Name(), provider.StatusTable(), cfg.Location)
	}

	return &FixtureSyncService{
		provider:   provider,
		normalizer: normalizer,
		cache:      cache,
		runs:       runs,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

type fixtureUnit struct {
	label  string
	league string
	from   time.Time
	to     time.Time
}

func (s *FixtureSyncService) Sync(ctx context.Context, input FixtureSyncInput) (summary SyncSummary, err error) {
	ctx, cancel := s.cfg.invocationContext(ctx)
	defer cancel()
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureSyncService.Sync")
	defer span.End()

	run := s.runs.Start(ctx, syncrun.TypeFixtures, fixture.SportFootball)
	defer func() {
		if rec := recover(); rec != nil {
			run.Abort(fmt.Errorf("panic: %v", rec))
		}
		summary = s.runs.Finish(ctx, run)
	}()

	if s.provider == nil || s.cache == nil {
		err = fmt.Errorf("%w: schedule provider is not configured", ErrDependencyUnavailable)
		run.Abort(err)
		return summary, err
	}

	units, err := s.plan(input)
	if err != nil {
		run.Abort(err)
		return summary, err
	}

	opts := batch.Options{Size: 1, Delay: s.cfg.BatchDelay}
	if input.Mode == FixtureSyncModeBackfill {
		opts.Size = s.cfg.BackfillBatchDays
	}

	outcomes := batch.Run(ctx, units, opts, func(ctx context.Context, unit fixtureUnit) (unitResult, error) {
		return s.syncUnit(ctx, unit)
	})
	for idx, outcome := range outcomes {
		unit := units[idx]
		if outcome.Err != nil {
			s.logger.WarnContext(ctx, "fixture sync unit failed", "unit", unit.label, "error", outcome.Err)
			run.UnitFailed(unit.label, outcome.Err)
			continue
		}
		run.UnitSucceeded(outcome.Value.written)
		for _, recErr := range outcome.Value.errs {
			run.RecordError(unit.label, recErr)
		}
	}

	return summary, nil
}

func (s *FixtureSyncService) plan(input FixtureSyncInput) ([]fixtureUnit, error) {
	mode := input.Mode
	if mode == "" {
		mode = FixtureSyncModeLeagues
	}

	from, to, err := s.cfg.dateRange(s.now(), input.Start, input.End)
	if err != nil {
		return nil, err
	}

	switch mode {
	case FixtureSyncModeLeagues:
		leagues := normalizeCodes(input.Leagues, toUpper)
		if len(leagues) == 0 {
			leagues = s.cfg.Competitions
		}
		if len(leagues) == 0 {
			return nil, fmt.Errorf("%w: no competitions configured", ErrInvalidInput)
		}
		units := make([]fixtureUnit, 0, len(leagues))
		for _, code := range leagues {
			units = append(units, fixtureUnit{
				label:  "league:" + code,
				league: code,
				from:   from,
				to:     to,
			})
		}
		return units, nil
	case FixtureSyncModeBackfill:
		days := daysBetween(from, to)
		units := make([]fixtureUnit, 0, len(days))
		for _, day := range days {
			units = append(units, fixtureUnit{
				label: "date:" + day.Format(referenceDateLayout),
				from:  day,
				to:    day,
			})
		}
		return units, nil
	default:
		return nil, fmt.Errorf("%w: mode must be %s or %s", ErrInvalidInput, FixtureSyncModeLeagues, FixtureSyncModeBackfill)
	}
}

type unitResult struct {
	written int
	errs    []error
}

func (s *FixtureSyncService) syncUnit(ctx context.Context, unit fixtureUnit) (unitResult, error) {
	var (
		records []ExternalFixture
		err     error
	)
	if unit.league != "" {
		records, err = s.provider.FetchLeagueFixtures(ctx, unit.league, unit.from, unit.to)
	} else {
		records, err = s.provider.FetchFixturesByDate(ctx, unit.from, unit.to)
	}
	if err != nil {
		return unitResult{}, fmt.Errorf("fetch fixtures %s: %w", unit.label, err)
	}

	var result unitResult
	allowed := s.allowedCompetitions(unit)
	items := make([]fixture.Fixture, 0, len(records))
	teams := make([]team.Team, 0, len(records)*2)
	for _, record := range records {
		if allowed != nil {
			if _, ok := allowed[toUpper(record.LeagueCode)]; !ok {
				continue
			}
		}
		item, err := s.normalizer.Normalize(record)
		if err != nil {
			result.errs = append(result.errs, err)
			continue
		}
		items = append(items, item)
		teams = append(teams, s.normalizer.Teams(record)...)
	}

	upserted := s.cache.Upsert(ctx, items, teams...)
	result.written = upserted.Written
	result.errs = append(result.errs, upserted.Errors...)

	s.logger.InfoContext(ctx, "fixture sync unit done",
		"unit", unit.label,
		"fetched", len(records),
		"written", upserted.Written,
		"errors", len(result.errs),
	)
	return result, nil
}

// allowedCompetitions limits date backfills to configured competitions.
func (s *FixtureSyncService) allowedCompetitions(unit fixtureUnit) map[string]struct{} {
	if unit.league != "" || len(s.cfg.Competitions) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(s.cfg.Competitions))
	for _, code := range s.cfg.Competitions {
		out[code] = struct{}{}
	}
	return out
}
