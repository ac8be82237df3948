package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
)

// LiveSyncService overlays the live snapshot onto cached fixtures and then
// finalizes rows the snapshot no longer reports.
type LiveSyncService struct {
	provider   LiveProvider
	fixtures   fixture.Repository
	normalizer *Normalizer
	matcher    *Matcher
	reconciler *OrphanReconciler
	rearm      *JobOrchestratorService
	runs       *RunLogger
	cfg        SyncConfig
	logger     *logging.Logger
	now        func() time.Time
}

func NewLiveSyncService(
	provider LiveProvider,
	fixtures fixture.Repository,
	matcher *Matcher,
	reconciler *OrphanReconciler,
	rearm *JobOrchestratorService,
	runs *RunLogger,
	cfg SyncConfig,
	logger *logging.Logger,
) *LiveSyncService {
	cfg = NormalizeSyncConfig(cfg)
	if logger == nil {
		logger = logging.Default()
	}
	if matcher == nil {
		matcher = NewMatcher(logger)
	}

	var normalizer *Normalizer
	if provider != nil {
		normalizer = NewNormalizer(provider.Name(), provider.StatusTable(), cfg.Location)
	}

	return &LiveSyncService{
		provider:   provider,
		fixtures:   fixtures,
		normalizer: normalizer,
		matcher:    matcher,
		reconciler: reconciler,
		rearm:      rearm,
		runs:       runs,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

type candidateKey struct {
	league string
	date   string
}

func (s *LiveSyncService) Sync(ctx context.Context) (summary SyncSummary, err error) {
	ctx, cancel := s.cfg.invocationContext(ctx)
	defer cancel()
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveSyncService.Sync")
	defer span.End()

	run := s.runs.Start(ctx, syncrun.TypeLive, fixture.SportFootball)
	defer func() {
		if rec := recover(); rec != nil {
			run.Abort(fmt.Errorf("panic: %v", rec))
		}
		summary = s.runs.Finish(ctx, run)
	}()

	if s.provider == nil || s.fixtures == nil {
		err = fmt.Errorf("%w: live provider is not configured", ErrDependencyUnavailable)
		run.Abort(err)
		return summary, err
	}

	dates := ReferenceDates(s.now(), s.cfg.Location, s.cfg.LookbackDays)

	snapshot, err := s.provider.FetchLiveSnapshot(ctx)
	if err != nil {
		// Absence from a failed snapshot says nothing, so the reconciler is skipped too.
		s.logger.WarnContext(ctx, "live snapshot unavailable, skipping overlay and reconcile", "error", err)
		run.UnitFailed("snapshot", fmt.Errorf("fetch live snapshot: %w", err))
		return summary, nil
	}

	seen, applied := s.overlay(ctx, run, snapshot, dates)
	run.UnitSucceeded(applied)

	if s.reconciler != nil {
		result, err := s.reconciler.Reconcile(ctx, ReconcileInput{
			SportType: fixture.SportFootball,
			Dates:     dates,
			Seen:      seen,
		})
		if err != nil {
			run.UnitFailed("reconcile", err)
		} else {
			run.UnitSucceeded(0)
			run.AddFinalized(result.Finalized)
		}
	}

	if s.rearm != nil {
		if _, err := s.rearm.AfterLivePass(ctx, len(seen), dates[0]); err != nil {
			run.RecordError("rearm", err)
		}
	}

	return summary, nil
}

func (s *LiveSyncService) overlay(
	ctx context.Context,
	run *RunTracker,
	snapshot []ExternalLiveEvent,
	dates []string,
) (map[fixture.Key]struct{}, int) {
	seen := make(map[fixture.Key]struct{}, len(snapshot))
	candidates := make(map[candidateKey][]fixture.Fixture)
	applied := 0

	load := func(league, date string) ([]fixture.Fixture, error) {
		key := candidateKey{league: league, date: date}
		if rows, ok := candidates[key]; ok {
			return rows, nil
		}
		rows, err := s.fixtures.ListByLeagueAndDate(ctx, fixture.SportFootball, league, date)
		if err != nil {
			return nil, err
		}
		candidates[key] = rows
		return rows, nil
	}

	for _, event := range snapshot {
		label := "live:" + event.ProviderEventID
		status, err := s.normalizer.ResolveStatus(event.StatusCode)
		if err != nil {
			run.RecordError(label, err)
			continue
		}

		league := strings.ToUpper(strings.TrimSpace(event.LeagueCode))
		if league == "" {
			run.AddMatchOutcome(MatchOutcomeUnmatched)
			continue
		}

		tryDates := dates
		if !event.Kickoff.IsZero() {
			tryDates = []string{s.normalizer.MatchDate(event.Kickoff)}
		}

		result := MatchResult{Outcome: MatchOutcomeUnmatched}
		for _, date := range tryDates {
			rows, err := load(league, date)
			if err != nil {
				run.RecordError(label, fmt.Errorf("load candidates league=%s date=%s: %w", league, date, err))
				break
			}
			result = s.matcher.MatchAndReport(ctx, league, rows, event.HomeName, event.AwayName)
			if result.Outcome != MatchOutcomeUnmatched {
				break
			}
		}
		run.AddMatchOutcome(result.Outcome)
		if result.Outcome == MatchOutcomeAmbiguous {
			// The feed still reports one of these rows, so none may be finalized as an orphan.
			for _, key := range result.Keys {
				seen[key] = struct{}{}
			}
			continue
		}
		if !result.Matched() {
			continue
		}

		key := result.Fixture.Key()
		seen[key] = struct{}{}

		update := fixture.LiveUpdate{Key: key, Status: status}
		if status.IsLive() {
			update.Minute = event.Minute
		}
		if status.HasStarted() {
			update.HomeScore = event.HomeScore
			update.AwayScore = event.AwayScore
		}
		ok, err := s.fixtures.ApplyLiveUpdate(ctx, update)
		if err != nil {
			run.RecordError(label, fmt.Errorf("%w: apply live update fixture=%s: %w", ErrCacheWriteFailed, key, err))
			continue
		}
		if ok {
			applied++
		}
	}

	return seen, applied
}
