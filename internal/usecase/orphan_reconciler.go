package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/metrics"
)

const (
	cutoffKindCup    = "cup"
	cutoffKindLeague = "league"
)

type ReconcilerConfig struct {
	CupCutoff       time.Duration
	LeagueCutoff    time.Duration
	CupCompetitions []string
}

func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		CupCutoff:       2 * time.Hour,
		LeagueCutoff:    105 * time.Minute,
		CupCompetitions: []string{"CL", "EL", "ECL", "FAC", "EFL", "DFB", "CDR", "CI", "CDF", "WC", "EC"},
	}
}

type ReconcileInput struct {
	SportType string
	// Dates are the reference match dates to scan.
	Dates []string
	// Seen holds the keys the current live snapshot still reports.
	Seen map[fixture.Key]struct{}
}

type ReconcileResult struct {
	Candidates int           `json:"candidates"`
	Finalized  int           `json:"finalized"`
	Keys       []fixture.Key `json:"-"`
}

// OrphanReconciler finalizes live rows the live feed stopped reporting once
// kickoff is older than the competition's cutoff. It only moves live rows to finished.
type OrphanReconciler struct {
	repo   fixture.Repository
	cfg    ReconcilerConfig
	cups   map[string]struct{}
	logger *logging.Logger
	now    func() time.Time
}

func NewOrphanReconciler(repo fixture.Repository, cfg ReconcilerConfig, logger *logging.Logger) *OrphanReconciler {
	defaults := DefaultReconcilerConfig()
	if cfg.CupCutoff <= 0 {
		cfg.CupCutoff = defaults.CupCutoff
	}
	if cfg.LeagueCutoff <= 0 {
		cfg.LeagueCutoff = defaults.LeagueCutoff
	}
	if cfg.CupCompetitions == nil {
		cfg.CupCompetitions = defaults.CupCompetitions
	}
	if logger == nil {
		logger = logging.Default()
	}

	cups := make(map[string]struct{}, len(cfg.CupCompetitions))
	for _, code := range cfg.CupCompetitions {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" {
			cups[code] = struct{}{}
		}
	}

	return &OrphanReconciler{
		repo:   repo,
		cfg:    cfg,
		cups:   cups,
		logger: logger,
		now:    time.Now,
	}
}

// CutoffFor returns the live window of a fixture and whether the cup rule applied.
func (r *OrphanReconciler) CutoffFor(item fixture.Fixture) (time.Duration, bool) {
	if _, ok := r.cups[strings.ToUpper(strings.TrimSpace(item.LeagueCode))]; ok {
		return r.cfg.CupCutoff, true
	}
	if IsKnockoutStage(item.Stage) {
		return r.cfg.CupCutoff, true
	}
	return r.cfg.LeagueCutoff, false
}

func (r *OrphanReconciler) Reconcile(ctx context.Context, input ReconcileInput) (ReconcileResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.OrphanReconciler.Reconcile")
	defer span.End()

	var result ReconcileResult
	sport := fixture.NormalizeSport(input.SportType)
	if len(input.Dates) == 0 {
		return result, nil
	}

	rows, err := r.repo.ListLiveByDates(ctx, sport, input.Dates)
	if err != nil {
		return result, fmt.Errorf("list live fixtures sport=%s dates=%s: %w", sport, strings.Join(input.Dates, ","), err)
	}

	now := r.now()
	due := map[string][]fixture.Key{}
	for _, row := range rows {
		if !row.Status.IsLive() {
			continue
		}
		result.Candidates++
		if _, ok := input.Seen[row.Key()]; ok {
			continue
		}

		cutoff, cup := r.CutoffFor(row)
		if now.Sub(row.Kickoff) <= cutoff {
			continue
		}
		kind := cutoffKindLeague
		if cup {
			kind = cutoffKindCup
		}
		due[kind] = append(due[kind], row.Key())
	}

	for _, kind := range []string{cutoffKindCup, cutoffKindLeague} {
		keys := due[kind]
		if len(keys) == 0 {
			continue
		}
		count, err := r.repo.MarkFinished(ctx, keys)
		if err != nil {
			return result, fmt.Errorf("finalize orphaned live fixtures cutoff=%s: %w", kind, err)
		}
		metrics.RecordFinalized(sport, kind, count)
		result.Finalized += count
		result.Keys = append(result.Keys, keys...)
		r.logger.InfoContext(ctx, "finalized orphaned live fixtures",
			"sport_type", sport,
			"cutoff", kind,
			"finalized", count,
		)
	}

	return result, nil
}

// IsKnockoutStage reports stage labels of elimination rounds, which may run to extra time.
func IsKnockoutStage(stage string) bool {
	value := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(stage), "_", " "))
	if value == "" {
		return false
	}
	for _, marker := range []string{"final", "knockout", "round of", "last 16", "last 32", "play off", "playoff"} {
		if strings.Contains(value, marker) {
			return true
		}
	}
	return false
}

// ReferenceDates lists the reference day of now followed by lookback previous days.
func ReferenceDates(now time.Time, loc *time.Location, lookback int) []string {
	if loc == nil {
		loc = time.UTC
	}
	if lookback < 0 {
		lookback = 0
	}
	local := now.In(loc)
	out := make([]string, 0, lookback+1)
	for i := 0; i <= lookback; i++ {
		out = append(out, local.AddDate(0, 0, -i).Format("2006-01-02"))
	}
	return out
}
