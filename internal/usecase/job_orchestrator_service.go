package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
)

const liveSyncPath = "/v1/internal/sync/live"

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(_ context.Context, _ string, _ any, _ time.Duration, _ string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

type JobOrchestratorConfig struct {
	LiveInterval   time.Duration
	PreKickoffLead time.Duration
	// Horizon bounds how far ahead an upcoming kickoff can arm the next live pass.
	Horizon time.Duration
}

type RearmResult struct {
	Queued  bool          `json:"queued"`
	Delay   time.Duration `json:"delay"`
	DedupID string        `json:"dedup_id,omitempty"`
}

// JobOrchestratorService re-arms the live sync through the job queue: soon while
// matches are in play, otherwise just before the next kickoff of the day.
type JobOrchestratorService struct {
	fixtures fixture.Repository
	queue    JobQueue
	cfg      JobOrchestratorConfig
	logger   *logging.Logger
	now      func() time.Time
}

var dedupUnsafeCharRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func NewJobOrchestratorService(
	fixtures fixture.Repository,
	queue JobQueue,
	cfg JobOrchestratorConfig,
	logger *logging.Logger,
) *JobOrchestratorService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.LiveInterval <= 0 {
		cfg.LiveInterval = 2 * time.Minute
	}
	if cfg.PreKickoffLead <= 0 {
		cfg.PreKickoffLead = 5 * time.Minute
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = 12 * time.Hour
	}

	return &JobOrchestratorService{
		fixtures: fixtures,
		queue:    queue,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// AfterLivePass decides whether and when the next live pass runs.
func (s *JobOrchestratorService) AfterLivePass(ctx context.Context, liveCount int, referenceDate string) (RearmResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobOrchestratorService.AfterLivePass")
	defer span.End()

	now := s.now().UTC()
	if liveCount > 0 {
		return s.enqueueLive(ctx, s.cfg.LiveInterval, now)
	}
	if s.fixtures == nil {
		return RearmResult{}, nil
	}

	rows, err := s.fixtures.ListByDate(ctx, fixture.SportFootball, referenceDate)
	if err != nil {
		return RearmResult{}, fmt.Errorf("list fixtures for live re-arm date=%s: %w", referenceDate, err)
	}

	hasLive, nearestUpcoming := analyzeFixtures(rows, now)
	switch {
	case hasLive:
		return s.enqueueLive(ctx, s.cfg.LiveInterval, now)
	case nearestUpcoming != nil:
		delay := nearestUpcoming.Add(-s.cfg.PreKickoffLead).Sub(now)
		if delay > s.cfg.Horizon {
			return RearmResult{}, nil
		}
		return s.enqueueLive(ctx, maxDuration(delay, s.cfg.LiveInterval), now)
	default:
		return RearmResult{}, nil
	}
}

func (s *JobOrchestratorService) enqueueLive(ctx context.Context, delay time.Duration, now time.Time) (RearmResult, error) {
	dedupID := dedupKey("sync-live", fixture.SportFootball, now.Add(delay), s.cfg.LiveInterval)
	payload := map[string]any{
		"sport_type":  fixture.SportFootball,
		"dispatch_id": dedupID,
	}
	if err := s.queue.Enqueue(ctx, liveSyncPath, payload, delay, dedupID); err != nil {
		s.logger.WarnContext(ctx, "enqueue live sync failed",
			"dispatch_id", dedupID,
			"delay", delay.String(),
			"error", err,
		)
		return RearmResult{}, fmt.Errorf("enqueue sync-live: %w", err)
	}

	s.logger.InfoContext(ctx, "live sync re-armed", "dispatch_id", dedupID, "delay", delay.String())
	return RearmResult{Queued: true, Delay: delay, DedupID: dedupID}, nil
}

func dedupKey(prefix, scope string, at time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	slot := at.UTC().Truncate(bucket).Format("20060102T150405Z")
	return sanitizeDedupSegment(prefix) + "-" + sanitizeDedupSegment(scope) + "-" + slot
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeCharRegex.ReplaceAllString(value, "-")
}

func analyzeFixtures(items []fixture.Fixture, now time.Time) (bool, *time.Time) {
	var nearestUpcoming *time.Time
	hasLive := false
	for _, item := range items {
		if item.Status.IsLive() {
			hasLive = true
		}
		if item.Status != fixture.StatusNotStarted || item.Kickoff.IsZero() || item.Kickoff.Before(now) {
			continue
		}
		if nearestUpcoming == nil || item.Kickoff.Before(*nearestUpcoming) {
			next := item.Kickoff
			nearestUpcoming = &next
		}
	}
	return hasLive, nearestUpcoming
}

func maxDuration(left, right time.Duration) time.Duration {
	if left > right {
		return left
	}
	return right
}
