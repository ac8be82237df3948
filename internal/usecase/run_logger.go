package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	"github.com/riskibarqy/matchday-sync/internal/platform/id"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/metrics"
)

const (
	maxSummaryErrors     = 20
	maxRunErrorMessage   = 2000
	runLoggerWriteBudget = 5 * time.Second
)

type UnitError struct {
	Unit    string `json:"unit"`
	Message string `json:"message"`
}

// SyncSummary is returned by every sync invocation.
type SyncSummary struct {
	RunID         string      `json:"run_id"`
	SyncType      string      `json:"sync_type"`
	SportType     string      `json:"sport_type"`
	Status        string      `json:"status"`
	RecordsSynced int         `json:"records_synced"`
	Units         int         `json:"units"`
	FailedUnits   int         `json:"failed_units"`
	Finalized     int         `json:"finalized,omitempty"`
	Unmatched     int         `json:"unmatched,omitempty"`
	Ambiguous     int         `json:"ambiguous,omitempty"`
	DurationMs    int64       `json:"duration_ms"`
	StartedAt     time.Time   `json:"started_at"`
	Errors        []UnitError `json:"errors"`
	ErrorCount    int         `json:"error_count"`
}

// RunTracker accumulates the outcome of one invocation. It is safe for concurrent units.
type RunTracker struct {
	mu sync.Mutex

	id        uuid.UUID
	syncType  string
	sportType string
	startedAt time.Time
	traceID   string

	records     int
	units       int
	failedUnits int
	otherErrors int
	finalized   int
	unmatched   int
	ambiguous   int
	aborted     bool
	errs        []UnitError
	errCount    int
	firstErr    error
}

// UnitSucceeded records a completed work unit and the rows it wrote.
func (t *RunTracker) UnitSucceeded(records int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.units++
	t.records += records
}

// UnitFailed records a work unit that produced nothing usable.
func (t *RunTracker) UnitFailed(unit string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.units++
	t.failedUnits++
	t.appendErr(unit, err)
}

// RecordError notes a record or batch level error inside an otherwise completed unit.
func (t *RunTracker) RecordError(unit string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.otherErrors++
	t.appendErr(unit, err)
}

// Abort marks the invocation as failed before its core loop completed.
func (t *RunTracker) Abort(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.aborted = true
	t.appendErr("run", err)
}

func (t *RunTracker) AddFinalized(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finalized += n
}

func (t *RunTracker) AddMatchOutcome(outcome MatchOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch outcome {
	case MatchOutcomeUnmatched:
		t.unmatched++
	case MatchOutcomeAmbiguous:
		t.ambiguous++
	}
}

// Err returns the first recorded error, if any.
func (t *RunTracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.firstErr
}

func (t *RunTracker) appendErr(unit string, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	if t.firstErr == nil {
		t.firstErr = err
	}
	t.errCount++
	if len(t.errs) < maxSummaryErrors {
		t.errs = append(t.errs, UnitError{Unit: unit, Message: err.Error()})
	}
}

// RunLogger writes exactly one audit row per invocation. Write failures are logged and swallowed.
type RunLogger struct {
	repo   syncrun.Repository
	ids    id.Generator
	logger *logging.Logger
	now    func() time.Time
}

func NewRunLogger(repo syncrun.Repository, ids id.Generator, logger *logging.Logger) *RunLogger {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RunLogger{
		repo:   repo,
		ids:    ids,
		logger: logger,
		now:    time.Now,
	}
}

func (l *RunLogger) Start(ctx context.Context, syncType, sportType string) *RunTracker {
	runID, err := l.ids.NewID()
	if err != nil {
		runID = uuid.New()
	}
	return &RunTracker{
		id:        runID,
		syncType:  syncType,
		sportType: sportType,
		startedAt: l.now().UTC(),
		traceID:   traceIDFromContext(ctx),
	}
}

// Finish derives the run status, writes the audit row and returns the summary.
// Call it from a deferred function so it runs on every path.
func (l *RunLogger) Finish(ctx context.Context, t *RunTracker) SyncSummary {
	t.mu.Lock()
	completedAt := l.now().UTC()
	status := syncrun.DeriveStatus(t.aborted, t.units, t.failedUnits, t.otherErrors)
	summary := SyncSummary{
		RunID:         t.id.String(),
		SyncType:      t.syncType,
		SportType:     t.sportType,
		Status:        string(status),
		RecordsSynced: t.records,
		Units:         t.units,
		FailedUnits:   t.failedUnits,
		Finalized:     t.finalized,
		Unmatched:     t.unmatched,
		Ambiguous:     t.ambiguous,
		DurationMs:    completedAt.Sub(t.startedAt).Milliseconds(),
		StartedAt:     t.startedAt,
		Errors:        append([]UnitError{}, t.errs...),
		ErrorCount:    t.errCount,
	}
	run := syncrun.Run{
		ID:            t.id,
		SyncType:      t.syncType,
		SportType:     t.sportType,
		RecordsSynced: t.records,
		Status:        status,
		ErrorMessage:  joinUnitErrors(t.errs, t.errCount),
		StartedAt:     t.startedAt,
		CompletedAt:   completedAt,
		DurationMs:    summary.DurationMs,
		TraceID:       t.traceID,
	}
	t.mu.Unlock()

	metrics.RecordSyncRun(run.SyncType, run.SportType, string(run.Status), run.RecordsSynced, float64(run.DurationMs)/1000)
	l.Record(ctx, run)
	return summary
}

// Reject writes the error row of an invocation that failed before its service started,
// such as a malformed request body.
func (l *RunLogger) Reject(ctx context.Context, syncType, sportType string, err error) SyncSummary {
	run := l.Start(ctx, syncType, sportType)
	run.Abort(err)
	return l.Finish(ctx, run)
}

// Record inserts run on a context detached from the caller's cancellation.
func (l *RunLogger) Record(ctx context.Context, run syncrun.Run) {
	if l.repo == nil {
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), runLoggerWriteBudget)
	defer cancel()

	if err := l.repo.Insert(writeCtx, run); err != nil {
		l.logger.ErrorContext(ctx, "write sync run log failed",
			"run_id", run.ID.String(),
			"sync_type", run.SyncType,
			"status", string(run.Status),
			"error", err,
		)
		return
	}

	l.logger.InfoContext(ctx, "sync run finished",
		"run_id", run.ID.String(),
		"sync_type", run.SyncType,
		"sport_type", run.SportType,
		"status", string(run.Status),
		"records", run.RecordsSynced,
		"duration_ms", run.DurationMs,
	)
}

func (l *RunLogger) ListRecent(ctx context.Context, limit int) ([]syncrun.Run, error) {
	if l.repo == nil {
		return nil, fmt.Errorf("%w: run log storage is not configured", ErrDependencyUnavailable)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	runs, err := l.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	return runs, nil
}

func joinUnitErrors(errs []UnitError, total int) string {
	if len(errs) == 0 {
		return ""
	}
	var b strings.Builder
	for i, item := range errs {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(item.Unit)
		b.WriteString(": ")
		b.WriteString(item.Message)
	}
	if total > len(errs) {
		fmt.Fprintf(&b, "; and %d more", total-len(errs))
	}
	return truncateRunes(b.String(), maxRunErrorMessage)
}

// truncateRunes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
