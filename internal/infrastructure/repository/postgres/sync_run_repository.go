package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
	qb "github.com/riskibarqy/matchday-sync/internal/platform/querybuilder"
)

// SyncRunRepository is append-only; rows are never updated after insert.
type SyncRunRepository struct {
	db *sqlx.DB
}

func NewSyncRunRepository(db *sqlx.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

func (r *SyncRunRepository) Insert(ctx context.Context, run syncrun.Run) error {
	model := syncRunInsertModel{
		ID:            run.ID,
		SyncType:      run.SyncType,
		SportType:     run.SportType,
		RecordsSynced: run.RecordsSynced,
		Status:        string(run.Status),
		ErrorMessage:  optionalString(run.ErrorMessage),
		StartedAt:     run.StartedAt.UTC(),
		CompletedAt:   run.CompletedAt.UTC(),
		DurationMs:    run.DurationMs,
		TraceID:       optionalString(run.TraceID),
	}

	query, args, err := qb.InsertModel("sync_runs", model, "")
	if err != nil {
		return fmt.Errorf("build insert sync run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert sync run id=%s type=%s: %w", run.ID, run.SyncType, err)
	}
	return nil
}

func (r *SyncRunRepository) ListRecent(ctx context.Context, limit int) ([]syncrun.Run, error) {
	builder := qb.Select("*").From("sync_runs").OrderBy("completed_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select recent sync runs query: %w", err)
	}

	var rows []syncRunTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select recent sync runs: %w", err)
	}

	out := make([]syncrun.Run, 0, len(rows))
	for _, row := range rows {
		out = append(out, syncrun.Run{
			ID:            row.ID,
			SyncType:      row.SyncType,
			SportType:     row.SportType,
			RecordsSynced: row.RecordsSynced,
			Status:        syncrun.Status(row.Status),
			ErrorMessage:  derefString(row.ErrorMessage),
			StartedAt:     row.StartedAt.UTC(),
			CompletedAt:   row.CompletedAt.UTC(),
			DurationMs:    row.DurationMs,
			TraceID:       derefString(row.TraceID),
		})
	}
	return out, nil
}
