package postgres

import (
	"time"

	"github.com/google/uuid"
)

type syncRunTableModel struct {
	ID            uuid.UUID  `db:"id"`
	SyncType      string     `db:"sync_type"`
	SportType     string     `db:"sport_type"`
	RecordsSynced int        `db:"records_synced"`
	Status        string     `db:"status"`
	ErrorMessage  *string    `db:"error_message"`
	StartedAt     time.Time  `db:"started_at"`
	CompletedAt   time.Time  `db:"completed_at"`
	DurationMs    int64      `db:"duration_ms"`
	TraceID       *string    `db:"trace_id"`
	CreatedAt     *time.Time `db:"created_at"`
}

type syncRunInsertModel struct {
	ID            uuid.UUID `db:"id"`
	SyncType      string    `db:"sync_type"`
	SportType     string    `db:"sport_type"`
	RecordsSynced int       `db:"records_synced"`
	Status        string    `db:"status"`
	ErrorMessage  *string   `db:"error_message"`
	StartedAt     time.Time `db:"started_at"`
	CompletedAt   time.Time `db:"completed_at"`
	DurationMs    int64     `db:"duration_ms"`
	TraceID       *string   `db:"trace_id"`
}
