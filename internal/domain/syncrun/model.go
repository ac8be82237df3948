package syncrun

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusError   Status = "error"
)

const (
	TypeFixtures = "fixtures"
	TypeLive     = "live"
	TypeGolf     = "golf"
	TypeEnrich   = "enrich"
)

// Run is one append-only audit row written per sync invocation.
type Run struct {
	ID            uuid.UUID
	SyncType      string
	SportType     string
	RecordsSynced int
	Status        Status
	ErrorMessage  string
	StartedAt     time.Time
	CompletedAt   time.Time
	DurationMs    int64
	TraceID       string
}

// DeriveStatus collapses an invocation outcome into a run status.
// aborted means the core loop never completed; units counts work items attempted.
func DeriveStatus(aborted bool, units, failedUnits, otherErrors int) Status {
	switch {
	case aborted:
		return StatusError
	case units > 0 && failedUnits >= units:
		return StatusError
	case failedUnits > 0 || otherErrors > 0:
		return StatusPartial
	default:
		return StatusSuccess
	}
}
