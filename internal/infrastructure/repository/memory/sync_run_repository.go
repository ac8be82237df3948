package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/matchday-sync/internal/domain/syncrun"
)

type SyncRunRepository struct {
	mu   sync.RWMutex
	runs []syncrun.Run
}

func NewSyncRunRepository() *SyncRunRepository {
	return &SyncRunRepository{}
}

func (r *SyncRunRepository) Insert(_ context.Context, run syncrun.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

// ListRecent returns the newest runs first.
func (r *SyncRunRepository) ListRecent(_ context.Context, limit int) ([]syncrun.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]syncrun.Run, 0, len(r.runs))
	for i := len(r.runs) - 1; i >= 0; i-- {
		out = append(out, r.runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
