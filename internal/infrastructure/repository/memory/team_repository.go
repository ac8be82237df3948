package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/team"
)

type TeamRepository struct {
	mu    sync.RWMutex
	teams map[fixture.Key]team.Team
}

func NewTeamRepository() *TeamRepository {
	return &TeamRepository{teams: make(map[fixture.Key]team.Team)}
}

func (r *TeamRepository) UpsertTeams(_ context.Context, items []team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		r.teams[fixture.Key{ProviderID: item.ProviderID, SportType: item.SportType}] = item
	}
	return nil
}

func (r *TeamRepository) Get(providerID int64, sportType string) (team.Team, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.teams[fixture.Key{ProviderID: providerID, SportType: sportType}]
	return item, ok
}

func (r *TeamRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.teams)
}
