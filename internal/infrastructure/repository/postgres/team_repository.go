package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday-sync/internal/domain/team"
	qb "github.com/riskibarqy/matchday-sync/internal/platform/querybuilder"
)

type TeamRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db, now: time.Now}
}

// UpsertTeams keeps the first non-empty logo; other columns follow the latest provider data.
func (r *TeamRepository) UpsertTeams(ctx context.Context, items []team.Team) error {
	if len(items) == 0 {
		return nil
	}

	now := r.now().UTC()
	models := make([]teamInsertModel, 0, len(items))
	for _, item := range items {
		models = append(models, teamInsertModel{
			ProviderID:   item.ProviderID,
			SportType:    item.SportType,
			Name:         item.Name,
			ShortName:    item.ShortName,
			Abbreviation: item.Abbreviation,
			Logo:         item.Logo,
			UpdatedAt:    now,
		})
	}

	query, args, err := qb.InsertModels("teams", models, `ON CONFLICT (provider_id, sport_type)
DO UPDATE SET
    name = EXCLUDED.name,
    short_name = EXCLUDED.short_name,
    abbreviation = EXCLUDED.abbreviation,
    logo = COALESCE(NULLIF(EXCLUDED.logo, ''), teams.logo),
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert teams query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert teams count=%d: %w", len(items), err)
	}
	return nil
}
