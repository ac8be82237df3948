package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	qb "github.com/riskibarqy/matchday-sync/internal/platform/querybuilder"
)

var fixtureConflictColumns = []string{"provider_id", "sport_type"}

type FixtureRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db, now: time.Now}
}

// UpsertBatch writes every item in one statement; a conflict replaces all tracked columns.
func (r *FixtureRepository) UpsertBatch(ctx context.Context, items []fixture.Fixture) error {
	if len(items) == 0 {
		return nil
	}

	now := r.now().UTC()
	models := make([]fixtureInsertModel, 0, len(items))
	for _, item := range items {
		models = append(models, fixtureToInsertModel(item, now))
	}

	columns, err := qb.Columns(models[0])
	if err != nil {
		return fmt.Errorf("resolve fixture columns: %w", err)
	}
	query, args, err := qb.InsertModels("fixtures", models, qb.OnConflictUpdate(fixtureConflictColumns, columns))
	if err != nil {
		return fmt.Errorf("build upsert fixtures query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert fixtures count=%d: %w", len(items), err)
	}
	return nil
}

func (r *FixtureRepository) ListByDate(ctx context.Context, sportType, matchDate string) ([]fixture.Fixture, error) {
	return r.list(ctx, "by date", 0,
		qb.Eq("sport_type", sportType),
		qb.Eq("match_date", matchDate),
	)
}

func (r *FixtureRepository) ListByTeam(ctx context.Context, sportType string, teamID int64, limit int) ([]fixture.Fixture, error) {
	return r.list(ctx, "by team", limit,
		qb.Eq("sport_type", sportType),
		qb.Or(qb.Eq("home_team_id", teamID), qb.Eq("away_team_id", teamID)),
	)
}

func (r *FixtureRepository) ListByLeagueAndDate(ctx context.Context, sportType, leagueCode, matchDate string) ([]fixture.Fixture, error) {
	return r.list(ctx, "by league and date", 0,
		qb.Eq("sport_type", sportType),
		qb.Eq("league_code", leagueCode),
		qb.Eq("match_date", matchDate),
	)
}

func (r *FixtureRepository) ListLiveByDates(ctx context.Context, sportType string, matchDates []string) ([]fixture.Fixture, error) {
	if len(matchDates) == 0 {
		return nil, nil
	}
	return r.list(ctx, "live by dates", 0,
		qb.Eq("sport_type", sportType),
		qb.Any("match_date", pq.Array(matchDates)),
		qb.Any("status", pq.Array(liveStatusValues())),
	)
}

func (r *FixtureRepository) ListFinishedWithoutDetails(ctx context.Context, sportType, matchDate string, limit int) ([]fixture.Fixture, error) {
	return r.list(ctx, "finished without details", limit,
		qb.Eq("sport_type", sportType),
		qb.Eq("match_date", matchDate),
		qb.Eq("status", string(fixture.StatusFinished)),
		qb.IsNull("match_details"),
	)
}

// ApplyLiveUpdate never touches a row that is already finished.
func (r *FixtureRepository) ApplyLiveUpdate(ctx context.Context, update fixture.LiveUpdate) (bool, error) {
	query, args, err := qb.Update("fixtures").
		Set("status", string(update.Status)).
		Set("minute", update.Minute).
		Set("home_score", update.HomeScore).
		Set("away_score", update.AwayScore).
		Set("updated_at", r.now().UTC()).
		Where(
			qb.Eq("provider_id", update.Key.ProviderID),
			qb.Eq("sport_type", update.Key.SportType),
			qb.NotEq("status", string(fixture.StatusFinished)),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build apply live update query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("apply live update fixture=%s: %w", update.Key, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read live update result fixture=%s: %w", update.Key, err)
	}
	return affected > 0, nil
}

func (r *FixtureRepository) MarkFinished(ctx context.Context, keys []fixture.Key) (int, error) {
	bySport := make(map[string][]int64)
	for _, key := range keys {
		bySport[key.SportType] = append(bySport[key.SportType], key.ProviderID)
	}

	total := 0
	now := r.now().UTC()
	for sportType, ids := range bySport {
		query, args, err := qb.Update("fixtures").
			Set("status", string(fixture.StatusFinished)).
			Set("minute", nil).
			Set("updated_at", now).
			Where(
				qb.Eq("sport_type", sportType),
				qb.Any("provider_id", pq.Array(ids)),
				qb.Any("status", pq.Array(liveStatusValues())),
			).
			ToSQL()
		if err != nil {
			return total, fmt.Errorf("build mark finished query: %w", err)
		}

		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return total, fmt.Errorf("mark fixtures finished sport=%s count=%d: %w", sportType, len(ids), err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("read mark finished result sport=%s: %w", sportType, err)
		}
		total += int(affected)
	}
	return total, nil
}

func (r *FixtureRepository) SetMatchDetails(ctx context.Context, key fixture.Key, details []byte) error {
	query, args, err := qb.Update("fixtures").
		Set("match_details", string(details)).
		Where(
			qb.Eq("provider_id", key.ProviderID),
			qb.Eq("sport_type", key.SportType),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build set match details query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set match details fixture=%s: %w", key, err)
	}
	return nil
}

func (r *FixtureRepository) list(ctx context.Context, label string, limit int, conditions ...qb.Condition) ([]fixture.Fixture, error) {
	builder := qb.Select("*").From("fixtures").
		Where(conditions...).
		OrderBy("kickoff ASC", "provider_id ASC")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select fixtures %s query: %w", label, err)
	}

	var rows []fixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select fixtures %s: %w", label, err)
	}

	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, fixtureFromRow(row))
	}
	return out, nil
}

func fixtureToInsertModel(item fixture.Fixture, now time.Time) fixtureInsertModel {
	return fixtureInsertModel{
		ProviderID:    item.ProviderID,
		SportType:     item.SportType,
		MatchDate:     item.MatchDate,
		Kickoff:       item.Kickoff.UTC(),
		Minute:        item.Minute,
		Status:        string(item.Status),
		Stage:         item.Stage,
		Matchday:      item.Matchday,
		LeagueCode:    item.LeagueCode,
		LeagueName:    item.LeagueName,
		LeagueLogo:    item.LeagueLogo,
		HomeTeamID:    item.Home.TeamID,
		HomeName:      item.Home.Name,
		HomeShortName: item.Home.ShortName,
		HomeLogo:      item.Home.Logo,
		HomeScore:     item.Home.Score,
		AwayTeamID:    item.Away.TeamID,
		AwayName:      item.Away.Name,
		AwayShortName: item.Away.ShortName,
		AwayLogo:      item.Away.Logo,
		AwayScore:     item.Away.Score,
		Venue:         item.Venue,
		UpdatedAt:     now,
	}
}

func fixtureFromRow(row fixtureTableModel) fixture.Fixture {
	return fixture.Fixture{
		ProviderID: row.ProviderID,
		SportType:  row.SportType,
		MatchDate:  row.MatchDate.Format(dateLayout),
		Kickoff:    row.Kickoff.UTC(),
		Minute:     row.Minute,
		Status:     fixture.Status(row.Status),
		Stage:      row.Stage,
		Matchday:   row.Matchday,
		LeagueCode: row.LeagueCode,
		LeagueName: row.LeagueName,
		LeagueLogo: row.LeagueLogo,
		Home: fixture.Side{
			TeamID:    row.HomeTeamID,
			Name:      row.HomeName,
			ShortName: row.HomeShortName,
			Logo:      row.HomeLogo,
			Score:     row.HomeScore,
		},
		Away: fixture.Side{
			TeamID:    row.AwayTeamID,
			Name:      row.AwayName,
			ShortName: row.AwayShortName,
			Logo:      row.AwayLogo,
			Score:     row.AwayScore,
		},
		Venue:        row.Venue,
		MatchDetails: row.MatchDetails,
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

func liveStatusValues() []string {
	statuses := fixture.LiveStatuses()
	out := make([]string, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, string(status))
	}
	return out
}
