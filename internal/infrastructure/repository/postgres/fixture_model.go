package postgres

import (
	"time"
)

type fixtureTableModel struct {
	ProviderID    int64     `db:"provider_id"`
	SportType     string    `db:"sport_type"`
	MatchDate     time.Time `db:"match_date"`
	Kickoff       time.Time `db:"kickoff"`
	Minute        *int      `db:"minute"`
	Status        string    `db:"status"`
	Stage         string    `db:"stage"`
	Matchday      *int      `db:"matchday"`
	LeagueCode    string    `db:"league_code"`
	LeagueName    string    `db:"league_name"`
	LeagueLogo    string    `db:"league_logo"`
	HomeTeamID    int64     `db:"home_team_id"`
	HomeName      string    `db:"home_name"`
	HomeShortName string    `db:"home_short_name"`
	HomeLogo      string    `db:"home_logo"`
	HomeScore     *int      `db:"home_score"`
	AwayTeamID    int64     `db:"away_team_id"`
	AwayName      string    `db:"away_name"`
	AwayShortName string    `db:"away_short_name"`
	AwayLogo      string    `db:"away_logo"`
	AwayScore     *int      `db:"away_score"`
	Venue         string    `db:"venue"`
	MatchDetails  []byte    `db:"match_details"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// fixtureInsertModel leaves match_details to the enrichment pass.
type fixtureInsertModel struct {
	ProviderID    int64     `db:"provider_id"`
	SportType     string    `db:"sport_type"`
	MatchDate     string    `db:"match_date"`
	Kickoff       time.Time `db:"kickoff"`
	Minute        *int      `db:"minute"`
	Status        string    `db:"status"`
	Stage         string    `db:"stage"`
	Matchday      *int      `db:"matchday"`
	LeagueCode    string    `db:"league_code"`
	LeagueName    string    `db:"league_name"`
	LeagueLogo    string    `db:"league_logo"`
	HomeTeamID    int64     `db:"home_team_id"`
	HomeName      string    `db:"home_name"`
	HomeShortName string    `db:"home_short_name"`
	HomeLogo      string    `db:"home_logo"`
	HomeScore     *int      `db:"home_score"`
	AwayTeamID    int64     `db:"away_team_id"`
	AwayName      string    `db:"away_name"`
	AwayShortName string    `db:"away_short_name"`
	AwayLogo      string    `db:"away_logo"`
	AwayScore     *int      `db:"away_score"`
	Venue         string    `db:"venue"`
	UpdatedAt     time.Time `db:"updated_at"`
}
