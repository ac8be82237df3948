package fixture

import "context"

// Repository is the persistent fixture cache.
type Repository interface {
	UpsertBatch(ctx context.Context, items []Fixture) error
	ListByDate(ctx context.Context, sportType, matchDate string) ([]Fixture, error)
	ListByTeam(ctx context.Context, sportType string, teamID int64, limit int) ([]Fixture, error)
	ListByLeagueAndDate(ctx context.Context, sportType, leagueCode, matchDate string) ([]Fixture, error)
	ListLiveByDates(ctx context.Context, sportType string, matchDates []string) ([]Fixture, error)
	ListFinishedWithoutDetails(ctx context.Context, sportType, matchDate string, limit int) ([]Fixture, error)
	ApplyLiveUpdate(ctx context.Context, update LiveUpdate) (bool, error)
	// MarkFinished moves rows still in a live sub-state to finished.
	MarkFinished(ctx context.Context, keys []Key) (int, error)
	SetMatchDetails(ctx context.Context, key Key, details []byte) error
}
