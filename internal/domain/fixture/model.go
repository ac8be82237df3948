package fixture

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	SportFootball = "football"
	SportGolf     = "golf"
)

// Key is the composite identity of a cached fixture.
type Key struct {
	ProviderID int64
	SportType  string
}

func (k Key) String() string {
	return k.SportType + ":" + strconv.FormatInt(k.ProviderID, 10)
}

// Side is one participant of a fixture.
type Side struct {
	TeamID    int64
	Name      string
	ShortName string
	Logo      string
	Score     *int
}

// Fixture is the canonical cached event record.
type Fixture struct {
	ProviderID   int64
	SportType    string
	MatchDate    string
	Kickoff      time.Time
	Minute       *int
	Status       Status
	Stage        string
	Matchday     *int
	LeagueCode   string
	LeagueName   string
	LeagueLogo   string
	Home         Side
	Away         Side
	Venue        string
	MatchDetails json.RawMessage
	UpdatedAt    time.Time
}

func (f Fixture) Key() Key {
	return Key{ProviderID: f.ProviderID, SportType: f.SportType}
}

// LiveUpdate carries the fields the live overlay is allowed to change.
type LiveUpdate struct {
	Key       Key
	Status    Status
	Minute    *int
	HomeScore *int
	AwayScore *int
}

// NormalizeSport lower-cases a sport path value and falls back to football.
func NormalizeSport(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "", "soccer":
		return SportFootball
	default:
		return v
	}
}

// SortByKickoff orders fixtures by kickoff, then provider id, in place.
func SortByKickoff(items []Fixture) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Kickoff.Equal(items[j].Kickoff) {
			return items[i].Kickoff.Before(items[j].Kickoff)
		}
		return items[i].ProviderID < items[j].ProviderID
	})
}
