package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/team"
)

// Normalizer turns one provider's records into canonical fixtures. It is pure.
type Normalizer struct {
	provider string
	table    fixture.StatusTable
	loc      *time.Location
}

func NewNormalizer(provider string, table fixture.StatusTable, loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{provider: provider, table: table, loc: loc}
}

func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// MatchDate reduces an instant to the reference calendar day.
func (n *Normalizer) MatchDate(at time.Time) string {
	return at.In(n.loc).Format("2006-01-02")
}

// ResolveStatus maps a provider code through the table, then keyword heuristics.
func (n *Normalizer) ResolveStatus(code string) (fixture.Status, error) {
	if status, ok := n.table.Lookup(code); ok {
		return status, nil
	}
	if status, ok := fixture.GuessStatus(code); ok {
		return status, nil
	}
	return "", fmt.Errorf("%w: provider=%s unknown status code %q", ErrMalformedRecord, n.provider, code)
}

func (n *Normalizer) Normalize(rec ExternalFixture) (fixture.Fixture, error) {
	switch {
	case rec.ProviderID <= 0:
		return fixture.Fixture{}, fmt.Errorf("%w: provider=%s missing fixture id", ErrMalformedRecord, n.provider)
	case rec.Kickoff.IsZero():
		return fixture.Fixture{}, fmt.Errorf("%w: provider=%s fixture=%d missing kickoff", ErrMalformedRecord, n.provider, rec.ProviderID)
	case strings.TrimSpace(rec.Home.Name) == "" || strings.TrimSpace(rec.Away.Name) == "":
		return fixture.Fixture{}, fmt.Errorf("%w: provider=%s fixture=%d missing team name", ErrMalformedRecord, n.provider, rec.ProviderID)
	}

	status, err := n.ResolveStatus(rec.StatusCode)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("fixture=%d: %w", rec.ProviderID, err)
	}

	out := fixture.Fixture{
		ProviderID: rec.ProviderID,
		SportType:  fixture.NormalizeSport(rec.SportType),
		MatchDate:  n.MatchDate(rec.Kickoff),
		Kickoff:    rec.Kickoff.UTC(),
		Status:     status,
		Stage:      strings.TrimSpace(rec.Stage),
		Matchday:   rec.Matchday,
		LeagueCode: strings.ToUpper(strings.TrimSpace(rec.LeagueCode)),
		LeagueName: strings.TrimSpace(rec.LeagueName),
		LeagueLogo: strings.TrimSpace(rec.LeagueLogo),
		Home:       normalizeSide(rec.Home),
		Away:       normalizeSide(rec.Away),
		Venue:      strings.TrimSpace(rec.Venue),
	}

	if status.IsLive() {
		out.Minute = rec.Minute
	}
	if !status.HasStarted() {
		out.Home.Score = nil
		out.Away.Score = nil
	}
	return out, nil
}

// Teams derives the team rows referenced by a record.
func (n *Normalizer) Teams(rec ExternalFixture) []team.Team {
	sport := fixture.NormalizeSport(rec.SportType)
	out := make([]team.Team, 0, 2)
	for _, side := range []ExternalSide{rec.Home, rec.Away} {
		item := team.Team{
			ProviderID:   side.ProviderID,
			SportType:    sport,
			Name:         strings.TrimSpace(side.Name),
			ShortName:    shortNameOf(side),
			Abbreviation: strings.ToUpper(strings.TrimSpace(side.TLA)),
			Logo:         strings.TrimSpace(side.Logo),
		}
		if item.Abbreviation == "" {
			item.Abbreviation = team.DeriveAbbreviation(item.Name)
		}
		if item.Validate() != nil {
			continue
		}
		out = append(out, item)
	}
	return out
}

func normalizeSide(side ExternalSide) fixture.Side {
	return fixture.Side{
		TeamID:    side.ProviderID,
		Name:      strings.TrimSpace(side.Name),
		ShortName: shortNameOf(side),
		Logo:      strings.TrimSpace(side.Logo),
		Score:     side.Score,
	}
}

func shortNameOf(side ExternalSide) string {
	if short := strings.TrimSpace(side.ShortName); short != "" {
		return short
	}
	return team.DeriveShortName(side.Name)
}
