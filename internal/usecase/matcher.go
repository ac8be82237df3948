package usecase

import (
	"context"
	"strings"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/domain/team"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/metrics"
)

type MatchOutcome string

const (
	MatchOutcomeMatched   MatchOutcome = "matched"
	MatchOutcomeUnmatched MatchOutcome = "unmatched"
	MatchOutcomeAmbiguous MatchOutcome = "ambiguous"
)

type MatchResult struct {
	Outcome MatchOutcome
	Fixture fixture.Fixture
	// Candidates names every row that satisfied both sides; filled for ambiguous results.
	Candidates []string
	// Keys identifies the same rows as Candidates.
	Keys []fixture.Key
}

func (r MatchResult) Matched() bool {
	return r.Outcome == MatchOutcomeMatched
}

// Err returns ErrUnmatched for anything but a unique match.
func (r MatchResult) Err() error {
	if r.Matched() {
		return nil
	}
	return ErrUnmatched
}

// Matcher locates the cached fixture behind a live record by folded team names.
// It never guesses: zero or several qualifying rows yield no match.
type Matcher struct {
	logger *logging.Logger
}

func NewMatcher(logger *logging.Logger) *Matcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Matcher{logger: logger}
}

// Match expects candidates already restricted to one league code and match date.
func (m *Matcher) Match(candidates []fixture.Fixture, home, away string) MatchResult {
	homeKey := team.FoldName(home)
	awayKey := team.FoldName(away)
	if homeKey == "" || awayKey == "" {
		return MatchResult{Outcome: MatchOutcomeUnmatched}
	}

	var hits []fixture.Fixture
	for _, candidate := range candidates {
		if !team.SideMatches(homeKey, team.FoldName(candidate.Home.Name)) {
			continue
		}
		if !team.SideMatches(awayKey, team.FoldName(candidate.Away.Name)) {
			continue
		}
		hits = append(hits, candidate)
	}

	switch len(hits) {
	case 0:
		return MatchResult{Outcome: MatchOutcomeUnmatched}
	case 1:
		return MatchResult{Outcome: MatchOutcomeMatched, Fixture: hits[0]}
	default:
		names := make([]string, 0, len(hits))
		keys := make([]fixture.Key, 0, len(hits))
		for _, hit := range hits {
			names = append(names, hit.Home.Name+" v "+hit.Away.Name)
			keys = append(keys, hit.Key())
		}
		return MatchResult{Outcome: MatchOutcomeAmbiguous, Candidates: names, Keys: keys}
	}
}

// MatchAndReport runs Match and records the outcome. Ambiguous results are logged
// at WARN with the candidate names so alias gaps surface for review.
func (m *Matcher) MatchAndReport(ctx context.Context, leagueCode string, candidates []fixture.Fixture, home, away string) MatchResult {
	result := m.Match(candidates, home, away)
	metrics.RecordMatch(leagueCode, string(result.Outcome))

	switch result.Outcome {
	case MatchOutcomeAmbiguous:
		m.logger.WarnContext(ctx, "ambiguous live match skipped",
			"league_code", leagueCode,
			"home", home,
			"away", away,
			"candidates", strings.Join(result.Candidates, "; "),
		)
	case MatchOutcomeUnmatched:
		m.logger.DebugContext(ctx, "live record has no cached counterpart",
			"league_code", leagueCode,
			"home", home,
			"away", away,
		)
	}
	return result
}
