package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
)

func TestNormalizer_Normalize(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+2", 2*60*60)
	n := NewNormalizer("fake", testTable, loc)

	rec := externalFixture(100, " pl ", time.Date(2025, 8, 16, 23, 0, 0, 0, time.UTC), "FT", " Arsenal FC ", "Chelsea FC")
	rec.Home.Score = intPtr(2)
	rec.Away.Score = intPtr(1)
	rec.Minute = intPtr(90)

	got, err := n.Normalize(rec)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got.MatchDate != "2025-08-17" {
		t.Fatalf("expected match date in reference zone, got %s", got.MatchDate)
	}
	if got.Status != fixture.StatusFinished || got.LeagueCode != "PL" || got.Home.Name != "Arsenal FC" {
		t.Fatalf("unexpected fixture: %+v", got)
	}
	if got.Minute != nil {
		t.Fatalf("minute must only be kept for live rows")
	}
	if *got.Home.Score != 2 || *got.Away.Score != 1 {
		t.Fatalf("unexpected score")
	}
	if got.Kickoff.Location() != time.UTC {
		t.Fatalf("kickoff must be stored in UTC")
	}
}

func TestNormalizer_ClearsScoresBeforeKickoff(t *testing.T) {
	t.Parallel()

	n := NewNormalizer("fake", testTable, nil)
	rec := externalFixture(1, "PL", time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC), "TIMED", "Arsenal", "Chelsea")
	rec.Home.Score = intPtr(0)
	rec.Away.Score = intPtr(0)

	got, err := n.Normalize(rec)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got.Home.Score != nil || got.Away.Score != nil {
		t.Fatalf("expected nil scores for not started fixture")
	}
}

func TestNormalizer_RejectsMalformedRecords(t *testing.T) {
	t.Parallel()

	n := NewNormalizer("fake", testTable, nil)
	kickoff := time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC)

	cases := map[string]ExternalFixture{
		"missing id":      externalFixture(0, "PL", kickoff, "FT", "A", "B"),
		"missing kickoff": externalFixture(1, "PL", time.Time{}, "FT", "A", "B"),
		"missing team":    externalFixture(1, "PL", kickoff, "FT", "", "B"),
		"unknown status":  externalFixture(1, "PL", kickoff, "WEIRD", "A", "B"),
	}
	for name, rec := range cases {
		if _, err := n.Normalize(rec); !errors.Is(err, ErrMalformedRecord) {
			t.Fatalf("%s: expected ErrMalformedRecord, got %v", name, err)
		}
	}
}

func TestNormalizer_ResolveStatusFallsBackToKeywords(t *testing.T) {
	t.Parallel()

	n := NewNormalizer("fake", testTable, nil)
	got, err := n.ResolveStatus("Match Postponed")
	if err != nil || got != fixture.StatusPostponed {
		t.Fatalf("expected postponed, got %q err=%v", got, err)
	}
}

func TestNormalizer_Teams(t *testing.T) {
	t.Parallel()

	n := NewNormalizer("fake", testTable, nil)
	rec := externalFixture(1, "PL", time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC), "TIMED", "Nottingham Forest FC", "Arsenal FC")
	rec.Away.TLA = "ars"

	teams := n.Teams(rec)
	if len(teams) != 2 {
		t.Fatalf("expected 2 teams, got %d", len(teams))
	}
	if teams[0].ShortName != "Nottingham" {
		t.Fatalf("unexpected short name %q", teams[0].ShortName)
	}
	if teams[1].Abbreviation != "ARS" {
		t.Fatalf("unexpected abbreviation %q", teams[1].Abbreviation)
	}
}
