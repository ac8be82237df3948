package livescore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
)

const snapshotBody = `{"events": [
  {"id": 9001, "league": {"id": 39, "name": "Premier League"}, "kickoff": 1755354600, "status": "2H", "minute": "67",
   "home": {"name": "Arsenal"}, "away": {"name": "Chelsea"}, "score": {"home": 1, "away": 1}},
  {"id": "9002", "league": {"id": "140", "name": "LaLiga"}, "kickoff": 1755354600, "status": "HT", "minute": "45+2",
   "home": {"name": "Atlético Madrid"}, "away": {"name": "Sevilla"}, "score": {"home": 0, "away": 0}},
  {"id": 9003, "league": {"id": 999, "name": "Friendly"}, "status": "1H", "home": {"name": "A"}, "away": {"name": "B"}}
]}`

func newTestClient(baseURL string) *Client {
	return NewClient(ClientConfig{
		BaseURL:   baseURL,
		APIKey:    "key",
		Timeout:   2 * time.Second,
		LeagueMap: map[string]string{"39": "pl", "140": "PD"},
		Logger:    logging.NewNop(),
		Gate:      resilience.NewGate(resilience.GateConfig{Name: "livescore-test", MaxRetries: 1, DefaultWait: time.Millisecond}),
	})
}

func TestFetchLiveSnapshotMapsMappedCompetitions(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/matches/live" || r.Header.Get("X-API-Key") != "key" {
			t.Errorf("unexpected request path=%s key=%s", r.URL.Path, r.Header.Get("X-API-Key"))
		}
		_, _ = w.Write([]byte(snapshotBody))
	}))
	defer server.Close()

	events, err := newTestClient(server.URL).FetchLiveSnapshot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected unmapped competition to be skipped, got %d events", len(events))
	}

	first := events[0]
	if first.ProviderEventID != "9001" || first.LeagueCode != "PL" || first.StatusCode != "2H" {
		t.Fatalf("unexpected first event: %+v", first)
	}
	if first.Minute == nil || *first.Minute != 67 || *first.HomeScore != 1 {
		t.Fatalf("unexpected minute/score: %+v", first)
	}
	if !first.Kickoff.Equal(time.Unix(1755354600, 0).UTC()) {
		t.Fatalf("unexpected kickoff: %s", first.Kickoff)
	}
	if events[1].Minute == nil || *events[1].Minute != 45 {
		t.Fatalf("expected stoppage minute to keep regular part")
	}
}

func TestFetchLiveSnapshotClassifiesFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchLiveSnapshot(context.Background())
	if !errors.Is(err, usecase.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream unavailable, got %v", err)
	}
}

func TestFetchLiveSnapshotRateLimited(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchLiveSnapshot(context.Background())
	if !errors.Is(err, usecase.ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
}

func TestParseLeagueMap(t *testing.T) {
	t.Parallel()

	got, err := ParseLeagueMap(" 39:pl, 140:PD ,")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got["39"] != "PL" || got["140"] != "PD" {
		t.Fatalf("unexpected map: %v", got)
	}
	if _, err := ParseLeagueMap("39"); err == nil {
		t.Fatalf("expected error for entry without code")
	}
}

func TestStatusTable(t *testing.T) {
	t.Parallel()

	tests := map[string]fixture.Status{
		"1H":  fixture.StatusFirstPeriod,
		"HT":  fixture.StatusBreak,
		"ET":  fixture.StatusExtraTime,
		"P":   fixture.StatusPenalties,
		"AET": fixture.StatusFinished,
		"abd": fixture.StatusAbandoned,
	}
	for code, want := range tests {
		if got, ok := statusTable.Lookup(code); !ok || got != want {
			t.Fatalf("%s: got %q want %q", code, got, want)
		}
	}
}

func TestAbbreviateBody_KeepsRunesWhole(t *testing.T) {
	t.Parallel()

	body := []byte(strings.Repeat("x", 239) + "é" + strings.Repeat("y", 50))
	got := abbreviateBody(body)
	if !utf8.ValidString(got) {
		t.Fatalf("abbreviated body is not valid UTF-8: %q", got)
	}
	if got != strings.Repeat("x", 239)+"..." {
		t.Fatalf("unexpected abbreviation %q", got)
	}
}
