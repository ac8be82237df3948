package golfdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchday-sync/internal/platform/logging"
	"github.com/riskibarqy/matchday-sync/internal/platform/resilience"
	"github.com/riskibarqy/matchday-sync/internal/usecase"
)

func newTestClient(baseURL string) *Client {
	return NewClient(ClientConfig{
		HTTPClient: &http.Client{Timeout: 2 * time.Second},
		BaseURL:    baseURL,
		APIKey:     "key",
		TourIDs:    map[string]string{"pga": "2"},
		Logger:     logging.NewNop(),
		Gate:       resilience.NewGate(resilience.GateConfig{Name: "golf-test", MaxRetries: 1, DefaultWait: time.Millisecond}),
	})
}

func TestFetchScheduleKeepsRawRecords(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fixtures/2/2025" || r.Header.Get("X-RapidAPI-Key") != "key" {
			t.Errorf("unexpected request path=%s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"results":[
			{"id": 658, "name": "Masters Tournament", "status": "completed", "start_date": "2025-04-10 00:00:00", "end_date": "2025-04-13 00:00:00", "course": "Augusta National"},
			{"id": "659", "name": "RBC Heritage", "status": "in_progress", "start_date": "2025-04-17", "end_date": "2025-04-20"}
		]}`))
	}))
	defer server.Close()

	events, err := newTestClient(server.URL).FetchSchedule(context.Background(), "PGA", 2025)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ProviderEventID != "658" || events[0].StartDate != "2025-04-10" || events[0].EndDate != "2025-04-13" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].ProviderEventID != "659" || events[1].StatusCode != "in_progress" {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
	if len(events[0].Raw) == 0 {
		t.Fatalf("expected raw payload to be kept")
	}
}

func TestFetchLeaderboardRejectsInvalidJSON(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchLeaderboard(context.Background(), "pga", "659")
	if !errors.Is(err, usecase.ErrMalformedRecord) {
		t.Fatalf("expected malformed record, got %v", err)
	}
}

func TestFetchLeaderboardUpstreamFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchLeaderboard(context.Background(), "pga", "659")
	if !errors.Is(err, usecase.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream unavailable, got %v", err)
	}
}

func TestStatusTable(t *testing.T) {
	t.Parallel()

	tests := map[string]fixture.Status{
		"upcoming":    fixture.StatusNotStarted,
		"in_progress": fixture.StatusLive,
		"completed":   fixture.StatusFinished,
		"canceled":    fixture.StatusCancelled,
	}
	for code, want := range tests {
		if got, ok := statusTable.Lookup(code); !ok || got != want {
			t.Fatalf("%s: got %q want %q", code, got, want)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	t.Parallel()

	if got := normalizeDate("2025-04-10T00:00:00Z"); got != "2025-04-10" {
		t.Fatalf("unexpected date: %s", got)
	}
	if got := normalizeDate("April 10"); got != "" {
		t.Fatalf("expected empty date, got %s", got)
	}
}
