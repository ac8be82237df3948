package fixture

import (
	"testing"
	"time"
)

func TestStatusClassification(t *testing.T) {
	t.Parallel()

	for _, status := range LiveStatuses() {
		if !status.IsLive() || !status.HasStarted() {
			t.Fatalf("expected %s to be live and started", status)
		}
		if status.IsFinished() {
			t.Fatalf("live status %s reported finished", status)
		}
	}

	for _, status := range []Status{StatusNotStarted, StatusPostponed, StatusCancelled} {
		if status.HasStarted() {
			t.Fatalf("expected %s to not have started", status)
		}
	}
	if !StatusFinished.HasStarted() || StatusFinished.IsLive() {
		t.Fatalf("finished must be started and not live")
	}
	if Status("half_time").Valid() {
		t.Fatalf("unknown status must be invalid")
	}
}

func TestStatusTableLookupIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	table := StatusTable{"PAUSED": StatusBreak, "HT": StatusBreak}
	for _, raw := range []string{"paused", " Paused ", "ht"} {
		got, ok := table.Lookup(raw)
		if !ok || got != StatusBreak {
			t.Fatalf("Lookup(%q) = %s, %v", raw, got, ok)
		}
	}
	if _, ok := table.Lookup(""); ok {
		t.Fatalf("empty code must not resolve")
	}
}

func TestGuessStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Status
		ok   bool
	}{
		{in: "Half Time", want: StatusBreak, ok: true},
		{in: "Match Postponed", want: StatusPostponed, ok: true},
		{in: "After Penalties", want: StatusPenalties, ok: true},
		{in: "Full Time", want: StatusFinished, ok: true},
		{in: "In Play", want: StatusLive, ok: true},
		{in: "XYZ", ok: false},
	}

	for _, tc := range tests {
		got, ok := GuessStatus(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("GuessStatus(%q) = %s, %v; want %s, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSortByKickoff(t *testing.T) {
	t.Parallel()

	base := mustTime(t, "2025-08-16T14:00:00Z")
	items := []Fixture{
		{ProviderID: 3, Kickoff: base.Add(time.Hour)},
		{ProviderID: 2, Kickoff: base},
		{ProviderID: 1, Kickoff: base},
	}
	SortByKickoff(items)
	if items[0].ProviderID != 1 || items[1].ProviderID != 2 || items[2].ProviderID != 3 {
		t.Fatalf("unexpected order: %+v", items)
	}
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return out
}
