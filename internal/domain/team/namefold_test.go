package team

import "testing"

func TestFoldName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "FC København", want: "copenhagen"},
		{in: "Copenhagen", want: "copenhagen"},
		{in: "Newcastle United", want: "newcastleunited"},
		{in: "Atlético Madrid", want: "atleticomadrid"},
		{in: "FC Bayern München", want: "bayernmunich"},
		{in: "Manchester United FC", want: "manchesterunited"},
		{in: "Man Utd", want: "manchesterunited"},
		{in: "Wolves", want: "wolverhamptonwanderers"},
		{in: "AFC Bournemouth", want: "bournemouth"},
		{in: "Beşiktaş", want: "besiktas"},
		{in: "Łódź", want: "lodz"},
		{in: "Brighton & Hove Albion", want: "brightonhovealbion"},
		{in: "Club", want: "club"},
		{in: "   ", want: ""},
	}

	for _, tc := range tests {
		if got := FoldName(tc.in); got != tc.want {
			t.Fatalf("FoldName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSideMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want bool
	}{
		{a: "FC København", b: "Copenhagen", want: true},
		{a: "Newcastle United", b: "Newcastle", want: true},
		{a: "Tottenham Hotspur", b: "Spurs", want: true},
		{a: "Arsenal", b: "Chelsea", want: false},
		{a: "Liverpool", b: "Everton", want: false},
		{a: "", b: "Everton", want: false},
	}

	for _, tc := range tests {
		got := SideMatches(FoldName(tc.a), FoldName(tc.b))
		if got != tc.want {
			t.Fatalf("SideMatches(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestDeriveShortName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "Arsenal", want: "Arsenal"},
		{in: "Nottingham Forest", want: "Nottingham"},
		{in: "Wolverhampton Wanderers", want: "Wolverhampto"},
		{in: "  Leeds   United ", want: "Leeds United"},
	}

	for _, tc := range tests {
		if got := DeriveShortName(tc.in); got != tc.want {
			t.Fatalf("DeriveShortName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDeriveAbbreviation(t *testing.T) {
	t.Parallel()

	if got := DeriveAbbreviation("FC København"); got != "COP" {
		t.Fatalf("unexpected abbreviation: %s", got)
	}
	if got := DeriveAbbreviation("Arsenal FC"); got != "ARS" {
		t.Fatalf("unexpected abbreviation: %s", got)
	}
	if got := DeriveAbbreviation(""); got != "" {
		t.Fatalf("expected empty abbreviation, got %s", got)
	}
}
