package livescore

import (
	"bytes"
	"strings"
)

type liveEnvelope struct {
	Events []liveEvent `json:"events"`
}

type liveEvent struct {
	ID      looseString `json:"id"`
	League  leagueRef   `json:"league"`
	Kickoff int64       `json:"kickoff"`
	Status  string      `json:"status"`
	Minute  looseString `json:"minute"`
	Home    sideRef     `json:"home"`
	Away    sideRef     `json:"away"`
	Score   scoreRef    `json:"score"`
}

type leagueRef struct {
	ID   looseString `json:"id"`
	Name string      `json:"name"`
}

type sideRef struct {
	Name string `json:"name"`
}

type scoreRef struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// looseString accepts both JSON strings and bare numbers.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*s = ""
		return nil
	}
	*s = looseString(strings.Trim(string(trimmed), `"`))
	return nil
}

func (s looseString) String() string {
	return strings.TrimSpace(string(s))
}
