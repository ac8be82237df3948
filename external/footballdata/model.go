package footballdata

import (
	"bytes"
	"strconv"

	sonic "github.com/bytedance/sonic"
)

type matchesEnvelope struct {
	Competition competitionRef `json:"competition"`
	Matches     []matchItem    `json:"matches"`
}

type matchItem struct {
	ID          int64          `json:"id"`
	UTCDate     string         `json:"utcDate"`
	Status      string         `json:"status"`
	Minute      flexibleInt    `json:"minute"`
	Matchday    *int           `json:"matchday"`
	Stage       string         `json:"stage"`
	Venue       string         `json:"venue"`
	Competition competitionRef `json:"competition"`
	HomeTeam    teamRef        `json:"homeTeam"`
	AwayTeam    teamRef        `json:"awayTeam"`
	Score       scoreRef       `json:"score"`
}

type competitionRef struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Emblem string `json:"emblem"`
}

type teamRef struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	TLA       string `json:"tla"`
	Crest     string `json:"crest"`
}

type scoreRef struct {
	Winner   string    `json:"winner"`
	FullTime scorePair `json:"fullTime"`
	HalfTime scorePair `json:"halfTime"`
}

type scorePair struct {
	Home *int `json:"home"`
	Away *int `json:"away"`
}

// flexibleInt accepts the minute as a number, a numeric string ("45+2" keeps 45) or null.
type flexibleInt struct {
	Value int
	Set   bool
}

func (f *flexibleInt) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		f.Set = false
		return nil
	}

	var number int
	if err := sonic.Unmarshal(trimmed, &number); err == nil {
		f.Value, f.Set = number, true
		return nil
	}

	var text string
	if err := sonic.Unmarshal(trimmed, &text); err != nil {
		return err
	}
	digits := leadingDigits(text)
	if digits == "" {
		f.Set = false
		return nil
	}
	value, err := strconv.Atoi(digits)
	if err != nil {
		return err
	}
	f.Value, f.Set = value, true
	return nil
}

func (f flexibleInt) value() *int {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}

func leadingDigits(value string) string {
	end := 0
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	return value[:end]
}
