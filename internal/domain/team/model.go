package team

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const shortNameMaxRunes = 12

// Team is a provider-scoped participant, denormalized from fixtures.
type Team struct {
	ProviderID   int64
	SportType    string
	Name         string
	ShortName    string
	Abbreviation string
	Logo         string
}

func (t Team) Validate() error {
	if t.ProviderID <= 0 {
		return fmt.Errorf("team provider id is required")
	}
	if strings.TrimSpace(t.SportType) == "" {
		return fmt.Errorf("team sport type is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("team name is required")
	}

	return nil
}

// DeriveShortName truncates a full name to a display-sized label.
// Whole words are kept while they fit; a single long word is cut.
func DeriveShortName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if utf8.RuneCountInString(name) <= shortNameMaxRunes {
		return name
	}

	var out string
	for _, word := range strings.Fields(name) {
		candidate := word
		if out != "" {
			candidate = out + " " + word
		}
		if utf8.RuneCountInString(candidate) > shortNameMaxRunes {
			break
		}
		out = candidate
	}
	if out != "" {
		return out
	}

	runes := []rune(name)
	return string(runes[:shortNameMaxRunes])
}

// DeriveAbbreviation builds a three letter code from the folded name.
func DeriveAbbreviation(name string) string {
	folded := FoldName(name)
	if folded == "" {
		return ""
	}
	if len(folded) > 3 {
		folded = folded[:3]
	}
	return strings.ToUpper(folded)
}
