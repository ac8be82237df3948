package team

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that carry no combining mark under NFD and would otherwise be dropped.
var undecomposable = strings.NewReplacer(
	"ø", "o",
	"æ", "ae",
	"å", "a",
	"ß", "ss",
	"đ", "d",
	"ð", "d",
	"ł", "l",
	"œ", "oe",
	"þ", "th",
	"ı", "i",
)

var clubAffixes = map[string]struct{}{
	"fc":     {},
	"afc":    {},
	"cf":     {},
	"sc":     {},
	"ac":     {},
	"as":     {},
	"ssc":    {},
	"sv":     {},
	"fk":     {},
	"bk":     {},
	"if":     {},
	"cd":     {},
	"ud":     {},
	"rc":     {},
	"rcd":    {},
	"sk":     {},
	"club":   {},
	"calcio": {},
}

// Folded names that identify the same club under a different label.
var nameAliases = map[string]string{
	"kobenhavn":       "copenhagen",
	"manutd":          "manchesterunited",
	"manunited":       "manchesterunited",
	"mancity":         "manchestercity",
	"spurs":           "tottenhamhotspur",
	"tottenham":       "tottenhamhotspur",
	"wolves":          "wolverhamptonwanderers",
	"nottmforest":     "nottinghamforest",
	"psg":             "parissaintgermain",
	"parissg":         "parissaintgermain",
	"internazionale":  "inter",
	"intermilan":      "inter",
	"bayernmunchen":   "bayernmunich",
	"fcbayern":        "bayernmunich",
	"munchengladbach": "borussiamonchengladbach",
	"gladbach":        "borussiamonchengladbach",
	"atleti":          "atleticomadrid",
	"sporting":        "sportingcp",
	"sportinglisbon":  "sportingcp",
	"crvenazvezda":    "redstarbelgrade",
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldName reduces a display name to a comparison key shared across providers.
func FoldName(name string) string {
	value := strings.ToLower(strings.TrimSpace(name))
	if value == "" {
		return ""
	}

	value = undecomposable.Replace(value)
	if stripped, _, err := transform.String(stripMarks, value); err == nil {
		value = stripped
	}

	tokens := strings.FieldsFunc(value, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	if len(tokens) > 1 {
		if _, ok := clubAffixes[tokens[0]]; ok {
			tokens = tokens[1:]
		}
	}
	if len(tokens) > 1 {
		if _, ok := clubAffixes[tokens[len(tokens)-1]]; ok {
			tokens = tokens[:len(tokens)-1]
		}
	}

	folded := strings.Join(tokens, "")
	if alias, ok := nameAliases[folded]; ok {
		return alias
	}
	return folded
}

// SideMatches applies the loose per-side rule to two folded names: equal keys,
// a shared 3 character head, or one name containing the other's 4 character head.
func SideMatches(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if len(a) >= 3 && len(b) >= 3 && a[:3] == b[:3] {
		return true
	}
	if len(a) >= 4 && strings.Contains(b, a[:4]) {
		return true
	}
	if len(b) >= 4 && strings.Contains(a, b[:4]) {
		return true
	}
	return false
}
