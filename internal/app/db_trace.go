package app

import "strings"

const maxTracedQueryLength = 512

// formatDBQueryForTrace flattens a statement onto one line and masks quoted literals.
func formatDBQueryForTrace(query string) string {
	query = strings.Join(strings.Fields(query), " ")

	var b strings.Builder
	b.Grow(len(query))
	inLiteral := false
	for _, r := range query {
		switch {
		case r == '\'':
			if !inLiteral {
				b.WriteString("'?'")
			}
			inLiteral = !inLiteral
		case !inLiteral:
			b.WriteRune(r)
		}
	}

	out := b.String()
	if len(out) > maxTracedQueryLength {
		return out[:maxTracedQueryLength] + "..."
	}
	return out
}
