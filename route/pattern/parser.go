package pattern

import (
	"fmt"
	"strings"
)

// Patterns are literal text with embedded placeholders:
//
//	logs/${ctx(tenant)}/events.json
//	${ctx(tenant,-)}_${ctx(job)}
//
// "$$" escapes a literal dollar. Placeholder arguments are taken
// verbatim - no whitespace trimming - so defaults can contain
// spaces.

// Piece is one parsed element. Literal text has an empty Name;
// placeholders carry the function name and its arguments.
type Piece struct {
	Text string

	Name string
	Args []string
}

func ParsePattern(pattern string) ([]Piece, error) {
	result := []Piece{}
	text := strings.Builder{}

	flush := func() {
		if text.Len() > 0 {
			result = append(result, Piece{Text: text.String()})
			text.Reset()
		}
	}

	i := 0
	for i < len(pattern) {
		c := pattern[i]
		if c != '$' {
			text.WriteByte(c)
			i++
			continue
		}

		if i+1 < len(pattern) && pattern[i+1] == '$' {
			text.WriteByte('$')
			i += 2
			continue
		}

		if i+1 < len(pattern) && pattern[i+1] == '{' {
			end := strings.IndexByte(pattern[i+2:], '}')
			if end < 0 {
				return nil, fmt.Errorf(
					"Unclosed placeholder at offset %d in %q", i, pattern)
			}

			piece, err := parsePlaceholder(
				pattern[i+2:i+2+end], i, pattern)
			if err != nil {
				return nil, err
			}

			flush()
			result = append(result, piece)
			i += 2 + end + 1
			continue
		}

		// A bare dollar is literal.
		text.WriteByte('$')
		i++
	}

	flush()
	return result, nil
}

func parsePlaceholder(inner string, offset int, pattern string) (Piece, error) {
	open := strings.IndexByte(inner, '(')
	if open < 0 {
		if !validName(inner) {
			return Piece{}, fmt.Errorf(
				"Invalid placeholder name %q at offset %d in %q",
				inner, offset, pattern)
		}
		return Piece{Name: inner}, nil
	}

	if !strings.HasSuffix(inner, ")") {
		return Piece{}, fmt.Errorf(
			"Missing ) in placeholder at offset %d in %q", offset, pattern)
	}

	name := inner[:open]
	if !validName(name) {
		return Piece{}, fmt.Errorf(
			"Invalid placeholder name %q at offset %d in %q",
			name, offset, pattern)
	}

	return Piece{
		Name: name,
		Args: strings.Split(inner[open+1:len(inner)-1], ","),
	}, nil
}

func validName(name string) bool {
	if name == "" {
		return false
	}

	for _, c := range name {
		if c >= 'a' && c <= 'z' ||
			c >= 'A' && c <= 'Z' ||
			c >= '0' && c <= '9' ||
			c == '_' {
			continue
		}
		return false
	}
	return true
}
