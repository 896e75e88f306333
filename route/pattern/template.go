package pattern

import (
	"fmt"
	"sort"
	"strings"

	"www.velocidex.com/golang/vroute/events"
	"www.velocidex.com/golang/vroute/route"
	"www.velocidex.com/golang/vroute/utils"
)

type chunk struct {
	text string

	// A ${ctx(...)} placeholder.
	placeholder bool
	name        string
	def         string
	has_default bool
}

// Template is a compiled pattern. Safe for concurrent use - it is
// immutable after construction.
type Template struct {
	pattern string
	chunks  []chunk
	names   []string
}

func NewTemplate(pattern string) (*Template, error) {
	pieces, err := ParsePattern(pattern)
	if err != nil {
		return nil, err
	}

	result := &Template{pattern: pattern}
	seen := make(map[string]bool)

	for _, piece := range pieces {
		if piece.Name == "" {
			result.chunks = append(result.chunks, chunk{text: piece.Text})
			continue
		}

		if piece.Name != "ctx" {
			return nil, fmt.Errorf(
				"Unsupported placeholder %q in %q", piece.Name, pattern)
		}

		c := chunk{placeholder: true}
		switch len(piece.Args) {
		case 1:
			c.name = piece.Args[0]
		case 2:
			c.name = piece.Args[0]
			c.def = piece.Args[1]
			c.has_default = true
		default:
			return nil, fmt.Errorf(
				"ctx placeholder expects 1 or 2 arguments, got %d in %q",
				len(piece.Args), pattern)
		}

		if c.name == "" {
			return nil, fmt.Errorf(
				"ctx placeholder with empty name in %q", pattern)
		}

		if !seen[c.name] {
			seen[c.name] = true
			result.names = append(result.names, c.name)
		}
		result.chunks = append(result.chunks, c)
	}

	sort.Strings(result.names)
	return result, nil
}

func (self *Template) Pattern() string {
	return self.pattern
}

// ContextNames returns the distinct context value names the template
// references, sorted.
func (self *Template) ContextNames() []string {
	return append([]string{}, self.names...)
}

// Expand resolves the template against an event. A placeholder
// without a default fails when the context value is missing.
func (self *Template) Expand(event *events.Event) (string, error) {
	return self.expand(event, true, nil)
}

// ExpandPath is like Expand but escapes each substituted value so a
// context value can not introduce path separators or traversal.
func (self *Template) ExpandPath(event *events.Event) (string, error) {
	return self.expand(event, true, utils.SanitizeComponent)
}

func (self *Template) expand(
	event *events.Event, strict bool,
	transform func(string) string) (string, error) {

	result := strings.Builder{}

	for _, c := range self.chunks {
		if !c.placeholder {
			result.WriteString(c.text)
			continue
		}

		value, pres := event.ContextValue(c.name)
		if !pres {
			if c.has_default {
				result.WriteString(c.def)
				continue
			}
			if strict {
				return "", fmt.Errorf(
					"%w: `%s`", route.ErrMissingValue, c.name)
			}
			continue
		}

		formatted := FormatValue(value)
		if transform != nil {
			formatted = transform(formatted)
		}
		result.WriteString(formatted)
	}

	return result.String(), nil
}
