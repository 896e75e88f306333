// The pattern strategy derives routing keys from a template of
// literal text and ${ctx(name)} / ${ctx(name,default)} placeholders
// resolved against the event's context values.

package pattern

import (
	"fmt"
	"sort"
	"strings"

	errors "github.com/go-errors/errors"
	config_proto "www.velocidex.com/golang/vroute/config/proto"
	"www.velocidex.com/golang/vroute/events"
	"www.velocidex.com/golang/vroute/route"
)

type PatternRouter struct {
	template *Template
	strict   bool
}

// NewPatternRouter compiles a key pattern. With strict set, a
// placeholder without a default fails the event when the context
// value is missing; otherwise the empty string is substituted.
func NewPatternRouter(key_pattern string, strict bool) (*PatternRouter, error) {
	template, err := NewTemplate(key_pattern)
	if err != nil {
		return nil, err
	}

	return &PatternRouter{
		template: template,
		strict:   strict,
	}, nil
}

func (self *PatternRouter) Route(event *events.Event) (string, error) {
	return self.template.expand(event, self.strict, nil)
}

// DerivedRouter is used when no explicit key pattern is configured:
// the key is derived from the context values the sink template
// references. Each value is length prefixed so distinct value tuples
// can not collide, and a missing value encodes as "-".
type DerivedRouter struct {
	names []string
}

func NewDerivedRouter(names []string) *DerivedRouter {
	sorted := append([]string{}, names...)
	sort.Strings(sorted)
	return &DerivedRouter{names: sorted}
}

func (self *DerivedRouter) Route(event *events.Event) (string, error) {
	key := strings.Builder{}

	for _, name := range self.names {
		value, pres := event.ContextValue(name)
		if !pres {
			key.WriteByte('-')
			continue
		}

		formatted := FormatValue(value)
		fmt.Fprintf(&key, "%d%s", len(formatted), formatted)
	}

	return key.String(), nil
}

func newRouterFromConfig(
	config_obj *config_proto.Config) (route.Router, error) {

	router_config := config_obj.Router
	if router_config == nil {
		router_config = &config_proto.RouterConfig{}
	}

	if router_config.Pattern != "" {
		return NewPatternRouter(router_config.Pattern, router_config.Strict)
	}

	// No explicit key pattern - derive keys from the context names
	// the sink template consults.
	if config_obj.Sink != nil && config_obj.Sink.Path != "" {
		template, err := NewTemplate(config_obj.Sink.Path)
		if err != nil {
			return nil, err
		}
		return NewDerivedRouter(template.ContextNames()), nil
	}

	return nil, errors.New(
		"Pattern router requires router.pattern or a sink.path template")
}

func init() {
	route.RegisterRouter("pattern", newRouterFromConfig)
}
