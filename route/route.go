// Key derivation strategies. A Router inspects an event's context
// values and produces the routing key that selects its sink.

package route

import (
	"fmt"
	"sync"

	errors "github.com/go-errors/errors"
	config_proto "www.velocidex.com/golang/vroute/config/proto"
	"www.velocidex.com/golang/vroute/events"
)

var (
	mu       sync.Mutex
	handlers = make(map[string]RouterFactory)

	// Returned (wrapped with the placeholder name) when a strict
	// pattern references a context value the event does not carry.
	ErrMissingValue = errors.New("Required context value is not present")
)

// Router derives the routing key for an event. Implementations must
// be deterministic and side effect free: events carrying equal
// context values always produce equal keys, and two calls for the
// same event never disagree.
type Router interface {
	Route(event *events.Event) (string, error)
}

type RouterFactory func(config_obj *config_proto.Config) (Router, error)

// RegisterRouter makes a key derivation strategy available under a
// config name. Called from init() in the implementing package.
func RegisterRouter(name string, factory RouterFactory) {
	mu.Lock()
	defer mu.Unlock()

	handlers[name] = factory
}

// NewRouter builds the router selected by router.kind (default
// "pattern").
func NewRouter(config_obj *config_proto.Config) (Router, error) {
	kind := "pattern"
	if config_obj.Router != nil && config_obj.Router.Kind != "" {
		kind = config_obj.Router.Kind
	}

	mu.Lock()
	factory, pres := handlers[kind]
	mu.Unlock()

	if !pres {
		return nil, fmt.Errorf("Unknown router kind %q", kind)
	}

	return factory(config_obj)
}
