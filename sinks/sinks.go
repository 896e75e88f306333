// Sinks are the terminal consumers of routed events. Each routing
// key owns at most one live sink instance and all appends to it are
// serialized by the routing cache, so implementations do not need
// their own locking unless they share state across instances.

package sinks

import (
	"sync"

	"github.com/go-errors/errors"

	config_proto "www.velocidex.com/golang/vroute/config/proto"
	"www.velocidex.com/golang/vroute/events"
)

var (
	mu        sync.Mutex
	factories = make(map[string]FactoryBuilder)
)

// Sink receives the events routed to a single key. Append and Close
// are never called concurrently for the same instance, and Close is
// called exactly once after the last Append.
type Sink interface {
	Append(event *events.Event) error
	Close() error
}

// Factory builds a sink for a routing key. Create receives the event
// that triggered the creation so implementations can derive paths or
// headers from its context.
type Factory interface {
	Create(key string, event *events.Event) (Sink, error)
}

type FactoryBuilder func(config_obj *config_proto.Config) (Factory, error)

func RegisterFactory(kind string, builder FactoryBuilder) {
	mu.Lock()
	defer mu.Unlock()

	factories[kind] = builder
}

func NewFactory(config_obj *config_proto.Config) (Factory, error) {
	kind := "file"
	if config_obj.Sink != nil && config_obj.Sink.Kind != "" {
		kind = config_obj.Sink.Kind
	}

	mu.Lock()
	builder, pres := factories[kind]
	mu.Unlock()

	if !pres {
		return nil, errors.Errorf("Unknown sink kind %v", kind)
	}

	return builder(config_obj)
}
