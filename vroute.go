/*

  VRoute routes structured log events to per key sinks. A router
  extracts a routing key from each event's context, and a bounded
  cache of live sinks appends the event to the sink owning that key,
  creating and retiring sinks as the key population shifts.

*/

package vroute

import (
	"context"
	"fmt"
	"time"

	"github.com/Velocidex/ordereddict"
	"github.com/go-errors/errors"

	"www.velocidex.com/golang/vroute/cache"
	config_proto "www.velocidex.com/golang/vroute/config/proto"
	"www.velocidex.com/golang/vroute/events"
	"www.velocidex.com/golang/vroute/logging"
	"www.velocidex.com/golang/vroute/route"
	_ "www.velocidex.com/golang/vroute/route/pattern"
	"www.velocidex.com/golang/vroute/sinks"
)

var (
	ErrRoutingFailed = errors.New("Unable to route event")
)

// RoutingAppender is the front door of the pipeline. It extracts a
// routing key from each event and hands the event to the cached sink
// owning that key.
type RoutingAppender struct {
	config_obj *config_proto.Config

	router route.Router
	cache  *cache.SinkCache
	logger *logging.LogContext

	default_key string
}

func NewRoutingAppender(
	ctx context.Context,
	config_obj *config_proto.Config) (*RoutingAppender, error) {

	router, err := route.NewRouter(config_obj)
	if err != nil {
		return nil, err
	}

	factory, err := sinks.NewFactory(config_obj)
	if err != nil {
		return nil, err
	}

	sink_cache, err := cache.NewSinkCache(config_obj, factory)
	if err != nil {
		return nil, err
	}

	default_key := ""
	if config_obj.Router != nil {
		default_key = config_obj.Router.DefaultKey
	}

	result := &RoutingAppender{
		config_obj:  config_obj,
		router:      router,
		cache:       sink_cache,
		logger:      logging.GetLogger(config_obj, &logging.FrontendComponent),
		default_key: default_key,
	}

	if config_obj.Cache != nil && config_obj.Cache.IdleTimeout > 0 {
		idle_timeout := time.Duration(
			config_obj.Cache.IdleTimeout) * time.Second
		go result.sweepIdle(ctx, idle_timeout)
	}

	result.logger.Info("<green>Starting</> the routing appender.")

	return result, nil
}

// Append routes one event. Extraction failures fall back to the
// configured default key; without one the event is rejected with
// ErrRoutingFailed and no sink is touched.
func (self *RoutingAppender) Append(event *events.Event) error {
	key, err := self.router.Route(event)
	if err != nil {
		if self.default_key == "" {
			return fmt.Errorf("%w: %w", ErrRoutingFailed, err)
		}

		self.logger.Debug("Routing event to default key %v: %v",
			self.default_key, err)
		key = self.default_key
	}

	return self.cache.Dispatch(key, event)
}

// Close drains the sink cache and closes every live sink. The
// appender must not be used after Close.
func (self *RoutingAppender) Close() error {
	self.logger.Info("Shutting down the routing appender.")
	return self.cache.CloseAll()
}

// Stats reports the per key counters of the live sinks, most
// recently used first.
func (self *RoutingAppender) Stats() []*ordereddict.Dict {
	return self.cache.Stats()
}

func (self *RoutingAppender) LiveKeys() []string {
	return self.cache.LiveKeys()
}

// ExpireIdle closes sinks idle for at least the given timeout. The
// background sweeper calls this when cache.idle_timeout is set; it
// is exported for callers that manage their own schedule.
func (self *RoutingAppender) ExpireIdle(idle_timeout time.Duration) int {
	return self.cache.ExpireIdle(idle_timeout)
}

// Sinks which stop receiving events are closed long before capacity
// pressure would evict them.
func (self *RoutingAppender) sweepIdle(
	ctx context.Context, idle_timeout time.Duration) {

	// Wake a few times per timeout so expiry is not too late.
	period := idle_timeout / 4
	if period < time.Second {
		period = time.Second
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-time.After(period):
			expired := self.cache.ExpireIdle(idle_timeout)
			if expired > 0 {
				self.logger.Debug("Closed %v idle sinks", expired)
			}
		}
	}
}
