package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	config_proto "www.velocidex.com/golang/vroute/config/proto"
	"www.velocidex.com/golang/vroute/events"
	"www.velocidex.com/golang/vroute/route"
)

func TestPatternRouterStrict(t *testing.T) {
	router, err := NewPatternRouter("${ctx(tenant)}-${ctx(level,info)}", true)
	assert.NoError(t, err)

	key, err := router.Route(events.NewEvent("info", "x").
		WithContext("tenant", "acme"))
	assert.NoError(t, err)
	assert.Equal(t, "acme-info", key)

	_, err = router.Route(events.NewEvent("info", "x"))
	assert.ErrorIs(t, err, route.ErrMissingValue)
}

func TestPatternRouterLenient(t *testing.T) {
	router, err := NewPatternRouter("${ctx(tenant)}-logs", false)
	assert.NoError(t, err)

	// Missing values substitute as empty.
	key, err := router.Route(events.NewEvent("info", "x"))
	assert.NoError(t, err)
	assert.Equal(t, "-logs", key)
}

func TestDerivedRouterKeys(t *testing.T) {
	router := NewDerivedRouter([]string{"tenant", "job"})

	// Values are encoded in sorted name order regardless of
	// declaration order.
	key, err := router.Route(events.NewEvent("info", "x").
		WithContext("tenant", "acme").
		WithContext("job", "j1"))
	assert.NoError(t, err)
	assert.Equal(t, "2j14acme", key)

	// A missing value encodes as a marker that can not collide with
	// a length prefix.
	key, err = router.Route(events.NewEvent("info", "x").
		WithContext("tenant", "acme"))
	assert.NoError(t, err)
	assert.Equal(t, "-4acme", key)

	// Length prefixes keep adjacent values apart.
	first, err := router.Route(events.NewEvent("info", "x").
		WithContext("job", "ab").WithContext("tenant", "c"))
	assert.NoError(t, err)

	second, err := router.Route(events.NewEvent("info", "x").
		WithContext("job", "a").WithContext("tenant", "bc"))
	assert.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestRouterFromConfig(t *testing.T) {
	// An explicit pattern wins.
	router, err := route.NewRouter(&config_proto.Config{
		Router: &config_proto.RouterConfig{
			Pattern: "${ctx(a)}",
			Strict:  true,
		},
	})
	assert.NoError(t, err)

	_, ok := router.(*PatternRouter)
	assert.True(t, ok)

	// Without a pattern the key derives from the sink template.
	router, err = route.NewRouter(&config_proto.Config{
		Sink: &config_proto.SinkConfig{Path: "${ctx(tenant)}/e.json"},
	})
	assert.NoError(t, err)

	derived, ok := router.(*DerivedRouter)
	assert.True(t, ok)

	key, err := derived.Route(events.NewEvent("info", "x").
		WithContext("tenant", "acme"))
	assert.NoError(t, err)
	assert.Equal(t, "4acme", key)

	// Neither a pattern nor a sink template is an error.
	_, err = route.NewRouter(&config_proto.Config{})
	assert.Error(t, err)

	// Unknown kinds are rejected.
	_, err = route.NewRouter(&config_proto.Config{
		Router: &config_proto.RouterConfig{Kind: "nope"},
	})
	assert.Error(t, err)
}
