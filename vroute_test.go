package vroute_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vroute "www.velocidex.com/golang/vroute"
	"www.velocidex.com/golang/vroute/cache"
	"www.velocidex.com/golang/vroute/events"
	"www.velocidex.com/golang/vroute/logging"
	"www.velocidex.com/golang/vroute/route"
	"www.velocidex.com/golang/vroute/vtesting"
)

func TestRoutingAppender(t *testing.T) {
	config_obj := vtesting.GetTestConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appender, err := vroute.NewRoutingAppender(ctx, config_obj)
	require.NoError(t, err)

	for _, source := range []string{"alpha", "beta", "alpha", "gamma"} {
		err := appender.Append(events.NewEvent("info", "hello").
			WithContext("source", source))
		assert.NoError(t, err)
	}

	// Most recently used first.
	assert.Equal(t,
		[]string{"gamma", "alpha", "beta"}, appender.LiveKeys())

	stats := appender.Stats()
	require.Len(t, stats, 3)

	for _, row := range stats {
		key, _ := row.GetString("key")
		appends, _ := row.Get("appends")

		if key == "alpha" {
			assert.Equal(t, uint64(2), appends)
		} else {
			assert.Equal(t, uint64(1), appends)
		}
	}

	assert.NoError(t, appender.Close())
	assert.Empty(t, appender.LiveKeys())

	// The appender refuses events once closed.
	err = appender.Append(events.NewEvent("info", "late").
		WithContext("source", "alpha"))
	assert.ErrorIs(t, err, cache.ErrCacheClosed)
}

func TestRoutingFailure(t *testing.T) {
	config_obj := vtesting.GetTestConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appender, err := vroute.NewRoutingAppender(ctx, config_obj)
	require.NoError(t, err)
	defer appender.Close()

	// The strict pattern has no default key to fall back on.
	err = appender.Append(events.NewEvent("info", "no source here"))
	assert.ErrorIs(t, err, vroute.ErrRoutingFailed)
	assert.ErrorIs(t, err, route.ErrMissingValue)

	// No sink was touched.
	assert.Empty(t, appender.LiveKeys())
}

func TestDefaultKeyFallback(t *testing.T) {
	config_obj := vtesting.GetTestConfig(t)
	config_obj.Router.DefaultKey = "unrouted"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appender, err := vroute.NewRoutingAppender(ctx, config_obj)
	require.NoError(t, err)
	defer appender.Close()

	assert.NoError(t, appender.Append(events.NewEvent("info", "lost")))
	assert.Equal(t, []string{"unrouted"}, appender.LiveKeys())
}

func TestExpireIdleDrains(t *testing.T) {
	config_obj := vtesting.GetTestConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appender, err := vroute.NewRoutingAppender(ctx, config_obj)
	require.NoError(t, err)

	for _, source := range []string{"alpha", "beta"} {
		assert.NoError(t, appender.Append(
			events.NewEvent("info", "x").WithContext("source", source)))
	}

	assert.Equal(t, 2, appender.ExpireIdle(0))
	assert.Empty(t, appender.LiveKeys())

	assert.NoError(t, appender.Close())
}

func TestStartupLogging(t *testing.T) {
	logging.ClearMemoryLogs()

	config_obj := vtesting.GetTestConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appender, err := vroute.NewRoutingAppender(ctx, config_obj)
	require.NoError(t, err)
	defer appender.Close()

	vtesting.MemoryLogsContain(t, "Starting the routing appender")
}
