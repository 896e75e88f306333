package sinks_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"www.velocidex.com/golang/vroute/config"
	config_proto "www.velocidex.com/golang/vroute/config/proto"
	"www.velocidex.com/golang/vroute/events"
	"www.velocidex.com/golang/vroute/logging"
	"www.velocidex.com/golang/vroute/route"
	"www.velocidex.com/golang/vroute/sinks"
)

func fileConfig(t *testing.T, path string) *config_proto.Config {
	config_obj := config.GetDefaultConfig()
	config_obj.Sink = &config_proto.SinkConfig{
		Kind:      "file",
		Directory: t.TempDir(),
		Path:      path,
	}
	return config_obj
}

func TestFileSinkRoundTrip(t *testing.T) {
	config_obj := fileConfig(t, "${ctx(source)}.jsonl")

	factory, err := sinks.NewFactory(config_obj)
	require.NoError(t, err)

	event := events.NewEvent("info", "hello world").
		Set("user", "mike").
		WithContext("source", "alpha")

	sink, err := factory.Create("alpha", event)
	require.NoError(t, err)

	assert.NoError(t, sink.Append(event))
	assert.NoError(t, sink.Append(events.NewEvent("error", "second").
		WithContext("source", "alpha")))
	assert.NoError(t, sink.Close())

	data, err := ioutil.ReadFile(filepath.Join(
		config_obj.Sink.Directory, "alpha.jsonl"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)

	assert.Contains(t, lines[0], `"message":"hello world"`)
	assert.Contains(t, lines[0], `"user":"mike"`)
	assert.Contains(t, lines[1], `"level":"error"`)
}

func TestFileSinkSanitizesValues(t *testing.T) {
	config_obj := fileConfig(t, "${ctx(source)}.jsonl")

	factory, err := sinks.NewFactory(config_obj)
	require.NoError(t, err)

	event := events.NewEvent("info", "x").
		WithContext("source", "../../escape")

	sink, err := factory.Create("../../escape", event)
	require.NoError(t, err)
	assert.NoError(t, sink.Append(event))
	assert.NoError(t, sink.Close())

	// The traversal attempt lands inside the output directory under
	// an escaped name.
	_, err = os.Stat(filepath.Join(
		config_obj.Sink.Directory, "%2E%2E%2F..%2Fescape.jsonl"))
	assert.NoError(t, err)
}

func TestFileSinkRejectsEscapingTemplate(t *testing.T) {
	config_obj := fileConfig(t, "../${ctx(source)}.jsonl")

	factory, err := sinks.NewFactory(config_obj)
	require.NoError(t, err)

	event := events.NewEvent("info", "x").WithContext("source", "alpha")

	_, err = factory.Create("alpha", event)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "escapes the output directory")
}

func TestFileSinkRejectsAbsoluteTemplate(t *testing.T) {
	config_obj := config.GetDefaultConfig()
	config_obj.Sink = &config_proto.SinkConfig{
		Kind: "file",
		Path: "/etc/passwd",
	}

	_, err := sinks.NewFactory(config_obj)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be relative")
}

func TestFileSinkRequiresContextValues(t *testing.T) {
	config_obj := fileConfig(t, "${ctx(source)}.jsonl")

	factory, err := sinks.NewFactory(config_obj)
	require.NoError(t, err)

	_, err = factory.Create("k", events.NewEvent("info", "x"))
	assert.ErrorIs(t, err, route.ErrMissingValue)
}

func TestFileSinkCreatesDirectories(t *testing.T) {
	config_obj := fileConfig(t, "logs/${ctx(source)}/events.jsonl")

	factory, err := sinks.NewFactory(config_obj)
	require.NoError(t, err)

	event := events.NewEvent("info", "x").WithContext("source", "alpha")

	sink, err := factory.Create("alpha", event)
	require.NoError(t, err)
	assert.NoError(t, sink.Append(event))
	assert.NoError(t, sink.Close())

	_, err = os.Stat(filepath.Join(
		config_obj.Sink.Directory, "logs", "alpha", "events.jsonl"))
	assert.NoError(t, err)
}

func TestFactoryRegistry(t *testing.T) {
	config_obj := config.GetDefaultConfig()

	// The default kind is file.
	config_obj.Sink = &config_proto.SinkConfig{Path: "x.jsonl"}

	factory, err := sinks.NewFactory(config_obj)
	assert.NoError(t, err)

	_, ok := factory.(*sinks.FileFactory)
	assert.True(t, ok)

	config_obj.Sink.Kind = "memory"
	factory, err = sinks.NewFactory(config_obj)
	assert.NoError(t, err)

	_, ok = factory.(*sinks.MemoryFactory)
	assert.True(t, ok)

	config_obj.Sink.Kind = "carrier-pigeon"
	_, err = sinks.NewFactory(config_obj)
	assert.Error(t, err)
}

func init() {
	logging.SuppressLogging = true
}
