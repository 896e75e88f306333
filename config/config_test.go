package config_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"www.velocidex.com/golang/vroute/config"
)

func TestLiteralLoader(t *testing.T) {
	config_obj, err := new(config.Loader).WithLiteralLoader([]byte(`
router:
  pattern: "${ctx(tenant)}"
  strict: true
cache:
  capacity: 8
sink:
  kind: memory
`)).LoadAndValidate()
	require.NoError(t, err)

	assert.Equal(t, "${ctx(tenant)}", config_obj.Router.Pattern)
	assert.True(t, config_obj.Router.Strict)
	assert.Equal(t, int64(8), config_obj.Cache.Capacity)
	assert.Equal(t, "memory", config_obj.Sink.Kind)
}

func TestUnknownFieldsRejected(t *testing.T) {
	_, err := new(config.Loader).WithLiteralLoader([]byte(`
router:
  patern: oops
`)).LoadAndValidate()
	assert.Error(t, err)
}

func TestValidationErrors(t *testing.T) {
	_, err := new(config.Loader).WithLiteralLoader([]byte(`
cache:
  capacity: -5
sink:
  kind: memory
`)).LoadAndValidate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "can not be negative")

	_, err = new(config.Loader).WithLiteralLoader([]byte(`
router:
  pattern: "${broken"
sink:
  kind: memory
`)).LoadAndValidate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "router.pattern")

	_, err = new(config.Loader).WithLiteralLoader([]byte(`
sink:
  path: /var/log/out.jsonl
`)).LoadAndValidate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be relative")
}

func TestRequiredSink(t *testing.T) {
	_, err := new(config.Loader).WithLiteralLoader([]byte(`
router:
  pattern: "${ctx(a)}"
`)).WithRequiredSink().LoadAndValidate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Sink config is required")
}

func TestFileLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.config.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(`
sink:
  kind: memory
`), 0600))

	config_obj, err := new(config.Loader).
		WithFileLoader(path).
		LoadAndValidate()
	require.NoError(t, err)

	assert.Equal(t, "memory", config_obj.Sink.Kind)
}

func TestFileLoaderHardError(t *testing.T) {
	// An explicit file that fails to load stops the search - the
	// default loader must not mask it.
	_, err := new(config.Loader).
		WithFileLoader("/nonexistent/vroute/config.yaml").
		WithDefaultLoader().
		LoadAndValidate()
	assert.Error(t, err)
}

func TestDefaultLoader(t *testing.T) {
	config_obj, err := new(config.Loader).
		WithFileLoader("").
		WithDefaultLoader().
		LoadAndValidate()
	require.NoError(t, err)

	assert.Equal(t, int64(64), config_obj.Cache.Capacity)
	assert.Equal(t, "${ctx(source,unknown)}.jsonl", config_obj.Sink.Path)
}

func TestEnvLiteralLoader(t *testing.T) {
	os.Setenv("VROUTE_TEST_CONFIG", "sink:\n  kind: memory\n")
	defer os.Unsetenv("VROUTE_TEST_CONFIG")

	config_obj, err := new(config.Loader).
		WithEnvLiteralLoader("VROUTE_TEST_CONFIG").
		LoadAndValidate()
	require.NoError(t, err)

	assert.Equal(t, "memory", config_obj.Sink.Kind)
}
