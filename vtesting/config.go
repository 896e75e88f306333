package vtesting

import (
	"testing"

	"github.com/stretchr/testify/require"
	"www.velocidex.com/golang/vroute/config"
	config_proto "www.velocidex.com/golang/vroute/config/proto"
)

var test_config = `
router:
  pattern: ${ctx(source)}
  strict: true
cache:
  capacity: 4
sink:
  kind: memory
`

// GetTestConfig returns a small validated config routing on the
// "source" context value into memory sinks.
func GetTestConfig(t *testing.T) *config_proto.Config {
	config_obj, err := new(config.Loader).
		WithLiteralLoader([]byte(test_config)).
		LoadAndValidate()
	require.NoError(t, err)

	return config_obj
}
