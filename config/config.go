package config

import (
	"path/filepath"

	"github.com/go-errors/errors"

	config_proto "www.velocidex.com/golang/vroute/config/proto"
	"www.velocidex.com/golang/vroute/route/pattern"
	"www.velocidex.com/golang/vroute/utils"
)

// GetDefaultConfig returns a usable baseline: events route on the
// context names referenced by the sink path and land in JSONL files
// under the current directory.
func GetDefaultConfig() *config_proto.Config {
	return &config_proto.Config{
		Router: &config_proto.RouterConfig{
			Kind: "pattern",
		},
		Cache: &config_proto.CacheConfig{
			Capacity:    64,
			IdleTimeout: 120,
		},
		Sink: &config_proto.SinkConfig{
			Kind:      "file",
			Directory: ".",
			Path:      "${ctx(source,unknown)}.jsonl",
		},
		Logging: &config_proto.LoggingConfig{},
	}
}

func ValidateRouterConfig(config_obj *config_proto.Config) error {
	router := config_obj.Router
	if router == nil {
		return nil
	}

	// Custom router kinds are registered by importers and can not
	// be syntax checked here.
	if router.Kind != "" && router.Kind != "pattern" {
		return nil
	}

	if router.Pattern != "" {
		_, err := pattern.NewTemplate(router.Pattern)
		if err != nil {
			return utils.Wrap(err, "router.pattern")
		}
	}

	return nil
}

func ValidateCacheConfig(config_obj *config_proto.Config) error {
	cache_config := config_obj.Cache
	if cache_config == nil {
		return nil
	}

	if cache_config.Capacity < 0 {
		return errors.Errorf(
			"cache.capacity can not be negative: %v", cache_config.Capacity)
	}

	if cache_config.IdleTimeout < 0 {
		return errors.Errorf(
			"cache.idle_timeout can not be negative: %v",
			cache_config.IdleTimeout)
	}

	if cache_config.CreationBackoff < 0 {
		return errors.Errorf(
			"cache.creation_backoff can not be negative: %v",
			cache_config.CreationBackoff)
	}

	if cache_config.CreationRate < 0 {
		return errors.Errorf(
			"cache.creation_rate can not be negative: %v",
			cache_config.CreationRate)
	}

	return nil
}

func ValidateSinkConfig(config_obj *config_proto.Config) error {
	sink_config := config_obj.Sink
	if sink_config == nil {
		return nil
	}

	if sink_config.Kind == "" || sink_config.Kind == "file" {
		if sink_config.Path == "" {
			return errors.New("File sinks require sink.path")
		}

		if filepath.IsAbs(sink_config.Path) {
			return errors.Errorf(
				"sink.path must be relative: %v", sink_config.Path)
		}

		_, err := pattern.NewTemplate(sink_config.Path)
		if err != nil {
			return utils.Wrap(err, "sink.path")
		}
	}

	return nil
}
