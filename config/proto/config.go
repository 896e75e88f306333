// Package proto holds the wire form of the vroute configuration. It
// deliberately contains no logic so every other package can import it
// without cycles.
package proto

type Config struct {
	Router  *RouterConfig  `yaml:"router,omitempty" json:"router,omitempty"`
	Cache   *CacheConfig   `yaml:"cache,omitempty" json:"cache,omitempty"`
	Sink    *SinkConfig    `yaml:"sink,omitempty" json:"sink,omitempty"`
	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty"`

	// Set by the loader, not the config file.
	Verbose bool `yaml:"-" json:"-"`
}

type RouterConfig struct {
	// Registry name of the key derivation strategy. Currently
	// "pattern" is built in.
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty"`

	// Key template, e.g. "${ctx(tenant,-)}". When empty the key is
	// derived from the context names referenced by the sink template.
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`

	// When set, a placeholder without a default fails the event
	// instead of substituting the empty string.
	Strict bool `yaml:"strict,omitempty" json:"strict,omitempty"`

	// When set, events whose key can not be derived are rerouted to
	// this key instead of being dropped with an error.
	DefaultKey string `yaml:"default_key,omitempty" json:"default_key,omitempty"`
}

type CacheConfig struct {
	// Maximum number of live sinks. Reaching it evicts the least
	// recently dispatched sink.
	Capacity int64 `yaml:"capacity,omitempty" json:"capacity,omitempty"`

	// Seconds a sink may sit unused before the sweeper closes it. 0
	// disables idle expiry.
	IdleTimeout int64 `yaml:"idle_timeout,omitempty" json:"idle_timeout,omitempty"`

	// Seconds during which a failed sink creation is remembered and
	// reported without retrying the factory. 0 disables the memo.
	CreationBackoff int64 `yaml:"creation_backoff,omitempty" json:"creation_backoff,omitempty"`

	// Upper bound on factory invocations per second across all keys.
	// 0 means unlimited.
	CreationRate int64 `yaml:"creation_rate,omitempty" json:"creation_rate,omitempty"`
}

type SinkConfig struct {
	// Registry name of the sink implementation. "file" and "memory"
	// are built in.
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty"`

	// File sink: base directory all expanded paths must stay inside.
	Directory string `yaml:"directory,omitempty" json:"directory,omitempty"`

	// File sink: per key relative path template, e.g.
	// "${ctx(tenant,-)}/events.json". Expansion is strict - a
	// placeholder without a default fails creation when the context
	// value is missing.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
}

type LoggingConfig struct {
	// When set, each component writes a rotated JSON log file under
	// this directory in addition to stderr.
	OutputDirectory string `yaml:"output_directory,omitempty" json:"output_directory,omitempty"`

	Level string `yaml:"level,omitempty" json:"level,omitempty"`

	DisableColor bool `yaml:"disable_color,omitempty" json:"disable_color,omitempty"`

	// Seconds between log file rotations. Default one day.
	RotationTime int64 `yaml:"rotation_time,omitempty" json:"rotation_time,omitempty"`

	// Seconds rotated files are kept. Default one week.
	MaxAge int64 `yaml:"max_age,omitempty" json:"max_age,omitempty"`
}

// Version describes the running binary. BuildTime and Commit are
// stamped in by the build system.
type Version struct {
	Name      string `yaml:"name,omitempty" json:"name,omitempty"`
	Version   string `yaml:"version,omitempty" json:"version,omitempty"`
	BuildTime string `yaml:"build_time,omitempty" json:"build_time,omitempty"`
	Commit    string `yaml:"commit,omitempty" json:"commit,omitempty"`
}
