package config

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/Velocidex/yaml/v2"
	"github.com/go-errors/errors"

	config_proto "www.velocidex.com/golang/vroute/config/proto"
	"www.velocidex.com/golang/vroute/logging"
)

// A hard error causes the loader to stop immediately.
type HardError struct {
	Err error
}

func (self HardError) Error() string {
	return self.Err.Error()
}

type loaderFunction struct {
	name        string
	loader_func func(self *Loader) (*config_proto.Config, error)
}

type configMutator struct {
	name                string
	config_mutator_func func(self *config_proto.Config) error
}

type validatorFunction struct {
	name      string
	validator func(self *Loader, config_obj *config_proto.Config) error
}

type Loader struct {
	verbose, required_logging bool

	loaders         []loaderFunction
	config_mutators []configMutator
	validators      []validatorFunction

	logger *logging.LogContext
}

func (self *Loader) WithLogFile(filename string) *Loader {
	if filename == "" {
		return self
	}

	self = self.Copy()
	self.validators = append(self.validators, validatorFunction{
		name: "WithLogFile",
		validator: func(self *Loader, config_obj *config_proto.Config) error {
			err := logging.AddLogFile(filename)
			if err != nil {
				return HardError{err}
			}
			return nil
		}})
	return self
}

// Appending events requires a sink to create. Tools which only
// inspect the config do not set this.
func (self *Loader) WithRequiredSink() *Loader {
	self = self.Copy()
	self.validators = append(self.validators, validatorFunction{
		name: "WithRequiredSink",
		validator: func(self *Loader, config_obj *config_proto.Config) error {
			if config_obj.Sink == nil {
				return errors.New("Sink config is required")
			}
			return nil
		}})
	return self
}

func (self *Loader) WithVerbose(verbose bool) *Loader {
	self = self.Copy()
	self.verbose = verbose
	return self
}

// If this is set we require logging to be properly
// initialized. Without this logging is directed to stderr only.
func (self *Loader) WithRequiredLogging() *Loader {
	self = self.Copy()
	self.required_logging = true
	return self
}

func (self *Loader) WithConfigMutator(
	name string,
	mutator func(self *config_proto.Config) error) *Loader {
	self = self.Copy()
	self.config_mutators = append(self.config_mutators, configMutator{
		name:                name,
		config_mutator_func: mutator,
	})
	return self
}

func (self *Loader) WithCustomValidator(
	name string,
	validator func(config_obj *config_proto.Config) error) *Loader {
	self = self.Copy()
	self.validators = append(self.validators, validatorFunction{
		name: name,
		validator: func(self *Loader, config_obj *config_proto.Config) error {
			return validator(config_obj)
		}})
	return self
}

func (self *Loader) WithNullLoader() *Loader {
	self = self.Copy()
	self.loaders = append(self.loaders, loaderFunction{
		name: "WithNullLoader",
		loader_func: func(self *Loader) (*config_proto.Config, error) {
			self.Log("Setting empty config")
			return &config_proto.Config{}, nil
		}})
	return self
}

func (self *Loader) WithDefaultLoader() *Loader {
	self = self.Copy()
	self.loaders = append(self.loaders, loaderFunction{
		name: "WithDefaultLoader",
		loader_func: func(self *Loader) (*config_proto.Config, error) {
			self.Log("Using the default config")
			return GetDefaultConfig(), nil
		}})
	return self
}

func (self *Loader) WithFileLoader(filename string) *Loader {
	if filename != "" {
		self = self.Copy()
		self.loaders = append(self.loaders, loaderFunction{
			name: "WithFileLoader",
			loader_func: func(self *Loader) (*config_proto.Config, error) {
				self.Log("Loading config from file %v", filename)
				result, err := read_config_from_file(filename)
				if err != nil {
					// If a filename is specified but it
					// does not exist or invalid stop
					// searching immediately.
					return result, HardError{err}
				}
				return result, nil

			}})
	}

	return self
}

func (self *Loader) WithLiteralLoader(serialized []byte) *Loader {
	if len(serialized) > 0 {
		self = self.Copy()
		self.loaders = append(self.loaders, loaderFunction{
			name: "WithLiteralLoader",
			loader_func: func(self *Loader) (*config_proto.Config, error) {
				self.Log("Loading constant config")
				result := &config_proto.Config{}
				err := yaml.UnmarshalStrict(serialized, result)
				if err != nil {
					return nil, errors.Wrap(err, 0)
				}
				return result, nil
			}})
	}

	return self
}

func (self *Loader) WithEnvLoader(env_var string) *Loader {
	self = self.Copy()
	self.loaders = append(self.loaders, loaderFunction{
		name: "WithEnvLoader",
		loader_func: func(self *Loader) (*config_proto.Config, error) {
			env_config := os.Getenv(env_var)
			if env_config != "" {
				self.Log("Loading config from env %v (%v)", env_var, env_config)
				return read_config_from_file(env_config)
			}
			return nil, fmt.Errorf("Env var %v is not set", env_var)
		}})

	return self
}

func (self *Loader) WithEnvLiteralLoader(env_var string) *Loader {
	self = self.Copy()
	self.loaders = append(self.loaders, loaderFunction{
		name: "WithEnvLiteralLoader",
		loader_func: func(self *Loader) (*config_proto.Config, error) {
			env_config := os.Getenv(env_var)
			if env_config != "" {
				self.Log("Loading literal config from env %v", env_var)
				result := &config_proto.Config{}
				err := yaml.UnmarshalStrict([]byte(env_config), result)
				if err != nil {
					return nil, errors.Wrap(err, 0)
				}
				return result, nil
			}
			return nil, fmt.Errorf("Env var %v is not set", env_var)
		}})

	return self
}

func (self *Loader) Copy() *Loader {
	return &Loader{
		verbose:          self.verbose,
		required_logging: self.required_logging,
		logger:           self.logger,
		loaders:          append([]loaderFunction{}, self.loaders...),
		validators:       append([]validatorFunction{}, self.validators...),
		config_mutators:  append([]configMutator{}, self.config_mutators...),
	}
}

func (self *Loader) Log(format string, v ...interface{}) {
	if self.logger == nil {
		logging.Prelog(format, v...)
	} else {
		self.logger.Info(format, v...)
	}
}

func (self *Loader) Validate(config_obj *config_proto.Config) error {
	var err error

	logging.Reset()
	logging.SuppressLogging = !self.verbose

	// Mark the config as verbose.
	config_obj.Verbose = self.verbose

	// Apply any configuration mutators
	for _, mutator := range self.config_mutators {
		debug("Trying mutator %v", mutator.name)
		err = mutator.config_mutator_func(config_obj)
		if err != nil {
			return err
		}
	}

	// Initialize the logging and dump early messages into the
	// correct log destination.
	if self.required_logging {
		err = logging.InitLogging(config_obj)
		if err != nil {
			return err
		}
	} else {
		// Logging is not required so if it fails we dont
		// care.
		_ = logging.InitLogging(config_obj)
	}

	// Set the logger for the rest of the loading process.
	self.logger = logging.GetLogger(config_obj, &logging.ToolComponent)

	for _, validator := range self.validators {
		debug("Trying validator %v", validator.name)
		err = validator.validator(self, config_obj)
		if err != nil {
			self.Log("%v", err)
			return err
		}
	}

	if config_obj.Router != nil {
		err = ValidateRouterConfig(config_obj)
		if err != nil {
			return err
		}
	}

	if config_obj.Cache != nil {
		err = ValidateCacheConfig(config_obj)
		if err != nil {
			return err
		}
	}

	if config_obj.Sink != nil {
		err = ValidateSinkConfig(config_obj)
		if err != nil {
			return err
		}
	}

	return nil
}

func (self *Loader) LoadAndValidate() (*config_proto.Config, error) {
	for _, loader := range self.loaders {
		debug("Trying loader %v", loader.name)
		result, err := loader.loader_func(self)
		if err == nil {
			return result, self.Validate(result)
		}

		// Stop on hard errors.
		_, ok := err.(HardError)
		if ok {
			return nil, err
		}
		self.Log("%v", err)
	}
	return nil, errors.New("Unable to load config from any source.")
}

func read_config_from_file(filename string) (*config_proto.Config, error) {
	result := &config_proto.Config{}

	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	err = yaml.UnmarshalStrict(data, result)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	return result, nil
}

func debug(message string, args ...interface{}) {
	return

	// logging.Prelog(message, args...)
}
