package logging

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
	"time"

	fqdn "github.com/Showmax/go-fqdn"
	rotatelogs "github.com/Velocidex/file-rotatelogs"
	errors "github.com/go-errors/errors"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	config_proto "www.velocidex.com/golang/vroute/config/proto"
)

var (
	SuppressLogging = false

	// Components may be registered at any time before the first
	// GetLogger() call. Each gets its own log context and, when an
	// output directory is configured, its own rotated log file.
	GenericComponent  = "VRoute"
	FrontendComponent = "VRouteFrontend"
	ToolComponent     = "VRouteTool"

	AllComponents = []*string{
		&GenericComponent,
		&FrontendComponent,
		&ToolComponent,
	}

	mu      sync.Mutex
	manager *LogManager
	prelogs []string

	default_rotation_time = 24 * time.Hour
	default_max_age       = 7 * 24 * time.Hour
)

// LogContext wraps a logrus logger for one component. Methods are
// printf style and tolerate a nil receiver so callers do not need to
// check for early startup.
type LogContext struct {
	logger    *logrus.Logger
	component string
	hostname  string
}

func (self *LogContext) fields() logrus.Fields {
	return logrus.Fields{
		"component": self.component,
		"hostname":  self.hostname,
	}
}

func (self *LogContext) Debug(format string, v ...interface{}) {
	if self == nil || self.logger == nil {
		return
	}
	self.logger.WithFields(self.fields()).Debug(fmt.Sprintf(format, v...))
}

func (self *LogContext) Info(format string, v ...interface{}) {
	if self == nil || self.logger == nil {
		return
	}
	self.logger.WithFields(self.fields()).Info(fmt.Sprintf(format, v...))
}

func (self *LogContext) Warn(format string, v ...interface{}) {
	if self == nil || self.logger == nil {
		return
	}
	self.logger.WithFields(self.fields()).Warn(fmt.Sprintf(format, v...))
}

func (self *LogContext) Error(format string, v ...interface{}) {
	if self == nil || self.logger == nil {
		return
	}
	self.logger.WithFields(self.fields()).Error(fmt.Sprintf(format, v...))
}

type LogManager struct {
	contexts map[*string]*LogContext
}

func (self *LogManager) GetComponent(component *string) *LogContext {
	ctx, pres := self.contexts[component]
	if !pres {
		return self.contexts[&GenericComponent]
	}
	return ctx
}

// GetLogger returns the log context for a component, lazily
// initializing the manager from config_obj on first use. Errors
// opening log files are reported on stderr but never prevent a
// logger from being handed out.
func GetLogger(config_obj *config_proto.Config, component *string) *LogContext {
	mu.Lock()
	defer mu.Unlock()

	if manager == nil {
		err := initLogManager(config_obj)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to initialize logging: %v\n", err)
		}
	}

	return manager.GetComponent(component)
}

// InitLogging (re)builds all component loggers from the config. The
// config loader calls this once the final config is known so early
// messages land in the right files.
func InitLogging(config_obj *config_proto.Config) error {
	mu.Lock()
	err := initLogManager(config_obj)
	mu.Unlock()
	if err != nil {
		return err
	}

	FlushPrelogs(config_obj)
	return nil
}

func initLogManager(config_obj *config_proto.Config) error {
	manager = &LogManager{
		contexts: make(map[*string]*LogContext),
	}

	hostname := getHostname()

	var hard_err error
	for _, component := range AllComponents {
		ctx, err := makeNewComponent(config_obj, component, hostname)
		if err != nil && hard_err == nil {
			hard_err = err
		}
		manager.contexts[component] = ctx
	}
	return hard_err
}

func makeNewComponent(
	config_obj *config_proto.Config,
	component *string, hostname string) (*LogContext, error) {

	logger := logrus.New()
	logger.Out = os.Stderr
	if SuppressLogging {
		logger.Out = ioutil.Discard
	}

	logger.SetLevel(getLevel(config_obj))
	logger.Formatter = &Formatter{
		DisableColor: disableColor(config_obj),
	}
	logger.Hooks.Add(memoryLogHook{})

	result := &LogContext{
		logger:    logger,
		component: *component,
		hostname:  hostname,
	}

	if config_obj == nil || config_obj.Logging == nil ||
		config_obj.Logging.OutputDirectory == "" {
		return result, nil
	}

	rotator, err := makeRotator(config_obj, component)
	if err != nil {
		return result, err
	}

	logger.Hooks.Add(lfshook.NewHook(
		lfshook.WriterMap{
			logrus.DebugLevel: rotator,
			logrus.InfoLevel:  rotator,
			logrus.WarnLevel:  rotator,
			logrus.ErrorLevel: rotator,
			logrus.FatalLevel: rotator,
			logrus.PanicLevel: rotator,
		},
		&tagStrippingFormatter{&logrus.JSONFormatter{}}))

	return result, nil
}

func makeRotator(
	config_obj *config_proto.Config,
	component *string) (io.Writer, error) {

	rotation := default_rotation_time
	max_age := default_max_age

	if config_obj.Logging.RotationTime > 0 {
		rotation = time.Duration(
			config_obj.Logging.RotationTime) * time.Second
	}
	if config_obj.Logging.MaxAge > 0 {
		max_age = time.Duration(config_obj.Logging.MaxAge) * time.Second
	}

	base := filepath.Join(
		config_obj.Logging.OutputDirectory, *component+".log")

	result, err := rotatelogs.New(
		base+".%Y-%m-%d",
		rotatelogs.WithLinkName(base),
		rotatelogs.WithRotationTime(rotation),
		rotatelogs.WithMaxAge(max_age),
	)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	return result, nil
}

// AddLogFile tees every component to an additional plain log file.
// Used by command line tools that want a transcript next to the
// rotated component logs.
func AddLogFile(filename string) error {
	mu.Lock()
	defer mu.Unlock()

	if manager == nil {
		return errors.New("Logging is not initialized yet")
	}

	fd, err := os.OpenFile(filename,
		os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return errors.Wrap(err, 0)
	}

	hook := lfshook.NewHook(
		fd, &tagStrippingFormatter{&logrus.JSONFormatter{}})
	for _, ctx := range manager.contexts {
		ctx.logger.Hooks.Add(hook)
	}
	return nil
}

// Prelog buffers messages emitted before logging is configured. The
// loader flushes them into the generic component once the final
// config is known.
func Prelog(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	prelogs = append(prelogs, fmt.Sprintf(format, v...))
}

func FlushPrelogs(config_obj *config_proto.Config) {
	logger := GetLogger(config_obj, &GenericComponent)

	mu.Lock()
	buffered := prelogs
	prelogs = nil
	mu.Unlock()

	for _, message := range buffered {
		logger.Info("%s", message)
	}
}

// Reset discards the current log manager. The next GetLogger call
// rebuilds it. Tests use this to isolate logging state.
func Reset() {
	mu.Lock()
	defer mu.Unlock()

	manager = nil
	prelogs = nil
}

func getLevel(config_obj *config_proto.Config) logrus.Level {
	if config_obj != nil {
		if config_obj.Verbose {
			return logrus.DebugLevel
		}

		if config_obj.Logging != nil && config_obj.Logging.Level != "" {
			level, err := logrus.ParseLevel(config_obj.Logging.Level)
			if err == nil {
				return level
			}
		}
	}
	return logrus.InfoLevel
}

func disableColor(config_obj *config_proto.Config) bool {
	if config_obj != nil && config_obj.Logging != nil &&
		config_obj.Logging.DisableColor {
		return true
	}
	return !isTerminal(os.Stderr)
}

func getHostname() string {
	name, err := fqdn.FqdnHostname()
	if err == nil {
		return name
	}

	name, err = os.Hostname()
	if err == nil {
		return name
	}
	return "unknown"
}
