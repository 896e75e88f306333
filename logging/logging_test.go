package logging

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	config_proto "www.velocidex.com/golang/vroute/config/proto"
)

func TestClearTag(t *testing.T) {
	assert.Equal(t, "Starting the frontend",
		clearTag("<green>Starting</> the frontend"))
	assert.Equal(t, "evicted sink abc",
		clearTag("evicted sink <red>abc</>"))
	assert.Equal(t, "no markup", clearTag("no markup"))

	// Unknown tags are left alone.
	assert.Equal(t, "<b>bold</b>", clearTag("<b>bold</b>"))
}

func TestColorTag(t *testing.T) {
	assert.Equal(t, "\033[32mStarting\033[0m", colorTag("<green>Starting</>"))
}

func TestMemoryLogs(t *testing.T) {
	SuppressLogging = true
	Reset()
	ClearMemoryLogs()

	logger := GetLogger(&config_proto.Config{}, &FrontendComponent)
	logger.Info("Created sink <green>S1</> for key %v", "alpha")

	logs := GetMemoryLogs()
	assert.NotEmpty(t, logs)

	last := logs[len(logs)-1]
	assert.Contains(t, last, "info")
	assert.Contains(t, last, "Created sink S1 for key alpha")

	ClearMemoryLogs()
	assert.Empty(t, GetMemoryLogs())
}

func TestLogFileOutput(t *testing.T) {
	SuppressLogging = true
	Reset()

	dir := t.TempDir()
	config_obj := &config_proto.Config{
		Logging: &config_proto.LoggingConfig{
			OutputDirectory: dir,
		},
	}

	assert.NoError(t, InitLogging(config_obj))

	logger := GetLogger(config_obj, &FrontendComponent)
	logger.Info("a <red>file</> message")

	matches, err := filepath.Glob(
		filepath.Join(dir, FrontendComponent+".log*"))
	assert.NoError(t, err)
	assert.NotEmpty(t, matches)

	data, err := ioutil.ReadFile(matches[0])
	assert.NoError(t, err)

	// Color markup never reaches log files.
	assert.Contains(t, string(data), "a file message")

	// AddLogFile tees all components into one transcript.
	extra := filepath.Join(dir, "extra.log")
	assert.NoError(t, AddLogFile(extra))

	logger.Info("teed message")

	data, err = ioutil.ReadFile(extra)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "teed message")
}

func TestPrelog(t *testing.T) {
	SuppressLogging = true
	Reset()
	ClearMemoryLogs()

	Prelog("early message %v", 42)
	assert.NoError(t, InitLogging(&config_proto.Config{}))

	found := false
	for _, line := range GetMemoryLogs() {
		if strings.Contains(line, "early message 42") {
			found = true
		}
	}
	assert.True(t, found)
}
