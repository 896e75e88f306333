/*
Velociraptor - Dig Deeper
Copyright (C) 2019-2025 Rapid7 Inc.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package sinks

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-errors/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	config_proto "www.velocidex.com/golang/vroute/config/proto"
	"www.velocidex.com/golang/vroute/events"
	"www.velocidex.com/golang/vroute/json"
	"www.velocidex.com/golang/vroute/logging"
	"www.velocidex.com/golang/vroute/route/pattern"
)

var (
	fileSinkBytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "file_sink_bytes_written",
		Help: "Total bytes appended to file sinks.",
	})
)

// FileFactory opens one append only JSONL file per routing key. The
// file path is derived from the event that first triggered the key,
// with each substituted value sanitized so events can not write
// outside the output directory.
type FileFactory struct {
	config_obj *config_proto.Config
	template   *pattern.Template
	directory  string
	logger     *logging.LogContext
}

func NewFileFactory(config_obj *config_proto.Config) (Factory, error) {
	if config_obj.Sink == nil || config_obj.Sink.Path == "" {
		return nil, errors.New("File sinks require a sink.path template")
	}

	if filepath.IsAbs(config_obj.Sink.Path) {
		return nil, errors.Errorf(
			"Sink path templates must be relative: %v", config_obj.Sink.Path)
	}

	template, err := pattern.NewTemplate(config_obj.Sink.Path)
	if err != nil {
		return nil, err
	}

	directory := config_obj.Sink.Directory
	if directory == "" {
		directory = "."
	}

	return &FileFactory{
		config_obj: config_obj,
		template:   template,
		directory:  directory,
		logger:     logging.GetLogger(config_obj, &logging.FrontendComponent),
	}, nil
}

func (self *FileFactory) Create(key string, event *events.Event) (Sink, error) {
	defer Instrument("open", "file")()

	relative_path, err := self.template.ExpandPath(event)
	if err != nil {
		return nil, err
	}

	full_path, err := self.resolvePath(relative_path)
	if err != nil {
		self.logger.Error("Rejecting sink path for key %v: %v", key, err)
		return nil, err
	}

	err = os.MkdirAll(filepath.Dir(full_path), 0700)
	if err != nil {
		self.logger.Error("Unable to create directory for %v: %v", full_path, err)
		return nil, errors.Wrap(err, 0)
	}

	fd, err := os.OpenFile(full_path,
		os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		self.logger.Error("Unable to open sink file %v: %v", full_path, err)
		return nil, errors.Wrap(err, 0)
	}

	return &FileSink{fd: fd, path: full_path}, nil
}

// Expanded paths must stay inside the output directory even though
// substituted values are already sanitized - literal template text
// is config controlled and may contain separators on purpose.
func (self *FileFactory) resolvePath(relative_path string) (string, error) {
	base, err := filepath.Abs(self.directory)
	if err != nil {
		return "", errors.Wrap(err, 0)
	}

	abs_path, err := filepath.Abs(filepath.Join(self.directory, relative_path))
	if err != nil {
		return "", errors.Wrap(err, 0)
	}

	if abs_path == base ||
		!strings.HasPrefix(abs_path, base+string(filepath.Separator)) {
		return "", errors.Errorf(
			"Sink path %v escapes the output directory", relative_path)
	}

	return abs_path, nil
}

type FileSink struct {
	fd   *os.File
	path string
}

// Each event is serialized into a single Write call so records from
// sinks sharing a file interleave at line granularity.
func (self *FileSink) Append(event *events.Event) error {
	serialized, err := json.Marshal(event.Row())
	if err != nil {
		return errors.Wrap(err, 0)
	}

	_, err = self.fd.Write(append(serialized, '\n'))
	if err != nil {
		return errors.Wrap(err, 0)
	}

	fileSinkBytesWritten.Add(float64(len(serialized) + 1))
	return nil
}

func (self *FileSink) Close() error {
	return self.fd.Close()
}

func init() {
	RegisterFactory("file", NewFileFactory)
}
