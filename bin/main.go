/*
   Velociraptor - Hunting Evil
   Copyright (C) 2019 Velocidex Innovations.

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
package main

import (
	"os"

	kingpin "github.com/alecthomas/kingpin/v2"
	"www.velocidex.com/golang/vroute/config"
	"www.velocidex.com/golang/vroute/logging"
)

type CommandHandler func(command string) bool

var (
	app = kingpin.New("vroute",
		"Route structured log events into per key sinks.")

	config_path = app.Flag("config", "The configuration file.").Short('c').
			Envar("VROUTE_CONFIG").String()

	verbose_flag = app.Flag(
		"verbose", "Enable verbose logging.").Short('v').
		Default("false").Bool()

	logging_flag = app.Flag(
		"logfile", "Also log to this file.").String()

	command_handlers []CommandHandler
)

func makeDefaultConfigLoader() *config.Loader {
	return new(config.Loader).
		WithVerbose(*verbose_flag).
		WithLogFile(*logging_flag).
		WithFileLoader(*config_path).
		WithEnvLoader("VROUTE_CONFIG").
		WithEnvLiteralLoader("VROUTE_LITERAL_CONFIG").
		WithDefaultLoader()
}

func main() {
	app.HelpFlag.Short('h')
	app.UsageTemplate(kingpin.CompactUsageTemplate).DefaultEnvars()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if !*verbose_flag {
		logging.SuppressLogging = true
	}

	for _, command_handler := range command_handlers {
		if command_handler(command) {
			break
		}
	}
}
