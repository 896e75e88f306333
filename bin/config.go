package main

import (
	"fmt"

	"github.com/Velocidex/yaml/v2"
	kingpin "github.com/alecthomas/kingpin/v2"
	"www.velocidex.com/golang/vroute/config"
)

var (
	config_command = app.Command(
		"config", "Manipulate the configuration.")

	config_init_command = config_command.Command(
		"init", "Write a default config to stdout.")

	config_verify_command = config_command.Command(
		"verify", "Load and validate a config file.")

	config_verify_command_path = config_verify_command.Arg(
		"path", "Config file to verify.").Required().String()
)

func doConfigInit() error {
	serialized, err := yaml.Marshal(config.GetDefaultConfig())
	if err != nil {
		return err
	}

	fmt.Printf("%s", serialized)
	return nil
}

func doConfigVerify() error {
	_, err := new(config.Loader).
		WithVerbose(*verbose_flag).
		WithFileLoader(*config_verify_command_path).
		WithRequiredSink().
		LoadAndValidate()
	if err != nil {
		return err
	}

	fmt.Printf("Config %v is valid\n", *config_verify_command_path)
	return nil
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case config_init_command.FullCommand():
			kingpin.FatalIfError(doConfigInit(), "config init")

		case config_verify_command.FullCommand():
			kingpin.FatalIfError(doConfigVerify(), "config verify")

		default:
			return false
		}
		return true
	})
}
