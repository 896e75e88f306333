package config

import (
	config_proto "www.velocidex.com/golang/vroute/config/proto"
)

const VERSION = "0.1.0"

// Written by the build system through -ldflags -X (see magefile.go).
var (
	build_time  string
	commit_hash string
)

func GetVersion() *config_proto.Version {
	return &config_proto.Version{
		Name:      "vroute",
		Version:   VERSION,
		BuildTime: build_time,
		Commit:    commit_hash,
	}
}
