//+build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var (
	name = "vroute"
)

// Builds a release binary.
func Linux() error {
	if err := os.Mkdir("output", 0700); err != nil && !os.IsExist(err) {
		return fmt.Errorf("failed to create output: %v", err)
	}

	env := make(map[string]string)
	return sh.RunWith(
		env,
		mg.GoCmd(), "build",
		"-o", filepath.Join("output", name),
		"-ldflags=-s -w "+flags(),
		"./bin/")
}

// Builds a development binary with full debug information.
func Dev() error {
	if err := os.Mkdir("output", 0700); err != nil && !os.IsExist(err) {
		return fmt.Errorf("failed to create output: %v", err)
	}

	env := make(map[string]string)
	return sh.RunWith(
		env,
		mg.GoCmd(), "build",
		"-o", filepath.Join("output", name),
		"-ldflags="+flags(),
		"./bin/")
}

// Cross compile the windows binary.
func Windows() error {
	if err := os.Mkdir("output", 0700); err != nil && !os.IsExist(err) {
		return fmt.Errorf("failed to create output: %v", err)
	}

	env := map[string]string{
		"GOOS":        "windows",
		"GOARCH":      "amd64",
		"CGO_ENABLED": "0",
	}
	return sh.RunWith(
		env,
		mg.GoCmd(), "build",
		"-o", filepath.Join("output", name+".exe"),
		"-ldflags=-s -w "+flags(),
		"./bin/")
}

func Test() error {
	return sh.RunV(mg.GoCmd(), "test", "-race", "./...")
}

func Clean() error {
	return sh.Rm("output")
}

func flags() string {
	timestamp := time.Now().Format(time.RFC3339)
	return fmt.Sprintf(`-X "www.velocidex.com/golang/vroute/config.build_time=%s" -X "www.velocidex.com/golang/vroute/config.commit_hash=%s"`, timestamp, hash())
}

// hash returns the git hash for the current repo or "" if none.
func hash() string {
	hash, _ := sh.Output("git", "rev-parse", "--short", "HEAD")
	return hash
}
