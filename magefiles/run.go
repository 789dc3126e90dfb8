//go:build mage

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Fetches the keys listed in $ANIMA_IO_KEYS (space separated) from the
// assets directory, caching them in assets.snapshot.
func (Run) Fetch() error {
	mg.Deps(Build.CLI)

	keys := strings.Fields(os.Getenv("ANIMA_IO_KEYS"))
	if len(keys) == 0 {
		return fmt.Errorf("set ANIMA_IO_KEYS to the assets to fetch")
	}
	args := append([]string{"fetch", "--cache", "../assets.snapshot"}, keys...)
	fmt.Println("Run fetch...")
	run := []cmdOption{withArgs(args...), withDir("assets"), withStream()}
	if lvl := os.Getenv("ANIMA_IO_LOG_LEVEL"); lvl != "" {
		run = append(run, withArgs("--log-level", lvl))
	}
	if _, err := executeCmd("../bin/anima-io", run...); err != nil {
		return err
	}
	return nil
}
