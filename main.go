package main

import (
	"github.com/spaghettifunk/anima-io/cmd"
	"github.com/spaghettifunk/anima-io/engine/core"
)

func main() {
	if err := cmd.Execute(); err != nil {
		core.LogFatal("%s", err)
	}
}
