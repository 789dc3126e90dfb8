//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Tidies the module and builds a static anima-io binary into bin/.
func (Build) CLI() error {
	if err := goTidy(); err != nil {
		return err
	}
	build := withArgs("build", "-trimpath", "-o", "bin/anima-io", ".")
	if _, err := executeCmd("go", build, withEnv("CGO_ENABLED=0"), withStream()); err != nil {
		return err
	}
	return nil
}
