//go:build mage

// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binaryName = "netherland"
	binaryDir  = "bin"
	cmdDir     = "./cmd/netherland"
)

// Build compiles the netherland binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// Scenario builds the binary, creates the reference core in a scratch
// directory and applies one deposition step to it.
func Scenario() error {
	mg.Deps(Build)
	dir, err := os.MkdirTemp("", "netherland-scenario-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	bin := filepath.Join(binaryDir, binaryName)
	dirs := []string{"--config-dir", filepath.Join(dir, "config"), "--data-dir", filepath.Join(dir, "data")}
	id, err := sh.Output(bin, append(dirs, "init", "--name", "reference")...)
	if err != nil {
		return err
	}
	if err := sh.RunV(bin, append(dirs, "show", id)...); err != nil {
		return err
	}
	return sh.RunV(bin, append(dirs, "step", id,
		"--deposition", "0.5", "--biomass-at-surface", "0.0105", "--litter-fraction", "0.1")...)
}
