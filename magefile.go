//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "clozerecall"

// Default target to run when none is specified
var Default = Build

// Build compiles the clozerecall binary into the repository root
func Build() error {
	return sh.RunV("go", "build", "-o", binary, "./cmd/"+binary)
}

// Test runs all tests
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Race runs the concurrent packages under the race detector
func Race() error {
	return sh.RunV("go", "test", "-race", "./internal/playback/...", "./internal/session/...", "./internal/backend/...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Lint runs vet and gofmt
func Lint() error {
	mg.Deps(Vet)
	out, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return err
	}
	if out != "" {
		return fmt.Errorf("files need gofmt:\n%s", out)
	}
	return nil
}

// Install copies the binary to ~/go/bin
func Install() error {
	mg.Deps(Build)
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	dir := filepath.Join(home, "go", "bin")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return sh.Copy(filepath.Join(dir, binary), binary)
}

// Clean removes the built binary
func Clean() error {
	return sh.Rm(binary)
}
