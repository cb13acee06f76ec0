//go:build mage
// +build mage

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "nexus-library"

// Default builds for this machine.
var Default = Build

// Build compiles the CLI into ./nexus-library.
func Build() error {
	fmt.Println("Building...")
	return sh.Run("go", "build", "-o", binary, "./cmd/"+binary)
}

// Deck builds a static linux/amd64 binary for the handheld. The sqlite
// driver is pure Go, so cgo stays off.
func Deck() error {
	fmt.Println("Building for linux/amd64...")

	env := map[string]string{"GOOS": "linux", "GOARCH": "amd64", "CGO_ENABLED": "0"}

	return sh.RunWith(env, "go", "build", "-trimpath", "-ldflags=-s -w", "-o", binary+"-linux-amd64", "./cmd/"+binary)
}

// Test runs the suite with the race detector and writes coverage.out.
func Test() error {
	fmt.Println("Testing...")
	return sh.Run("go", "test", "-v", "-race", "-coverprofile=coverage.out", "./...")
}

// TestForFail runs the unit tests purely to find out whether any fail. The
// watcher tests wait on real filesystem events, so the timeout is generous.
func TestForFail() error {
	fmt.Println("Running unit tests for overall pass/fail...")
	return run(
		context.Background(),
		"go",
		"test",
		"-timeout=60s",
		"./...",
		"-failfast",
		"-shuffle=on",
		"-race",
	)
}

// Lint runs golangci-lint and applies its fixes.
func Lint() error {
	fmt.Println("Linting...")
	return run(context.Background(), "golangci-lint", "run", "-c", ".golangci.yml", "./...")
}

// LintForFail reports whether lint passes without changing files.
func LintForFail() error {
	fmt.Println("Lint pass/fail...")
	return run(
		context.Background(),
		"golangci-lint", "run",
		"-c", ".golangci.yml",
		"--fix=false",
		"--max-issues-per-linter=1",
		"--max-same-issues=1",
		"./...",
	)
}

// CheckForFail is the CI gate.
func CheckForFail() error {
	fmt.Println("Checking...")
	mg.SerialDeps(LintForFail, TestForFail)
	return nil
}

// Clean removes binaries and coverage files.
func Clean() error {
	fmt.Println("Cleaning...")

	for _, artifact := range []string{binary, binary + "-linux-amd64", "coverage.out", "coverage.html"} {
		if err := os.Remove(artifact); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

// Install puts nexus-library in GOBIN.
func Install() error {
	fmt.Println("Installing...")
	return sh.Run("go", "install", "./cmd/"+binary)
}

// Fmt rewrites sources with gofmt and goimports.
func Fmt() error {
	fmt.Println("Formatting...")
	if err := sh.Run("gofmt", "-s", "-w", "."); err != nil {
		return err
	}
	return sh.Run("goimports", "-w", ".")
}

// Coverage renders coverage.html and opens it when a browser is available.
func Coverage() error {
	mg.Deps(Test)

	fmt.Println("Rendering coverage...")
	if err := sh.Run("go", "tool", "cover", "-html=coverage.out", "-o", "coverage.html"); err != nil {
		return err
	}

	opener := "xdg-open"
	if runtime.GOOS == "darwin" {
		opener = "open"
	}

	if err := exec.Command(opener, "coverage.html").Run(); err != nil {
		fmt.Println("wrote coverage.html")
	}
	return nil
}

// run streams a command through this terminal.
func run(c context.Context, command string, arg ...string) error {
	cmd := exec.CommandContext(c, command, arg...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}
