//go:build mage

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main contains Mage build targets for research-radar developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// projectDirs lists the working directories the CLI writes to.
var projectDirs = []string{
	"findings",
	".state",
	".secrets",
}

// Init creates the working directories and a heuristics override template.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	if _, err := os.Stat(heuristicsTemplate); os.IsNotExist(err) {
		if err := os.WriteFile(heuristicsTemplate, []byte(heuristicsExample), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", heuristicsTemplate, err)
		}
		fmt.Println("  ", heuristicsTemplate)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const heuristicsTemplate = "heuristics.example.yaml"

const heuristicsExample = `# Copy to heuristics.yaml and set heuristics_file in research-radar.yaml.
# Each group listed here replaces the built-in group of the same name.
keywords:
  industry:
    - healthcare
    - logistics
    - insurance
`

const (
	binDir  = "bin"
	binName = "research-radar"
	cmdPkg  = "./cmd/research-radar"
)

// Build compiles the CLI binary into bin/, stamping the version from git.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	ldflags := "-X main.version=" + gitVersion()
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "-count=1", "./...")
}

// Lint runs go vet over every package.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// Batch builds the CLI and runs a 30-day batch analysis.
func Batch() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "batch", "--lookback-days", "30")
}

// Monitor builds the CLI and starts the monitor with persistent state and
// the status server on :9090.
func Monitor() error {
	mg.Deps(Build, Init)
	return sh.RunV(filepath.Join(binDir, binName), "monitor", "--state-dir", ".state", "--status-addr", ":9090")
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}

func gitVersion() string {
	v, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || strings.TrimSpace(v) == "" {
		return "dev"
	}
	return strings.TrimSpace(v)
}

// Stats prints project metrics: Go production and test line counts.
func Stats() error {
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	return nil
}

// countGoLines walks the tree and counts non-blank lines in Go files,
// skipping underscore-prefixed and hidden directories. If testOnly is
// true, only _test.go files count; otherwise only non-test files.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") != testOnly {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) != "" {
				total++
			}
		}
		return nil
	})
	return total, err
}
