// Package gate decides whether the installed runtime already satisfies the
// pinned version. It is the idempotence check for the whole installer: the
// same comparison runs before any work (to skip it) and after installation
// (to confirm the new runtime actually works).
package gate

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

var versionRegex = regexp.MustCompile(`\d+\.\d+\.\d+`)

// Gate compares a binary's self-reported version against a pinned version.
type Gate struct {
	// BinaryPath is the launcher to probe, e.g. /usr/local/bin/node.
	BinaryPath string
	// Want is the pinned semantic version, without a "v" prefix.
	Want string
}

// New creates a gate for the given launcher and pinned version.
func New(binaryPath, want string) *Gate {
	return &Gate{BinaryPath: binaryPath, Want: strings.TrimPrefix(want, "v")}
}

// Satisfied reports whether the installed runtime self-reports the pinned
// version. Any failure to invoke the binary (missing, not executable,
// crashing, unparseable output) means "not satisfied", never an error:
// absence of a working installation is the expected case this gate detects.
func (g *Gate) Satisfied(ctx context.Context) bool {
	version, err := g.InstalledVersion(ctx)
	if err != nil {
		return false
	}
	return version == g.Want
}

// InstalledVersion runs the launcher with --version and extracts a semantic
// version from its output.
func (g *Gate) InstalledVersion(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, g.BinaryPath, "--version")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("run %s --version: %w", g.BinaryPath, err)
	}

	version := versionRegex.FindString(string(output))
	if version == "" {
		return "", fmt.Errorf("no version found in output %q", strings.TrimSpace(string(output)))
	}

	return version, nil
}
