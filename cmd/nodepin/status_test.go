package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/nodepin/nodepin/internal/testutil"
)

// writePolicy points the install layout at test-owned directories so status
// probes the fixture launcher instead of the system installation.
func writePolicy(t *testing.T, base string) {
	t.Helper()

	code := fmt.Sprintf(`nodepin = {
  install = {
    root = %q,
    bin_dir = %q,
    legacy_dir = %q,
  },
}
`, filepath.Join(base, "lib", "nodejs"), filepath.Join(base, "bin"), filepath.Join(base, "nvm"))

	if err := os.WriteFile(os.Getenv("NODEPIN_POLICY"), []byte(code), 0o644); err != nil {
		t.Fatalf("write policy: %v", err)
	}
}

func writeFakeNode(t *testing.T, base, version string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fixture launchers are shell scripts")
	}

	script := fmt.Sprintf("#!/bin/sh\necho %s\n", version)
	if err := os.WriteFile(filepath.Join(base, "bin", "node"), []byte(script), 0o755); err != nil {
		t.Fatalf("write fake node: %v", err)
	}
}

func TestRunStatusPinnedInstalled(t *testing.T) {
	base := testutil.SetupTestEnv(t)
	writePolicy(t, base)
	writeFakeNode(t, base, "v16.14.0")

	code, err := runStatus(nil)
	if err != nil {
		t.Fatalf("runStatus failed: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
}

func TestRunStatusWrongVersion(t *testing.T) {
	base := testutil.SetupTestEnv(t)
	writePolicy(t, base)
	writeFakeNode(t, base, "v14.17.0")

	code, err := runStatus(nil)
	if err != nil {
		t.Fatalf("runStatus failed: %v", err)
	}
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestRunStatusNotInstalled(t *testing.T) {
	base := testutil.SetupTestEnv(t)
	writePolicy(t, base)

	code, err := runStatus(nil)
	if err != nil {
		t.Fatalf("runStatus failed: %v", err)
	}
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestRunStatusHelp(t *testing.T) {
	code, err := runStatus([]string{"--help"})
	if err != nil {
		t.Fatalf("runStatus failed: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
}

func TestRunStatusUnknownOption(t *testing.T) {
	code, err := runStatus([]string{"--bogus"})
	if err == nil {
		t.Error("expected error for unknown option")
	}
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestRunStatusPolicyFlagOverridesEnv(t *testing.T) {
	base := testutil.SetupTestEnv(t)
	writeFakeNode(t, base, "v16.14.0")

	// Env policy points nowhere useful; the flag policy wires the fixture.
	flagPolicy := filepath.Join(base, "flag-policy.lua")
	code := fmt.Sprintf(`nodepin = { install = { root = %q, bin_dir = %q } }`,
		filepath.Join(base, "lib", "nodejs"), filepath.Join(base, "bin"))
	if err := os.WriteFile(flagPolicy, []byte(code), 0o644); err != nil {
		t.Fatalf("write flag policy: %v", err)
	}

	exitCode, err := runStatus([]string{"--policy", flagPolicy})
	if err != nil {
		t.Fatalf("runStatus failed: %v", err)
	}
	if exitCode != 0 {
		t.Errorf("exit code = %d, want 0", exitCode)
	}
}
