// Package testutil provides utilities for testing nodepin in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv points every nodepin environment knob at per-test temporary
// directories so tests never read the host policy file or touch a real
// installation. Cleanup is handled by t.TempDir and t.Setenv.
//
// Returns the base temp directory for tests that need to place fixtures
// (policy files, fake launchers) where the run will find them.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	t.Setenv("NODEPIN_POLICY", filepath.Join(tmpDir, "policy.lua"))
	t.Setenv("NODEPIN_TRUST_ANCHOR", "")
	t.Setenv("NODEPIN_MIRROR", "")

	dirs := []string{
		filepath.Join(tmpDir, "lib"),
		filepath.Join(tmpDir, "bin"),
		filepath.Join(tmpDir, "work"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return tmpDir
}
