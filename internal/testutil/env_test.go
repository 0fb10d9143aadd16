package testutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nodepin/nodepin/internal/testutil"
)

func TestSetupTestEnv(t *testing.T) {
	base := testutil.SetupTestEnv(t)

	policyPath := os.Getenv("NODEPIN_POLICY")
	if policyPath == "" {
		t.Error("NODEPIN_POLICY not set")
	}
	if !filepath.IsAbs(policyPath) {
		t.Errorf("NODEPIN_POLICY %s is not absolute", policyPath)
	}

	// Overrides that could leak host configuration are cleared.
	if v := os.Getenv("NODEPIN_TRUST_ANCHOR"); v != "" {
		t.Errorf("NODEPIN_TRUST_ANCHOR = %q, want empty", v)
	}
	if v := os.Getenv("NODEPIN_MIRROR"); v != "" {
		t.Errorf("NODEPIN_MIRROR = %q, want empty", v)
	}

	for _, dir := range []string{"lib", "bin", "work"} {
		if _, err := os.Stat(filepath.Join(base, dir)); err != nil {
			t.Errorf("directory %s missing: %v", dir, err)
		}
	}
}

func TestSetupTestEnvIsolation(t *testing.T) {
	testutil.SetupTestEnv(t)
	first := os.Getenv("NODEPIN_POLICY")

	t.Run("subtest", func(t *testing.T) {
		testutil.SetupTestEnv(t)
		second := os.Getenv("NODEPIN_POLICY")

		if first == second {
			t.Error("expected different temp directories for different test contexts")
		}
	})
}
