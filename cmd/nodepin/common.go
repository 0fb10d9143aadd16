package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nodepin/nodepin/internal/install"
	"github.com/nodepin/nodepin/internal/node"
	"github.com/nodepin/nodepin/internal/platform"
	"github.com/nodepin/nodepin/internal/policy"
)

const defaultPolicyPath = "/etc/nodepin/policy.lua"

// resolvePolicyPath picks the policy file location: explicit flag, then the
// NODEPIN_POLICY environment variable, then the system default.
func resolvePolicyPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("NODEPIN_POLICY"); env != "" {
		return env
	}
	return defaultPolicyPath
}

// buildManager wires detection, policy, and environment overrides into a
// ready manager. All environment reads happen here; everything below the
// command layer takes explicit values.
func buildManager(ctx context.Context, policyFlag string) (*node.Manager, error) {
	detector := platform.NewDetector()

	info, err := detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect platform: %w", err)
	}

	parser := policy.NewParser(detector)
	pol, err := parser.Load(ctx, resolvePolicyPath(policyFlag))
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("NODEPIN_MIRROR"); v != "" {
		pol.Mirror = v
	}
	if v := os.Getenv("NODEPIN_TRUST_ANCHOR"); v != "" {
		pol.TrustAnchor = v
	}
	if err := pol.Validate(); err != nil {
		return nil, err
	}

	return node.NewManager(node.Config{
		Target:       install.DefaultTarget(),
		PlatformInfo: info,
		Policy:       pol,
	})
}
