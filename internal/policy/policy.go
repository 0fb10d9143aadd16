// Package policy loads the optional Lua policy file that tunes an ensure
// run: mirror host, retry behavior, trust anchor, release keyring, and
// install layout overrides.
//
// Policy files are declarative Lua evaluated in a sandboxed VM (no os, io,
// require, or debug access) with a read-only platform table injected, so a
// single file can make per-host decisions:
//
//	nodepin = {
//	  mirror = platform.is_arm64 and "https://mirror.internal/node" or nil,
//	  retry = { attempts = 3, backoff_seconds = 2 },
//	}
//
// A missing policy file is not an error; every field has a working default.
package policy

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nodepin/nodepin/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

// Policy holds the optional run configuration. The zero value means
// official mirror, system trust, single download attempt, default layout.
type Policy struct {
	// Mirror overrides the distribution host.
	Mirror string
	// TrustAnchor is a path to a PEM certificate replacing system trust.
	TrustAnchor string
	// Keyring is a path to an armored keyring of release signing keys;
	// setting it enables signed-manifest verification.
	Keyring string
	// Retry tunes download attempts. Zero attempts means the default
	// single attempt.
	Retry RetryPolicy
	// Install overrides parts of the installation layout.
	Install InstallOverrides
}

// RetryPolicy configures download retries.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// InstallOverrides overrides parts of the default install layout.
// Empty fields keep the defaults.
type InstallOverrides struct {
	Root      string
	BinDir    string
	LegacyDir string
}

// Validate checks policy values for consistency.
func (p *Policy) Validate() error {
	if p.Mirror != "" && !strings.HasPrefix(p.Mirror, "https://") && !strings.HasPrefix(p.Mirror, "http://") {
		return fmt.Errorf("mirror must be an http(s) URL, got %q", p.Mirror)
	}

	if p.Retry.Attempts < 0 {
		return fmt.Errorf("retry attempts must not be negative, got %d", p.Retry.Attempts)
	}

	if p.Retry.Backoff < 0 {
		return fmt.Errorf("retry backoff must not be negative, got %s", p.Retry.Backoff)
	}

	return nil
}

// Parser parses Lua policy files with platform detection.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a policy parser with the given platform detector.
// A nil detector skips platform table injection (useful in tests).
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// Load reads and parses the policy file at path. A missing file yields the
// zero policy and no error.
func (p *Parser) Load(ctx context.Context, path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Policy{}, nil
		}
		return nil, fmt.Errorf("read policy file: %w", err)
	}

	policy, err := p.ParseString(ctx, string(data))
	if err != nil {
		return nil, fmt.Errorf("policy file %s: %w", path, err)
	}

	return policy, nil
}

// ParseString parses a Lua policy from a string.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Policy, error) {
	L := newSandboxedVM()
	defer L.Close()

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{Message: "Lua syntax error", Detail: err.Error()}
	}

	return extractPolicy(L)
}

// ParseError is a policy parsing error with a user-facing message.
type ParseError struct {
	Message string
	Detail  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractPolicy pulls the policy out of the Lua state. It expects a global
// "nodepin" table.
func extractPolicy(L *lua.LState) (*Policy, error) {
	nodepinVal := L.GetGlobal("nodepin")
	if nodepinVal.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "missing or invalid 'nodepin' table",
			Detail:  fmt.Sprintf("expected table, got %s", nodepinVal.Type()),
		}
	}

	policy := &Policy{}
	table := nodepinVal.(*lua.LTable)

	if v := table.RawGetString("mirror"); v.Type() == lua.LTString {
		policy.Mirror = v.String()
	}

	if v := table.RawGetString("trust_anchor"); v.Type() == lua.LTString {
		policy.TrustAnchor = v.String()
	}

	if v := table.RawGetString("keyring"); v.Type() == lua.LTString {
		policy.Keyring = v.String()
	}

	if v := table.RawGetString("retry"); v.Type() == lua.LTTable {
		policy.Retry = extractRetry(v.(*lua.LTable))
	}

	if v := table.RawGetString("install"); v.Type() == lua.LTTable {
		policy.Install = extractInstall(v.(*lua.LTable))
	}

	if err := policy.Validate(); err != nil {
		return nil, &ParseError{Message: "policy validation failed", Detail: err.Error()}
	}

	return policy, nil
}

// extractRetry reads the retry sub-table.
func extractRetry(table *lua.LTable) RetryPolicy {
	retry := RetryPolicy{}

	if v := table.RawGetString("attempts"); v.Type() == lua.LTNumber {
		retry.Attempts = int(lua.LVAsNumber(v))
	}

	if v := table.RawGetString("backoff_seconds"); v.Type() == lua.LTNumber {
		retry.Backoff = time.Duration(float64(lua.LVAsNumber(v)) * float64(time.Second))
	}

	return retry
}

// extractInstall reads the install sub-table.
func extractInstall(table *lua.LTable) InstallOverrides {
	install := InstallOverrides{}

	if v := table.RawGetString("root"); v.Type() == lua.LTString {
		install.Root = v.String()
	}

	if v := table.RawGetString("bin_dir"); v.Type() == lua.LTString {
		install.BinDir = v.String()
	}

	if v := table.RawGetString("legacy_dir"); v.Type() == lua.LTString {
		install.LegacyDir = v.String()
	}

	return install
}
