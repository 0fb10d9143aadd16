package node

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nodepin/nodepin/internal/artifact"
	"github.com/nodepin/nodepin/internal/fetch"
	"github.com/nodepin/nodepin/internal/gate"
	"github.com/nodepin/nodepin/internal/install"
	"github.com/nodepin/nodepin/internal/platform"
	"github.com/nodepin/nodepin/internal/policy"
	"github.com/nodepin/nodepin/internal/workspace"
)

// Action describes what an ensure run did.
type Action int

const (
	// ActionNone means the gate was already satisfied and nothing ran.
	ActionNone Action = iota
	// ActionInstalled means a fresh runtime was fetched and installed.
	ActionInstalled
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionInstalled:
		return "installed"
	default:
		return "unknown"
	}
}

// Result describes a completed ensure run.
type Result struct {
	Action   Action
	Version  string
	Duration time.Duration
}

// Config holds configuration for the manager.
type Config struct {
	// Target is the installation layout. Policy install overrides are
	// applied on top of it.
	Target install.Target
	// PlatformInfo contains host OS and architecture information.
	PlatformInfo *platform.Info
	// Policy is the optional run policy; nil means all defaults.
	Policy *policy.Policy
	// WorkDir is the parent directory for workspaces and the install lock.
	// It must share a filesystem with the install root so the commit rename
	// stays atomic; empty means the install root's parent directory.
	WorkDir string
	// Resolver maps a normalized architecture to an artifact descriptor.
	// Nil means the built-in pinned table.
	Resolver func(arch string) (artifact.Descriptor, error)
}

// Manager runs the ensure control flow.
type Manager struct {
	target  install.Target
	info    *platform.Info
	policy  policy.Policy
	workDir string
	resolve func(arch string) (artifact.Descriptor, error)
}

// NewManager creates a manager from config.
func NewManager(config Config) (*Manager, error) {
	if config.PlatformInfo == nil {
		return nil, fmt.Errorf("PlatformInfo is required")
	}

	target := config.Target
	if target.InstallRoot == "" {
		target = install.DefaultTarget()
	}

	pol := policy.Policy{}
	if config.Policy != nil {
		pol = *config.Policy
	}

	if pol.Install.Root != "" {
		target.InstallRoot = pol.Install.Root
	}
	if pol.Install.BinDir != "" {
		target.BinDir = pol.Install.BinDir
	}
	if pol.Install.LegacyDir != "" {
		target.LegacyDir = pol.Install.LegacyDir
	}

	workDir := config.WorkDir
	if workDir == "" {
		workDir = filepath.Dir(target.InstallRoot)
	}

	resolve := config.Resolver
	if resolve == nil {
		resolve = artifact.Resolve
	}

	return &Manager{
		target:  target,
		info:    config.PlatformInfo,
		policy:  pol,
		workDir: workDir,
		resolve: resolve,
	}, nil
}

// gate builds the version gate for the shared launcher path. Pre-check and
// post-check both go through here so the success criterion cannot drift.
func (m *Manager) gate() *gate.Gate {
	return gate.New(filepath.Join(m.target.BinDir, "node"), artifact.PinnedVersion)
}

// Ensure makes the pinned runtime present and working, doing nothing when it
// already is.
func (m *Manager) Ensure(ctx context.Context) (*Result, error) {
	startTime := time.Now()

	g := m.gate()
	if g.Satisfied(ctx) {
		return &Result{
			Action:   ActionNone,
			Version:  artifact.PinnedVersion,
			Duration: time.Since(startTime),
		}, nil
	}

	if m.info.OS != "linux" {
		return nil, fmt.Errorf("no %s artifact published for OS %s", artifact.PinnedVersion, m.info.OS)
	}
	if m.info.IsMusl() {
		return nil, fmt.Errorf("host uses musl libc (%s); official Node.js binaries require glibc", m.info.Platform)
	}

	descriptor, err := m.resolve(m.info.Arch)
	if err != nil {
		return nil, err
	}

	lock, err := workspace.AcquireLock(m.workDir)
	if err != nil {
		return nil, fmt.Errorf("acquire install lock: %w", err)
	}
	defer lock.Release()

	ws, err := workspace.Acquire(m.workDir)
	if err != nil {
		return nil, fmt.Errorf("acquire workspace: %w", err)
	}
	// Released on every path out of this function, including cancellation.
	defer ws.Release()

	fetcher, err := fetch.NewFetcher(fetch.Options{
		MirrorURL:      m.policy.Mirror,
		TrustAnchorPEM: m.policy.TrustAnchor,
		MaxAttempts:    m.policy.Retry.Attempts,
		Backoff:        m.policy.Retry.Backoff,
	})
	if err != nil {
		return nil, err
	}

	artifactPath, err := fetcher.Fetch(ctx, descriptor, ws.Dir())
	if err != nil {
		return nil, err
	}

	if m.policy.Keyring != "" {
		manifestPath, sigPath, err := fetcher.FetchManifest(ctx, descriptor, ws.Dir())
		if err != nil {
			return nil, err
		}
		if err := fetch.VerifyManifest(artifactPath, manifestPath, sigPath, m.policy.Keyring); err != nil {
			return nil, err
		}
	}

	installer, err := install.New(m.target)
	if err != nil {
		return nil, err
	}

	if err := installer.Install(artifactPath, ws.Path("staging")); err != nil {
		return nil, err
	}

	if !g.Satisfied(ctx) {
		return nil, fmt.Errorf("installed runtime failed verification: %s does not report v%s",
			filepath.Join(m.target.BinDir, "node"), artifact.PinnedVersion)
	}

	return &Result{
		Action:   ActionInstalled,
		Version:  artifact.PinnedVersion,
		Duration: time.Since(startTime),
	}, nil
}

// InstalledVersion reports the version the live launcher claims, if any.
func (m *Manager) InstalledVersion(ctx context.Context) (string, error) {
	return m.gate().InstalledVersion(ctx)
}

// Target returns the effective installation layout after policy overrides.
func (m *Manager) Target() install.Target {
	return m.target
}
