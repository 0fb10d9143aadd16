// Package install turns a verified artifact into the live runtime
// installation: staged extraction, tree validation, an atomic swap of the
// install root, launcher symlinks, and removal of any mutually-exclusive
// legacy installation mechanism.
//
// The previous installation is only destroyed after its replacement has been
// fully extracted, validated, and renamed into place, so a failure at any
// step before the commit leaves the old runtime untouched.
package install

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrExtractionFailed indicates the artifact could not be unpacked or
	// the unpacked tree is not a usable runtime.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrRelinkFailed indicates launcher symlinks could not be recreated.
	ErrRelinkFailed = errors.New("relink failed")
)

// Launchers are the executable entry points exposed via symlinks in the
// shared binary directory.
var Launchers = []string{"node", "npm", "npx"}

// Target names the filesystem locations an installation touches. It is
// explicit configuration so tests can point everything at temporary roots.
type Target struct {
	// InstallRoot is the fixed directory the runtime tree lives in.
	InstallRoot string
	// BinDir is the shared binary directory receiving launcher symlinks.
	BinDir string
	// LegacyDir, if non-empty, names a competing installation mechanism's
	// directory that is removed so only one mechanism stays authoritative.
	LegacyDir string
}

// DefaultTarget returns the production installation layout.
func DefaultTarget() Target {
	return Target{
		InstallRoot: "/usr/local/lib/nodejs",
		BinDir:      "/usr/local/bin",
		LegacyDir:   "/usr/local/share/nvm",
	}
}

// Installer replaces the live installation with a verified artifact's
// contents. It owns the install root; nothing else writes there.
type Installer struct {
	target Target
}

// New creates an installer for the given target.
func New(target Target) (*Installer, error) {
	if target.InstallRoot == "" {
		return nil, fmt.Errorf("InstallRoot is required")
	}
	if target.BinDir == "" {
		return nil, fmt.Errorf("BinDir is required")
	}

	return &Installer{target: target}, nil
}

// Install extracts the verified artifact into stagingDir, validates the
// staged tree, atomically swaps it into the install root, recreates launcher
// symlinks, and removes the legacy directory.
//
// stagingDir must live on the same filesystem as the install root for the
// commit rename to be atomic; the orchestrator places the workspace next to
// the install root for exactly that reason.
func (i *Installer) Install(verifiedArtifactPath, stagingDir string) error {
	stageRoot := filepath.Join(stagingDir, "root")

	if err := ExtractTarXz(verifiedArtifactPath, stageRoot); err != nil {
		return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	if err := validateTree(stageRoot); err != nil {
		return fmt.Errorf("%w: staged tree: %v", ErrExtractionFailed, err)
	}

	if err := i.commit(stageRoot); err != nil {
		return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	if err := i.relink(); err != nil {
		return fmt.Errorf("%w: %v", ErrRelinkFailed, err)
	}

	if i.target.LegacyDir != "" {
		if err := os.RemoveAll(i.target.LegacyDir); err != nil {
			return fmt.Errorf("%w: remove legacy dir: %v", ErrRelinkFailed, err)
		}
	}

	return nil
}

// validateTree confirms the staged tree is a usable runtime: every launcher
// exists under bin/ and is executable.
func validateTree(root string) error {
	for _, launcher := range Launchers {
		path := filepath.Join(root, "bin", launcher)

		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("launcher %s: %w", launcher, err)
		}

		if info.IsDir() {
			return fmt.Errorf("launcher %s is a directory", launcher)
		}

		if info.Mode().Perm()&0o111 == 0 {
			return fmt.Errorf("launcher %s is not executable", launcher)
		}
	}

	return nil
}

// commit swaps the staged tree into the install root. The old tree is moved
// aside first and removed only after the new tree is in place, so a failed
// rename can be rolled back.
func (i *Installer) commit(stageRoot string) error {
	root := i.target.InstallRoot
	oldRoot := root + ".old"

	if err := os.MkdirAll(filepath.Dir(root), 0o755); err != nil {
		return fmt.Errorf("create install parent: %w", err)
	}

	// Clear any leftover from an interrupted previous commit.
	if err := os.RemoveAll(oldRoot); err != nil {
		return fmt.Errorf("remove stale old root: %w", err)
	}

	hadPrevious := false
	if _, err := os.Stat(root); err == nil {
		hadPrevious = true
		if err := os.Rename(root, oldRoot); err != nil {
			return fmt.Errorf("move old root aside: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat install root: %w", err)
	}

	if err := os.Rename(stageRoot, root); err != nil {
		if hadPrevious {
			// Best-effort rollback; the old tree is still intact.
			os.Rename(oldRoot, root)
		}
		return fmt.Errorf("rename staged tree into place: %w", err)
	}

	if hadPrevious {
		if err := os.RemoveAll(oldRoot); err != nil {
			return fmt.Errorf("remove old root: %w", err)
		}
	}

	return nil
}

// relink recreates launcher symlinks in the shared binary directory,
// unconditionally replacing whatever is there. Re-running with identical
// inputs produces identical links.
func (i *Installer) relink() error {
	if err := os.MkdirAll(i.target.BinDir, 0o755); err != nil {
		return fmt.Errorf("create bin dir: %w", err)
	}

	for _, launcher := range Launchers {
		linkPath := filepath.Join(i.target.BinDir, launcher)
		linkTarget := filepath.Join(i.target.InstallRoot, "bin", launcher)

		if err := os.Remove(linkPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove existing %s: %w", linkPath, err)
		}

		if err := os.Symlink(linkTarget, linkPath); err != nil {
			return fmt.Errorf("create symlink %s: %w", linkPath, err)
		}
	}

	return nil
}

// Target returns the installer's target layout.
func (i *Installer) Target() Target {
	return i.target
}
