// Package workspace provides the scoped ephemeral directory a run downloads
// and stages into, plus an advisory lock that keeps two runs from touching
// the same install root at once.
//
// A workspace is owned by exactly one run, never shared, and removed on every
// exit path: success, any failure, or interruption. Nothing outside the run
// ever observes workspace contents.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workspace is a uniquely named ephemeral directory.
type Workspace struct {
	dir      string
	released bool
}

// Acquire creates a fresh workspace directory under parentDir.
// An empty parentDir falls back to the system temp directory.
func Acquire(parentDir string) (*Workspace, error) {
	if parentDir == "" {
		parentDir = os.TempDir()
	}

	if err := os.MkdirAll(parentDir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace parent: %w", err)
	}

	dir := filepath.Join(parentDir, "nodepin-"+uuid.New().String())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory path.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns a path inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Release removes the workspace and everything in it. It is idempotent so it
// can run from both a defer and a signal path without double-removal errors.
func (w *Workspace) Release() error {
	if w.released {
		return nil
	}
	w.released = true

	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("remove workspace: %w", err)
	}

	return nil
}
