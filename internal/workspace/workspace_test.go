package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireCreatesUniqueDirectories(t *testing.T) {
	parent := t.TempDir()

	w1, err := Acquire(parent)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer w1.Release()

	w2, err := Acquire(parent)
	if err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}
	defer w2.Release()

	if w1.Dir() == w2.Dir() {
		t.Errorf("workspaces share a directory: %s", w1.Dir())
	}

	for _, w := range []*Workspace{w1, w2} {
		info, err := os.Stat(w.Dir())
		if err != nil {
			t.Fatalf("stat workspace: %v", err)
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", w.Dir())
		}
		if !strings.HasPrefix(filepath.Base(w.Dir()), "nodepin-") {
			t.Errorf("unexpected workspace name: %s", w.Dir())
		}
	}
}

func TestReleaseRemovesContents(t *testing.T) {
	w, err := Acquire(t.TempDir())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if err := os.WriteFile(w.Path("artifact.tar.xz"), []byte("payload"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := os.MkdirAll(w.Path("staging/bin"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := w.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	if _, err := os.Stat(w.Dir()); !os.IsNotExist(err) {
		t.Errorf("workspace still exists after Release: %v", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	w, err := Acquire(t.TempDir())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if err := w.Release(); err != nil {
		t.Fatalf("first Release failed: %v", err)
	}

	if err := w.Release(); err != nil {
		t.Errorf("second Release failed: %v", err)
	}
}

func TestPathJoinsInsideWorkspace(t *testing.T) {
	w, err := Acquire(t.TempDir())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer w.Release()

	got := w.Path("download.tar.xz")
	if filepath.Dir(got) != w.Dir() {
		t.Errorf("Path escapes workspace: %s", got)
	}
}
