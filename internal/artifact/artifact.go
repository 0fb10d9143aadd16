// Package artifact maps the host architecture to the exact Node.js
// distribution artifact to install: filename, expected SHA-256 digest, and
// download URL. The mapping is a static table resolved once per run; no
// network or filesystem access happens here.
package artifact

import (
	"errors"
	"fmt"
)

// PinnedVersion is the single Node.js version this build installs.
// It is compiled in, not configurable at runtime.
const PinnedVersion = "16.14.0"

// DefaultMirror is the official Node.js distribution host.
const DefaultMirror = "https://nodejs.org/dist"

// ErrUnsupportedArch indicates the host architecture has no published
// artifact in the descriptor table.
var ErrUnsupportedArch = errors.New("unsupported architecture")

// Descriptor identifies exactly one distribution artifact. Resolved once per
// run and immutable afterwards.
type Descriptor struct {
	Arch     string // normalized architecture key ("amd64", "arm64")
	FileName string // artifact filename as published upstream
	SHA256   string // expected hex digest of the artifact bytes
	Version  string // the pinned version this descriptor belongs to
}

// descriptors is the static architecture table. Adding support for a new
// architecture is a one-line edit here; nothing else changes.
var descriptors = map[string]Descriptor{
	"amd64": {
		Arch:     "amd64",
		FileName: "node-v" + PinnedVersion + "-linux-x64.tar.xz",
		SHA256:   "0570b9354959f651b814e56a4ce98d4a067bf2385b9a0e6be075739bc65b0fae",
		Version:  PinnedVersion,
	},
	"arm64": {
		Arch:     "arm64",
		FileName: "node-v" + PinnedVersion + "-linux-arm64.tar.xz",
		SHA256:   "e4c7a7c8a3e9a72e9d2f86a67bb51d83b1594b7e9a9fa9f7dc22fa35d6b9bdfd",
		Version:  PinnedVersion,
	},
}

// Resolve returns the descriptor for a normalized architecture key.
// An architecture outside the table is fatal; there is no default.
func Resolve(arch string) (Descriptor, error) {
	d, ok := descriptors[arch]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s (no %s build published for this host)",
			ErrUnsupportedArch, arch, PinnedVersion)
	}
	return d, nil
}

// SupportedArchitectures returns the architecture keys present in the table.
func SupportedArchitectures() []string {
	archs := make([]string, 0, len(descriptors))
	for arch := range descriptors {
		archs = append(archs, arch)
	}
	return archs
}

// DownloadURL composes the artifact URL deterministically from the mirror,
// the pinned version, and the descriptor filename.
// Pattern: <mirror>/v<version>/<filename>
func DownloadURL(mirror string, d Descriptor) string {
	if mirror == "" {
		mirror = DefaultMirror
	}
	return fmt.Sprintf("%s/v%s/%s", mirror, d.Version, d.FileName)
}

// ManifestURL composes the URL of the signed checksum manifest published
// alongside every release.
func ManifestURL(mirror string, d Descriptor) string {
	if mirror == "" {
		mirror = DefaultMirror
	}
	return fmt.Sprintf("%s/v%s/SHASUMS256.txt", mirror, d.Version)
}

// ManifestSignatureURL composes the URL of the detached signature for the
// checksum manifest.
func ManifestSignatureURL(mirror string, d Descriptor) string {
	return ManifestURL(mirror, d) + ".sig"
}
