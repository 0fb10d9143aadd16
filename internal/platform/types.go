// Package platform detects the host operating system, CPU architecture, and
// C library flavor, and exposes that information to Lua policy files.
//
// Official Node.js binaries are built against glibc, so the package goes
// beyond GOOS/GOARCH and uses gopsutil to identify musl-based distributions
// (Alpine and friends), where a prebuilt tarball would not run. Detection
// failures for distribution details fall back gracefully to OS/arch only.
package platform

import "context"

// Linux distribution family constants, grouped by package ecosystem.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux (musl libc)
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains host platform information.
type Info struct {
	OS       string // "linux", "darwin"
	Arch     string // normalized: "amd64", "arm64"
	ArchRaw  string // original GOARCH value
	Platform string // distro ID (Linux only, e.g. "ubuntu", "alpine")
	Family   string // canonical family (e.g. "debian", "alpine")
	Version  string // distro version (Linux only, e.g. "22.04")
}

// IsLinux returns true if the host runs Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the host runs macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsAMD64 returns true if the normalized architecture is amd64.
func (i *Info) IsAMD64() bool {
	return i.Arch == "amd64"
}

// IsARM64 returns true if the normalized architecture is arm64.
func (i *Info) IsARM64() bool {
	return i.Arch == "arm64"
}

// IsMusl reports whether the host libc is musl rather than glibc.
// Official Node.js tarballs do not run on musl systems.
func (i *Info) IsMusl() bool {
	return i.OS == "linux" && i.Family == FamilyAlpine
}

// IsDebianFamily returns true if the distribution is Debian-based.
func (i *Info) IsDebianFamily() bool {
	return i.OS == "linux" && i.Family == FamilyDebian
}

// IsRHELFamily returns true if the distribution is RHEL-based.
func (i *Info) IsRHELFamily() bool {
	return i.OS == "linux" && i.Family == FamilyRHEL
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
