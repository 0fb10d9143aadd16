package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual host inspection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect inspects the host and returns platform information.
// OS and architecture come from runtime.GOOS/GOARCH; on Linux, gopsutil
// supplies distribution details so callers can refuse musl hosts.
//
// If distribution detection fails (but the context is still live), the
// distro fields stay empty and detection succeeds with OS/arch only.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{
		OS:      runtime.GOOS,
		ArchRaw: runtime.GOARCH,
	}

	arch, err := normalizeArch(runtime.GOARCH)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}
	info.Arch = arch

	if runtime.GOOS == "linux" {
		platform, family, version, err := host.PlatformInformationWithContext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
			}
			// Graceful fallback: OS/arch is enough to resolve an artifact.
			return info, nil
		}

		platform = normalizePlatform(platform)
		family = mapFamily(family)
		version = normalizePlatform(version)

		if platform != "" {
			info.Platform = platform
			info.Family = family
			info.Version = version
		}
		// Some gopsutil backends report an empty family for Alpine but a
		// correct platform ID. The platform ID wins for musl detection.
		if info.Platform == "alpine" {
			info.Family = FamilyAlpine
		}
	}

	return info, nil
}
