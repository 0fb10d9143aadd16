package install

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// ExtractTarXz extracts a .tar.xz archive into destDir, stripping exactly
// one leading path component from every entry. Upstream Node.js tarballs
// wrap everything in a single version-named top-level directory that must
// not appear in the installed layout.
//
// Extracted files are owned by the invoking process; ownership metadata
// embedded in the archive is ignored. File modes and symlinks are preserved.
func ExtractTarXz(archivePath, destDir string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	xzReader, err := xz.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("create xz reader: %w", err)
	}

	tarReader := tar.NewReader(xzReader)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		name, ok := stripLeadingComponent(header.Name)
		if !ok {
			// The top-level wrapper directory itself.
			continue
		}

		target := filepath.Join(destDir, name)

		// Security check: prevent path traversal
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal file path: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create parent dir for %s: %w", target, err)
			}

			outFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return fmt.Errorf("create file %s: %w", target, err)
			}

			if _, err := io.Copy(outFile, tarReader); err != nil {
				outFile.Close()
				return fmt.Errorf("write file %s: %w", target, err)
			}

			outFile.Close()

		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create parent dir for %s: %w", target, err)
			}

			// Replace any leftover from a previous extraction attempt.
			os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("create symlink %s: %w", target, err)
			}

		default:
			// Skip other types (char devices, block devices, etc.)
			continue
		}
	}

	return nil
}

// stripLeadingComponent removes the first path component from an archive
// entry name. Returns false when nothing remains (the wrapper dir itself).
func stripLeadingComponent(name string) (string, bool) {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	name = strings.TrimSuffix(name, "/")

	idx := strings.Index(name, "/")
	if idx < 0 {
		return "", false
	}

	rest := name[idx+1:]
	if rest == "" {
		return "", false
	}

	return rest, true
}
