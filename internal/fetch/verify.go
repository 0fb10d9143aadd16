package fetch

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// sha256File computes the hex SHA-256 digest of a file.
func sha256File(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// verifyDigest compares a file's SHA-256 digest against the expected hex
// value (case-insensitive).
func verifyDigest(path, expected string) error {
	actual, err := sha256File(path)
	if err != nil {
		return fmt.Errorf("%w: compute digest: %v", ErrIntegrityMismatch, err)
	}

	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("%w for %s:\nactual:   %s\nexpected: %s",
			ErrIntegrityMismatch, filepath.Base(path), actual, expected)
	}

	return nil
}

// VerifyManifest cross-checks an already digest-verified artifact against the
// release's signed checksum manifest: the artifact's digest must appear in
// the manifest under its filename, and the manifest's detached signature must
// verify against the supplied keyring of release keys.
func VerifyManifest(artifactPath, manifestPath, sigPath, keyringPath string) error {
	actual, err := sha256File(artifactPath)
	if err != nil {
		return fmt.Errorf("%w: compute digest: %v", ErrIntegrityMismatch, err)
	}

	expected, err := findManifestDigest(manifestPath, filepath.Base(artifactPath))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIntegrityMismatch, err)
	}

	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("%w: manifest lists %s, artifact has %s", ErrIntegrityMismatch, expected, actual)
	}

	if err := verifyManifestSignature(manifestPath, sigPath, keyringPath); err != nil {
		return fmt.Errorf("%w: manifest signature: %v", ErrIntegrityMismatch, err)
	}

	return nil
}

// findManifestDigest locates the digest for a filename in a checksum
// manifest. Format per line: "<hex digest>  <filename>".
func findManifestDigest(manifestPath, filename string) (string, error) {
	file, err := os.Open(manifestPath)
	if err != nil {
		return "", fmt.Errorf("open manifest: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}

		if parts[1] == filename || filepath.Base(parts[1]) == filename {
			return parts[0], nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan manifest: %w", err)
	}

	return "", fmt.Errorf("digest not found for %s", filename)
}

// verifyManifestSignature checks the manifest's detached signature against
// the keyring, trying armored forms first and binary forms second.
func verifyManifestSignature(manifestPath, sigPath, keyringPath string) error {
	keyring, err := loadKeyring(keyringPath)
	if err != nil {
		return fmt.Errorf("load keyring: %w", err)
	}

	manifestFile, err := os.Open(manifestPath)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer manifestFile.Close()

	sigFile, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("open signature: %w", err)
	}
	defer sigFile.Close()

	_, err = openpgp.CheckArmoredDetachedSignature(keyring, manifestFile, sigFile, nil)
	if err != nil {
		manifestFile.Seek(0, io.SeekStart)
		sigFile.Seek(0, io.SeekStart)
		_, err = openpgp.CheckDetachedSignature(keyring, manifestFile, sigFile, nil)
	}
	if err != nil {
		return fmt.Errorf("verify signature: %w", err)
	}

	return nil
}

// loadKeyring reads an armored or binary keyring file.
func loadKeyring(path string) (openpgp.EntityList, error) {
	keyringFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer keyringFile.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(keyringFile)
	if err != nil {
		keyringFile.Seek(0, io.SeekStart)
		keyring, err = openpgp.ReadKeyRing(keyringFile)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("keyring is empty")
	}

	return keyring, nil
}
