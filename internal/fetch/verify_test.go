package fetch

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}

	return path
}

func TestVerifyDigest(t *testing.T) {
	content := []byte("artifact bytes")
	sum := sha256.Sum256(content)
	good := hex.EncodeToString(sum[:])

	tests := []struct {
		name     string
		expected string
		wantErr  bool
	}{
		{name: "match", expected: good},
		{name: "match_uppercase", expected: strings.ToUpper(good)},
		{name: "mismatch", expected: "0000000000000000000000000000000000000000000000000000000000000000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "artifact", content)

			err := verifyDigest(path, tt.expected)

			if tt.wantErr {
				if !errors.Is(err, ErrIntegrityMismatch) {
					t.Errorf("got %v, want ErrIntegrityMismatch", err)
				}
				return
			}

			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestFindManifestDigest(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		filename string
		want     string
		wantErr  bool
	}{
		{
			name: "simple_match",
			manifest: "abc123  node-v16.14.0-linux-x64.tar.xz\n" +
				"def456  node-v16.14.0-linux-arm64.tar.xz\n",
			filename: "node-v16.14.0-linux-arm64.tar.xz",
			want:     "def456",
		},
		{
			name:     "path_prefix",
			manifest: "abc123  ./dist/node-v16.14.0-linux-x64.tar.xz\n",
			filename: "node-v16.14.0-linux-x64.tar.xz",
			want:     "abc123",
		},
		{
			name:     "not_found",
			manifest: "abc123  node-v16.14.0-linux-x64.tar.xz\n",
			filename: "node-v16.14.0-darwin-x64.tar.xz",
			wantErr:  true,
		},
		{
			name:     "malformed_lines_skipped",
			manifest: "justadigest\n\nabc123  target.tar.xz\n",
			filename: "target.tar.xz",
			want:     "abc123",
		},
		{
			name:     "empty_manifest",
			manifest: "",
			filename: "anything.tar.xz",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "SHASUMS256.txt", []byte(tt.manifest))

			got, err := findManifestDigest(path, tt.filename)

			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Errorf("digest = %q, want %q", got, tt.want)
			}
		})
	}
}

// signedManifestFixture generates a release key, a manifest listing the
// artifact, a detached signature over the manifest, and a binary keyring.
func signedManifestFixture(t *testing.T, artifactName string, artifactContent []byte) (artifactPath, manifestPath, sigPath, keyringPath string) {
	t.Helper()

	dir := t.TempDir()
	artifactPath = writeFile(t, dir, artifactName, artifactContent)

	sum := sha256.Sum256(artifactContent)
	manifest := fmt.Sprintf("%s  %s\n", hex.EncodeToString(sum[:]), artifactName)
	manifestPath = writeFile(t, dir, "SHASUMS256.txt", []byte(manifest))

	entity, err := openpgp.NewEntity("Release Signer", "", "releases@example.com", nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	var sig bytes.Buffer
	if err := openpgp.DetachSign(&sig, entity, bytes.NewReader([]byte(manifest)), nil); err != nil {
		t.Fatalf("sign manifest: %v", err)
	}
	sigPath = writeFile(t, dir, "SHASUMS256.txt.sig", sig.Bytes())

	var keyring bytes.Buffer
	if err := entity.Serialize(&keyring); err != nil {
		t.Fatalf("serialize keyring: %v", err)
	}
	keyringPath = writeFile(t, dir, "release-keys.gpg", keyring.Bytes())

	return artifactPath, manifestPath, sigPath, keyringPath
}

func TestVerifyManifestSuccess(t *testing.T) {
	artifactPath, manifestPath, sigPath, keyringPath :=
		signedManifestFixture(t, "node-v16.14.0-linux-x64.tar.xz", []byte("artifact payload"))

	if err := VerifyManifest(artifactPath, manifestPath, sigPath, keyringPath); err != nil {
		t.Errorf("VerifyManifest failed: %v", err)
	}
}

func TestVerifyManifestTamperedManifest(t *testing.T) {
	artifactPath, manifestPath, sigPath, keyringPath :=
		signedManifestFixture(t, "node-v16.14.0-linux-x64.tar.xz", []byte("artifact payload"))

	// Appending a line invalidates the signature even though the artifact's
	// own digest entry is still present.
	f, err := os.OpenFile(manifestPath, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("open manifest: %v", err)
	}
	f.WriteString("deadbeef  injected.tar.xz\n")
	f.Close()

	err = VerifyManifest(artifactPath, manifestPath, sigPath, keyringPath)
	if !errors.Is(err, ErrIntegrityMismatch) {
		t.Errorf("got %v, want ErrIntegrityMismatch", err)
	}
}

func TestVerifyManifestWrongKeyring(t *testing.T) {
	artifactPath, manifestPath, sigPath, _ :=
		signedManifestFixture(t, "node-v16.14.0-linux-x64.tar.xz", []byte("artifact payload"))

	// A keyring holding a different key must reject the signature.
	other, err := openpgp.NewEntity("Imposter", "", "imposter@example.com", nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	var keyring bytes.Buffer
	if err := other.Serialize(&keyring); err != nil {
		t.Fatalf("serialize keyring: %v", err)
	}
	otherKeyring := writeFile(t, t.TempDir(), "other-keys.gpg", keyring.Bytes())

	err = VerifyManifest(artifactPath, manifestPath, sigPath, otherKeyring)
	if !errors.Is(err, ErrIntegrityMismatch) {
		t.Errorf("got %v, want ErrIntegrityMismatch", err)
	}
}

func TestVerifyManifestArtifactNotListed(t *testing.T) {
	artifactPath, _, sigPath, keyringPath :=
		signedManifestFixture(t, "node-v16.14.0-linux-x64.tar.xz", []byte("artifact payload"))

	emptyManifest := writeFile(t, t.TempDir(), "SHASUMS256.txt", []byte("abc123  something-else.tar.xz\n"))

	err := VerifyManifest(artifactPath, emptyManifest, sigPath, keyringPath)
	if !errors.Is(err, ErrIntegrityMismatch) {
		t.Errorf("got %v, want ErrIntegrityMismatch", err)
	}
}

func TestLoadKeyringMissingFile(t *testing.T) {
	_, err := loadKeyring(filepath.Join(t.TempDir(), "absent.gpg"))
	if err == nil {
		t.Error("expected error for missing keyring")
	}
}
