package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/nodepin/nodepin/internal/artifact"
)

const (
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 5 * time.Minute
	// DefaultUserAgent is the User-Agent header sent with requests.
	DefaultUserAgent = "nodepin/1.0"
	// DefaultMaxAttempts is a single attempt; retries are opt-in policy.
	DefaultMaxAttempts = 1
	// DefaultBackoff is the base delay between retry attempts.
	DefaultBackoff = time.Second
)

var (
	// ErrDownloadFailed indicates the artifact could not be retrieved.
	ErrDownloadFailed = errors.New("download failed")
	// ErrIntegrityMismatch indicates downloaded bytes did not match the
	// expected digest. Treat as a tampering or corruption signal.
	ErrIntegrityMismatch = errors.New("integrity mismatch")
)

// Options configures a Fetcher. The zero value gives default mirror, system
// trust, a single attempt, and the default timeout.
type Options struct {
	// MirrorURL overrides the distribution host. Empty means the official one.
	MirrorURL string
	// TrustAnchorPEM is a path to a PEM certificate file that replaces the
	// system trust store for this fetcher's requests only.
	TrustAnchorPEM string
	// MaxAttempts is the number of download attempts (minimum 1).
	MaxAttempts int
	// Backoff is the base delay between attempts, doubled each retry.
	Backoff time.Duration
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration
	// UserAgent overrides the request User-Agent header.
	UserAgent string
}

// Fetcher downloads and digest-verifies artifacts.
type Fetcher struct {
	client    *http.Client
	mirror    string
	userAgent string
	attempts  int
	backoff   time.Duration
}

// NewFetcher creates a fetcher from options. A configured but unreadable or
// invalid trust anchor fails here with ErrDownloadFailed; there is no
// fallback to system trust once an anchor is named.
func NewFetcher(opts Options) (*Fetcher, error) {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	client := &http.Client{
		Timeout: opts.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	if opts.TrustAnchorPEM != "" {
		pool, err := loadTrustAnchor(opts.TrustAnchorPEM)
		if err != nil {
			return nil, fmt.Errorf("%w: trust anchor %s: %v", ErrDownloadFailed, opts.TrustAnchorPEM, err)
		}
		// Per-client transport; global TLS configuration is never touched.
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool},
		}
	}

	return &Fetcher{
		client:    client,
		mirror:    opts.MirrorURL,
		userAgent: opts.UserAgent,
		attempts:  opts.MaxAttempts,
		backoff:   opts.Backoff,
	}, nil
}

// loadTrustAnchor builds a certificate pool holding only the given PEM file.
func loadTrustAnchor(path string) (*x509.CertPool, error) {
	pemData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemData) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}

	return pool, nil
}

// Fetch retrieves the artifact named by the descriptor into destDir and
// verifies its SHA-256 digest. The returned path is safe to hand to the
// installer; on any error nothing verified exists at the destination.
func (f *Fetcher) Fetch(ctx context.Context, d artifact.Descriptor, destDir string) (string, error) {
	url := artifact.DownloadURL(f.mirror, d)
	destPath := filepath.Join(destDir, d.FileName)

	if err := f.downloadToFile(ctx, url, destPath); err != nil {
		return "", wrapDownloadErr(err, url)
	}

	if err := verifyDigest(destPath, d.SHA256); err != nil {
		// Never leave unverified bytes where a later run could find them.
		os.Remove(destPath)
		return "", err
	}

	return destPath, nil
}

// FetchManifest retrieves the signed checksum manifest and its detached
// signature into destDir.
func (f *Fetcher) FetchManifest(ctx context.Context, d artifact.Descriptor, destDir string) (manifestPath, sigPath string, err error) {
	manifestPath = filepath.Join(destDir, "SHASUMS256.txt")
	if err := f.downloadToFile(ctx, artifact.ManifestURL(f.mirror, d), manifestPath); err != nil {
		return "", "", wrapDownloadErr(err, "checksum manifest")
	}

	sigPath = manifestPath + ".sig"
	if err := f.downloadToFile(ctx, artifact.ManifestSignatureURL(f.mirror, d), sigPath); err != nil {
		return "", "", wrapDownloadErr(err, "manifest signature")
	}

	return manifestPath, sigPath, nil
}

// wrapDownloadErr tags download failures with ErrDownloadFailed while letting
// context cancellation pass through unchanged.
func wrapDownloadErr(err error, what string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrDownloadFailed, what, err)
}

// downloadToFile downloads a URL to destPath, retrying with exponential
// backoff when more than one attempt is configured.
func (f *Fetcher) downloadToFile(ctx context.Context, url, destPath string) error {
	var lastErr error

	for attempt := 0; attempt < f.attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt > 0 {
			backoff := f.backoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := f.downloadOnce(ctx, url, destPath)
		if err == nil {
			return nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("after %d attempt(s): %w", f.attempts, lastErr)
}

// downloadOnce performs a single download attempt, streaming the body to a
// temp file and renaming into place so partial downloads are never visible.
func (f *Fetcher) downloadOnce(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}
