// Package fetch retrieves distribution artifacts over HTTPS and verifies
// them before anything downstream is allowed to trust the bytes.
//
// The safety invariant of the whole installer lives here: an artifact is
// verified in full against its expected SHA-256 digest before it is handed
// to extraction. A failed check removes the download and reports
// ErrIntegrityMismatch; no unverified byte stream ever reaches the installer.
//
// Trust configuration is explicit. A custom trust anchor (a PEM certificate
// file) replaces the system trust store for this fetcher's requests only and
// never mutates global TLS state; a broken anchor is a download failure, not
// a silent fallback. Retries are opt-in policy: the default is a single
// attempt.
//
// As defense in depth, the signed checksum manifest (SHASUMS256.txt plus its
// detached signature) published with every Node.js release can additionally
// be verified against a caller-supplied armored keyring of release keys.
package fetch
