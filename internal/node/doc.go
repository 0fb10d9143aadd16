// Package node orchestrates ensuring the pinned Node.js runtime is
// installed and working.
//
// # Control flow
//
// The version gate runs first and short-circuits everything: if the
// installed runtime already reports the pinned version, Ensure returns
// without touching the network or the filesystem. Otherwise the run
// resolves the artifact descriptor for the host architecture, takes the
// install lock, acquires an ephemeral workspace, downloads and verifies the
// artifact, installs it via a staged atomic swap, and re-runs the same gate
// as a post-condition.
//
// # Safety model
//
//   - No unverified bytes reach extraction: the fetcher checks the artifact
//     digest (and optionally the signed release manifest) before the
//     installer ever sees the file.
//   - The previous installation survives any failure before the commit
//     rename; only a fully validated staged tree replaces it.
//   - The workspace is released on every exit path, including interruption.
//
// # Usage
//
//	mgr, err := node.NewManager(node.Config{
//	    Target:       install.DefaultTarget(),
//	    PlatformInfo: info,
//	    Policy:       pol,
//	})
//	if err != nil {
//	    return err
//	}
//	result, err := mgr.Ensure(ctx)
package node
