package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nodepin/nodepin/internal/artifact"
	"github.com/nodepin/nodepin/internal/node"
)

// ensureTimeout bounds a full run including download on a slow link.
const ensureTimeout = 15 * time.Minute

// runEnsure handles the `nodepin ensure` subcommand.
// Returns an exit code (0 = runtime present and working) and an error.
func runEnsure(args []string) (int, error) {
	showHelp := false
	policyFlag := ""

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--help", "-h":
			showHelp = true
		case "--policy":
			if i+1 >= len(args) {
				return 1, fmt.Errorf("--policy requires a file path")
			}
			i++
			policyFlag = args[i]
		default:
			return 1, fmt.Errorf("unknown option: %s", args[i])
		}
	}

	if showHelp {
		printEnsureHelp()
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), ensureTimeout)
	defer cancel()

	mgr, err := buildManager(ctx, policyFlag)
	if err != nil {
		return 1, err
	}

	fmt.Printf("Ensuring Node.js v%s...\n", artifact.PinnedVersion)

	result, err := mgr.Ensure(ctx)
	if err != nil {
		return 1, err
	}

	switch result.Action {
	case node.ActionNone:
		fmt.Printf("Node.js v%s already installed, nothing to do.\n", result.Version)
	case node.ActionInstalled:
		fmt.Printf("Installed Node.js v%s in %s.\n", result.Version, result.Duration.Round(time.Millisecond))
		fmt.Printf("Launchers linked in %s.\n", mgr.Target().BinDir)
	}

	return 0, nil
}

func printEnsureHelp() {
	fmt.Println("Usage: nodepin ensure [options]")
	fmt.Println()
	fmt.Printf("Install Node.js v%s if the installed runtime does not already report it.\n", artifact.PinnedVersion)
	fmt.Println()
	fmt.Println("The run is idempotent: when the pinned version is already working, no")
	fmt.Println("network or filesystem activity happens. Downloads are verified against a")
	fmt.Println("pinned SHA-256 digest before extraction, and the previous installation is")
	fmt.Println("only replaced by a fully validated staged tree.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -h, --help           Show this help message")
	fmt.Println("  --policy <file>      Policy file path (overrides NODEPIN_POLICY)")
	fmt.Println()
	fmt.Println("Exit codes:")
	fmt.Println("  0  Runtime present and reporting the pinned version")
	fmt.Println("  1  Installation failed or was refused")
}
