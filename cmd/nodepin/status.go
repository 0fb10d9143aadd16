package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nodepin/nodepin/internal/artifact"
)

const statusTimeout = 30 * time.Second

// runStatus handles the `nodepin status` subcommand.
// Returns an exit code (0 = pinned version installed, 1 = not) and an error.
func runStatus(args []string) (int, error) {
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
		printStatusHelp()
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	mgr, err := buildManager(ctx, policyFlag)
	if err != nil {
		return 1, err
	}

	version, err := mgr.InstalledVersion(ctx)
	if err != nil {
		fmt.Printf("node: not installed (want v%s)\n", artifact.PinnedVersion)
		return 1, nil
	}

	if version == artifact.PinnedVersion {
		fmt.Printf("node: v%s (pinned version installed)\n", version)
		return 0, nil
	}

	fmt.Printf("node: v%s (want v%s)\n", version, artifact.PinnedVersion)
	return 1, nil
}

func printStatusHelp() {
	fmt.Println("Usage: nodepin status [options]")
	fmt.Println()
	fmt.Println("Report the installed Node.js version against the pinned version.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -h, --help           Show this help message")
	fmt.Println("  --policy <file>      Policy file path (overrides NODEPIN_POLICY)")
	fmt.Println()
	fmt.Println("Exit codes:")
	fmt.Println("  0  Pinned version installed")
	fmt.Println("  1  Missing, broken, or different version")
}
