package main

import (
	"fmt"
	"os"

	"github.com/nodepin/nodepin/internal/artifact"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v":
			fmt.Printf("nodepin %s (pins Node.js v%s)\n", Version, artifact.PinnedVersion)
			return
		case "ensure":
			code, err := runEnsure(os.Args[2:])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(code)
		case "status":
			code, err := runStatus(os.Args[2:])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(code)
		case "help", "--help", "-h":
			printUsage()
			return
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n", os.Args[1])
			printUsage()
			os.Exit(1)
		}
	}

	printUsage()
}

func printUsage() {
	fmt.Println("nodepin - verified installer for a pinned Node.js runtime")
	fmt.Println()
	fmt.Printf("Pins Node.js v%s at a fixed system location.\n", artifact.PinnedVersion)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  nodepin ensure [options]   Install the pinned runtime if not already present")
	fmt.Println("  nodepin status [options]   Report the installed runtime version")
	fmt.Println("  nodepin --version          Show version information")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  NODEPIN_POLICY        Policy file path (default /etc/nodepin/policy.lua)")
	fmt.Println("  NODEPIN_MIRROR        Override the distribution mirror URL")
	fmt.Println("  NODEPIN_TRUST_ANCHOR  PEM certificate replacing system TLS trust")
}
