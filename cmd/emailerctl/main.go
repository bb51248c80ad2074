// emailerctl is a troubleshooting CLI for the Toolforge jobs emailer.
//
// Installation:
//
//	go build -o emailerctl ./cmd/emailerctl
//	mv emailerctl /usr/local/bin/
//
// Usage:
//
//	emailerctl render --tool mytool --job myjob --exit-code 99
//	emailerctl send --to someone@example.org
//	emailerctl status --url http://127.0.0.1:8080
//	emailerctl version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "emailerctl",
		Short: "Inspect and exercise the Toolforge jobs emailer",
		Long: `emailerctl is a CLI tool for troubleshooting the jobs emailer.

It renders notification emails exactly as the running emailer composes
them, pushes test emails through the real SMTP path, and reports what a
running emailer holds cached and queued.`,
		Version: version,
	}

	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(sendCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
