// Package cli implements the teeline command-line interface using Cobra.
// Each subcommand builds its own daemon — store handle, backend client,
// trigger service — and tears it down on exit, so every invocation behaves
// like a cold process start.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "teeline",
	Short: "teeline — schedule and track phone calls",
	Long: `teeline tracks your calls locally and can hand tee-time bookings to an
AI voice agent. Records live in a local SQLite store; a remote calling
backend places delegated calls and teeline reconciles their status back.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
