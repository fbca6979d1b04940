package cli

import (
	"github.com/spf13/cobra"
	"github.com/teeline/teeline/internal/daemon"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the teeline daemon (HTTP API, alerts, reconciliation)",
	Long: `Run teeline as a long-lived daemon: serve the local HTTP API for the
dashboard, fire scheduled alerts as they come due, and reconcile in-flight
AI calls against the backend.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	return d.Serve(cmd.Context())
}
