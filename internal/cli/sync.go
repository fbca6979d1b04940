package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teeline/teeline/internal/app/reconcile"
	"github.com/teeline/teeline/internal/daemon"
)

func init() {
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile in-flight AI calls against the backend",
	Long: `Sweep every AI call still awaiting its result and pull the outcome from
the backend. The serve loop does this automatically; sync is the manual
equivalent for one-shot use.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	n, err := reconcile.Sweep(cmd.Context(), d.DB, d.Remote)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Println("Everything up to date.")
	} else {
		fmt.Printf("Updated %d call(s)\n", n)
	}
	return nil
}
