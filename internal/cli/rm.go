package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/teeline/teeline/internal/daemon"
)

func init() {
	rootCmd.AddCommand(rmCmd)
}

var rmCmd = &cobra.Command{
	Use:   "rm ID...",
	Short: "Remove call records",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRm,
}

func runRm(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid call id %q", arg)
		}
		if err := d.Coordinator.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Removed call %d\n", id)
	}
	return nil
}
