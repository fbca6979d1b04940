package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/teeline/teeline/internal/daemon"
)

func init() {
	rootCmd.AddCommand(cancelCmd)
}

var cancelCmd = &cobra.Command{
	Use:   "cancel ID",
	Short: "Cancel a scheduled call before it fires",
	Args:  cobra.ExactArgs(1),
	RunE:  runCancel,
}

func runCancel(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid call id %q", args[0])
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Coordinator.Cancel(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Printf("Cancelled call %d\n", id)
	return nil
}
