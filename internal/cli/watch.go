package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/teeline/teeline/internal/daemon"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch ID",
	Short: "Follow an in-progress AI call until it finishes",
	Long: `Poll the backend for an in-progress AI call and print the final record
once the call reaches a terminal state. Ctrl-C stops watching without
touching the call.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid call id %q", args[0])
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	fmt.Printf("Watching call %d (Ctrl-C to stop)...\n", id)
	call, err := d.Poller.Watch(cmd.Context(), id)
	if call != nil {
		printCall(call)
	}
	return err
}
