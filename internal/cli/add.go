package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teeline/teeline/internal/daemon"
)

var (
	addName string
	addAt   string
	addIn   string
)

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "Contact name to display")
	addCmd.Flags().StringVar(&addAt, "at", "", "Schedule for a time (RFC3339)")
	addCmd.Flags().StringVar(&addIn, "in", "", "Schedule after a duration (e.g. 90m)")
	rootCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add NUMBER",
	Short: "Add a manual call, now or scheduled",
	Long: `Add a manual call. Without --at/--in the call is dialed immediately and
recorded as completed. With a future time, the call is scheduled and an
alert fires when it is time to dial.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	number := args[0]

	when, err := parseWhen(addAt, addIn)
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	if when == 0 {
		id, err := d.Coordinator.AddCall(ctx, number, addName)
		if err != nil {
			return fmt.Errorf("call %d recorded, but dial failed: %w", id, err)
		}
		fmt.Printf("Called %s (call %d)\n", number, id)
		return nil
	}

	id, err := d.Coordinator.AddScheduledCall(ctx, number, addName, when)
	if err != nil {
		return err
	}
	fmt.Printf("Scheduled call %d to %s at %s\n", id, number, fmtMillis(when))
	return nil
}
