package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/teeline/teeline/internal/daemon"
	"github.com/teeline/teeline/internal/domain"
)

var fireAction string

func init() {
	fireCmd.Flags().StringVar(&fireAction, "action", "delivered", "Event to apply: delivered, pressed, or dismissed")
	rootCmd.AddCommand(fireCmd)
}

var fireCmd = &cobra.Command{
	Use:   "fire ID",
	Short: "Apply a pending alert for a call right now",
	Long: `Act on the pending alert for a scheduled call without waiting for its
fire time. The process builds its own store and backend handles, exactly
as the scan loop does, so this works from a cold start.`,
	Args: cobra.ExactArgs(1),
	RunE: runFire,
}

func runFire(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid call id %q", args[0])
	}

	var action domain.TriggerAction
	switch fireAction {
	case "delivered":
		action = domain.ActionDelivered
	case "pressed":
		action = domain.ActionPressed
	case "dismissed":
		action = domain.ActionDismissed
	default:
		return fmt.Errorf("unknown action %q (want delivered, pressed, or dismissed)", fireAction)
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	trig, err := d.DB.GetTrigger(id)
	if err != nil {
		return err
	}
	if trig == nil {
		// Already fired, cancelled, or never scheduled.
		fmt.Printf("Call %d has no pending alert; nothing to do.\n", id)
		return nil
	}

	if err := d.Handler.HandleEvent(cmd.Context(), action, *trig); err != nil {
		return err
	}

	call, err := d.DB.GetCall(id)
	if err != nil {
		return err
	}
	fmt.Printf("Call %d is now %s\n", call.ID, call.Status)
	return nil
}
