package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teeline/teeline/internal/daemon"
)

var (
	bookDate    string
	bookTime    string
	bookPlayers int
	bookPlayer  string
	bookAt      string
	bookIn      string
)

func init() {
	bookCmd.Flags().StringVar(&bookDate, "date", "", "Booking date, as the agent should say it")
	bookCmd.Flags().StringVar(&bookTime, "time", "", "Booking time, as the agent should say it")
	bookCmd.Flags().IntVar(&bookPlayers, "players", 1, "Number of players")
	bookCmd.Flags().StringVar(&bookPlayer, "player", "", "Name the booking is under")
	bookCmd.Flags().StringVar(&bookAt, "at", "", "Place the call at a time (RFC3339) instead of now")
	bookCmd.Flags().StringVar(&bookIn, "in", "", "Place the call after a duration instead of now")
	bookCmd.MarkFlagRequired("date")
	bookCmd.MarkFlagRequired("time")
	rootCmd.AddCommand(bookCmd)
}

var bookCmd = &cobra.Command{
	Use:   "book NUMBER",
	Short: "Delegate a tee-time booking call to the AI agent",
	Long: `Hand a booking call to the AI voice agent. Without --at/--in the agent
dials immediately; otherwise the call is scheduled and placed when the
alert fires. Track progress with 'teeline watch' or 'teeline show'.`,
	Args: cobra.ExactArgs(1),
	RunE: runBook,
}

func runBook(cmd *cobra.Command, args []string) error {
	number := args[0]

	when, err := parseWhen(bookAt, bookIn)
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
		id, err := d.Coordinator.AddAIAgentCall(ctx, number, bookDate, bookTime, bookPlayers, bookPlayer)
		if err != nil {
			return fmt.Errorf("call %d recorded as failed: %w", id, err)
		}
		fmt.Printf("AI agent is calling %s (call %d). Run 'teeline watch %d' to follow along.\n", number, id, id)
		return nil
	}

	id, err := d.Coordinator.AddScheduledAIAgentCall(ctx, number, bookDate, bookTime, bookPlayers, bookPlayer, when)
	if err != nil {
		return err
	}
	fmt.Printf("Scheduled AI call %d to %s at %s\n", id, number, fmtMillis(when))
	return nil
}
