package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/teeline/teeline/internal/daemon"
	"github.com/teeline/teeline/internal/domain"
)

var showRefresh bool

func init() {
	showCmd.Flags().BoolVar(&showRefresh, "refresh", false, "Ask the backend for the latest result first")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one call in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid call id %q", args[0])
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	var call *domain.Call
	if showRefresh {
		call, err = d.Coordinator.RefreshCall(cmd.Context(), id)
	} else {
		call, err = d.DB.GetCall(id)
	}
	if err != nil {
		return err
	}

	printCall(call)
	return nil
}

func printCall(c *domain.Call) {
	fmt.Printf("Call %d  [%s]\n", c.ID, c.Status)
	if c.ContactName != "" {
		fmt.Printf("  Contact:    %s\n", c.ContactName)
	}
	fmt.Printf("  Number:     %s\n", c.PhoneNumber)
	fmt.Printf("  Type:       %s\n", c.Type)
	fmt.Printf("  Scheduled:  %s\n", fmtMillis(c.ScheduledTime))
	fmt.Printf("  Created:    %s\n", fmtMillis(c.CreatedAt))

	if c.Type == domain.TypeAIAgent {
		fmt.Printf("  Booking:    %s at %s, %d player(s)", c.BookingDate, c.BookingTime, c.NumPlayers)
		if c.PlayerName != "" {
			fmt.Printf(" under %s", c.PlayerName)
		}
		fmt.Println()
		if c.VapiCallID != "" {
			fmt.Printf("  Agent call: %s\n", c.VapiCallID)
		}
		if c.BookingConfirmed != nil {
			fmt.Printf("  Confirmed:  %t\n", *c.BookingConfirmed)
		}
		if c.AISummary != "" {
			fmt.Printf("  Summary:    %s\n", c.AISummary)
		}
		if c.Transcript != "" {
			fmt.Printf("  Transcript:\n%s\n", c.Transcript)
		}
	}
}
