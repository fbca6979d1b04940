package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/teeline/teeline/internal/daemon"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List calls, most recently scheduled first",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func runList(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	calls, err := d.DB.ListCalls()
	if err != nil {
		return err
	}
	if len(calls) == 0 {
		fmt.Println("No calls. Try 'teeline add' or 'teeline book'.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCONTACT\tNUMBER\tTYPE\tSTATUS\tSCHEDULED")
	for _, c := range calls {
		name := c.ContactName
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, name, c.PhoneNumber, c.Type, c.Status, fmtMillis(c.ScheduledTime))
	}
	return w.Flush()
}
