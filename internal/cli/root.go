package cli

import (
	"github.com/andy/timeledger/internal/app"
	"github.com/spf13/cobra"
)

var appInstance *app.App

var rootCmd = &cobra.Command{
	Use:   "timeledger",
	Short: "Time tracking and invoicing for consultants",
	Long: `Timeledger tracks billable hours per client, turns uninvoiced time into
numbered invoices and follows them through to payment.

Running timeledger without arguments opens the weekly calendar.
Use subcommands for CLI operations.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return launchCalendar(cmd, args)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetApp sets the app instance for commands to use
func SetApp(a *app.App) {
	appInstance = a
}

func init() {
	rootCmd.AddCommand(timerCmd)
	rootCmd.AddCommand(clientsCmd)
	rootCmd.AddCommand(entriesCmd)
	rootCmd.AddCommand(invoicesCmd)
	rootCmd.AddCommand(paymentsCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(resetCmd)
}
