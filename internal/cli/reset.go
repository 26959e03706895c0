package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/andy/timeledger/internal/db"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset data for the configured account",
	Long: `Reset data for the configured account. Other accounts in the same
database are left alone.

Examples:
  timeledger reset invoices   # Delete invoices and payments, unlock entries
  timeledger reset entries    # Delete time entries, invoices and timer state
  timeledger reset all        # Wipe everything, settings included`,
}

var invoiceTables = []string{"invoice_line_items", "invoice_email_history", "payments", "invoices"}

var resetEntriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "Delete all time entries, invoices, and timer state",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmPrompt("This will delete ALL time entries, invoices, payments, and timer state. Continue?") {
			fmt.Println("Cancelled.")
			return nil
		}

		tables := append([]string{"active_timer", "time_entries"}, invoiceTables...)
		if err := appInstance.DB.Clear(context.Background(), appInstance.Config.AccountID, tables...); err != nil {
			return err
		}

		fmt.Println("All time entries, invoices, and timer state have been deleted.")
		return nil
	},
}

var resetInvoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Delete all invoices and unlock associated time entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmPrompt("This will delete ALL invoices and payments and unlock all time entries. Continue?") {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := appInstance.DB.Clear(context.Background(), appInstance.Config.AccountID, invoiceTables...); err != nil {
			return err
		}

		fmt.Println("All invoices have been deleted and time entries unlocked.")
		return nil
	},
}

var resetAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Delete ALL data: clients, entries, invoices, settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmPrompt("This will delete ALL data (clients, entries, invoices, settings). Continue?") {
			fmt.Println("Cancelled.")
			return nil
		}

		if err := appInstance.DB.Clear(context.Background(), appInstance.Config.AccountID, db.Tables()...); err != nil {
			return err
		}

		fmt.Println("All data has been deleted.")
		return nil
	},
}

func confirmPrompt(message string) bool {
	fmt.Printf("%s [y/N] ", message)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func init() {
	resetCmd.AddCommand(resetEntriesCmd)
	resetCmd.AddCommand(resetInvoicesCmd)
	resetCmd.AddCommand(resetAllCmd)
}
