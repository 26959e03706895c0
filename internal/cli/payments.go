package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andy/timeledger/internal/domain"
	"github.com/andy/timeledger/internal/service"
	"github.com/spf13/cobra"
)

var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "Record payments against invoices",
	Long:  `Add, list, and remove payments. Invoice status follows the payments recorded.`,
}

var paymentsAddCmd = &cobra.Command{
	Use:   "add [invoice] [amount]",
	Short: "Record a payment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		summary, err := resolveInvoice(ctx, args[0])
		if err != nil {
			return err
		}
		amount, err := parseAmount(args[1])
		if err != nil {
			return err
		}

		input := service.PaymentInput{Amount: amount, Date: domain.TruncateDay(time.Now())}
		if s, _ := cmd.Flags().GetString("date"); s != "" {
			if input.Date, err = parseDate(s); err != nil {
				return fmt.Errorf("invalid payment date: %w", err)
			}
		}
		input.Method, _ = cmd.Flags().GetString("method")
		input.Reference, _ = cmd.Flags().GetString("reference")
		input.Notes, _ = cmd.Flags().GetString("notes")

		invoice, err := appInstance.PaymentService.AddPayment(ctx, summary.Invoice.ID, input)
		if err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}

		fmt.Printf("✓ Recorded %s against %s\n", money(amount), invoice.InvoiceNumber)
		fmt.Printf("  Balance: %s (%s)\n", money(invoice.Balance()), invoice.Status)
		return nil
	},
}

var paymentsListCmd = &cobra.Command{
	Use:   "list [invoice]",
	Short: "List payments on an invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		summary, err := resolveInvoice(ctx, args[0])
		if err != nil {
			return err
		}
		payments, err := appInstance.PaymentService.ListPayments(ctx, summary.Invoice.ID)
		if err != nil {
			return fmt.Errorf("failed to list payments: %w", err)
		}

		if len(payments) == 0 {
			fmt.Printf("No payments on %s\n", summary.Invoice.InvoiceNumber)
			return nil
		}

		fmt.Printf("%-36s  %-10s %11s %-12s %-20s\n", "ID", "Date", "Amount", "Method", "Reference")
		fmt.Println(strings.Repeat("-", 94))
		for _, p := range payments {
			fmt.Printf("%-36s  %-10s %11s %-12s %-20s\n",
				p.ID,
				p.Date.Format(domain.DateLayout),
				money(p.Amount),
				truncate(p.Method, 12),
				truncate(p.Reference, 20),
			)
		}

		fmt.Printf("\nPaid: %s of %s, balance %s\n", money(summary.Paid), money(summary.Invoice.Total), money(summary.Balance))
		return nil
	},
}

var paymentsRemoveCmd = &cobra.Command{
	Use:   "remove [invoice] [payment-id]",
	Short: "Remove a payment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		summary, err := resolveInvoice(ctx, args[0])
		if err != nil {
			return err
		}
		invoice, err := appInstance.PaymentService.RemovePayment(ctx, summary.Invoice.ID, args[1])
		if err != nil {
			return fmt.Errorf("failed to remove payment: %w", err)
		}

		fmt.Printf("✓ Payment removed, %s is now %s with %s due\n", invoice.InvoiceNumber, invoice.Status, money(invoice.Balance()))
		return nil
	},
}

func init() {
	paymentsCmd.AddCommand(paymentsAddCmd)
	paymentsCmd.AddCommand(paymentsListCmd)
	paymentsCmd.AddCommand(paymentsRemoveCmd)

	paymentsAddCmd.Flags().String("date", "", "Payment date (default today)")
	paymentsAddCmd.Flags().String("method", "", "Payment method, e.g. ach or check")
	paymentsAddCmd.Flags().String("reference", "", "Check number or transaction reference")
	paymentsAddCmd.Flags().String("notes", "", "Notes")
}
