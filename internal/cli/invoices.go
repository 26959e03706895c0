package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andy/timeledger/internal/document"
	"github.com/andy/timeledger/internal/domain"
	"github.com/andy/timeledger/internal/service"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Manage invoices",
	Long:  `Build, list, send, and manage invoices.`,
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var filter service.InvoiceListFilter
		if c, _ := cmd.Flags().GetString("client"); c != "" {
			client, err := resolveClient(ctx, c)
			if err != nil {
				return err
			}
			filter.ClientID = client.ID
		}
		if s, _ := cmd.Flags().GetString("status"); s != "" {
			status, err := domain.ParseInvoiceStatus(s)
			if err != nil {
				return err
			}
			filter.Status = status
		}

		invoices, err := appInstance.InvoiceService.List(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}

		if len(invoices) == 0 {
			fmt.Println("No invoices found")
			return nil
		}

		names := clientNames(ctx)

		fmt.Printf("%-13s %-20s %-10s %-10s %12s %12s %-15s\n", "Number", "Client", "Issued", "Due", "Total", "Balance", "Status")
		fmt.Println(strings.Repeat("-", 98))

		outstanding := decimal.Zero
		for _, s := range invoices {
			inv := s.Invoice
			fmt.Printf("%-13s %-20s %-10s %-10s %12s %12s %-15s\n",
				inv.InvoiceNumber,
				truncate(clientName(names, inv.ClientID), 20),
				inv.DateIssued.Format(domain.DateLayout),
				inv.DueDate.Format(domain.DateLayout),
				money(inv.Total),
				money(s.Balance),
				s.Status,
			)
			if s.Status != domain.InvoiceStatusDraft {
				outstanding = outstanding.Add(s.Balance)
			}
		}

		fmt.Printf("\nTotal: %s invoice(s), %s outstanding\n", humanize.Comma(int64(len(invoices))), money(outstanding))
		return nil
	},
}

var invoicesBuildCmd = &cobra.Command{
	Use:   "build [client]",
	Short: "Build an invoice from uninvoiced time",
	Long: `Build a numbered invoice for a client.

By default every uninvoiced entry up to --cutoff is billed. Pass --entries to
pick entries by ID instead. Manual line items are given as
"description:hours" or "description:hours:rate".

Example:
  timeledger invoices build acme --cutoff 2024-01-31 --item "Hosting:1:45"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		client, err := resolveClient(ctx, args[0])
		if err != nil {
			return err
		}

		req := service.BuildRequest{ClientID: client.ID}
		issuedStr, _ := cmd.Flags().GetString("issued")
		if issued, err := optionalDate(issuedStr); err != nil {
			return fmt.Errorf("invalid issue date: %w", err)
		} else if issued != nil {
			req.DateIssued = *issued
		}
		dueStr, _ := cmd.Flags().GetString("due")
		if due, err := optionalDate(dueStr); err != nil {
			return fmt.Errorf("invalid due date: %w", err)
		} else if due != nil {
			req.DueDate = *due
		}
		if s, _ := cmd.Flags().GetString("status"); s != "" {
			if req.Status, err = domain.ParseInvoiceStatus(s); err != nil {
				return err
			}
		}

		req.EntryIDs, _ = cmd.Flags().GetStringSlice("entries")
		if len(req.EntryIDs) == 0 {
			cutoffStr, _ := cmd.Flags().GetString("cutoff")
			cutoff, err := optionalDate(cutoffStr)
			if err != nil {
				return fmt.Errorf("invalid cutoff date: %w", err)
			}
			entries, err := appInstance.EntryService.SelectUninvoiced(ctx, client.ID, cutoff)
			if err != nil {
				return fmt.Errorf("failed to select entries: %w", err)
			}
			for _, e := range entries {
				req.EntryIDs = append(req.EntryIDs, e.ID)
			}
		}

		items, _ := cmd.Flags().GetStringArray("item")
		for _, raw := range items {
			item, err := parseManualItem(raw)
			if err != nil {
				return err
			}
			req.ManualItems = append(req.ManualItems, item)
		}

		invoice, err := appInstance.InvoiceService.Build(ctx, req)
		var partial *domain.PartialFailureError
		if errors.As(err, &partial) && invoice != nil {
			fmt.Printf("✓ Invoice created: %s\n", invoice.InvoiceNumber)
			fmt.Printf("! Entries could not be marked as invoiced: %v\n", partial.Err)
			fmt.Printf("  Run 'timeledger invoices retry-mark %s' to finish\n", invoice.InvoiceNumber)
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to build invoice: %w", err)
		}

		fmt.Printf("✓ Invoice created: %s (%s)\n", invoice.InvoiceNumber, invoice.Status)
		fmt.Printf("  Client: %s\n", client.Name)
		fmt.Printf("  Lines:  %d\n", len(invoice.LineItems))
		fmt.Printf("  Total:  %s\n", money(invoice.Total))
		fmt.Printf("  Due:    %s\n", invoice.DueDate.Format(domain.DateLayout))
		return nil
	},
}

var invoicesShowCmd = &cobra.Command{
	Use:   "show [invoice]",
	Short: "Show invoice details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		summary, err := resolveInvoice(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to get invoice: %w", err)
		}
		invoice := summary.Invoice
		names := clientNames(ctx)

		fmt.Printf("Invoice %s\n", invoice.InvoiceNumber)
		fmt.Printf("  ID:      %s\n", invoice.ID)
		fmt.Printf("  Client:  %s\n", clientName(names, invoice.ClientID))
		fmt.Printf("  Issued:  %s\n", invoice.DateIssued.Format(domain.DateLayout))
		fmt.Printf("  Due:     %s\n", invoice.DueDate.Format(domain.DateLayout))
		fmt.Printf("  Status:  %s\n", summary.Status)
		if invoice.LastSentAt != nil {
			fmt.Printf("  Sent:    %d time(s), last %s\n", invoice.SentCount, humanize.Time(*invoice.LastSentAt))
		}
		fmt.Println()

		fmt.Printf("  %-36s  %-10s %-32s %7s %10s %11s\n", "Line", "Date", "Description", "Hours", "Rate", "Amount")
		fmt.Println("  " + strings.Repeat("-", 112))
		for _, item := range invoice.LineItems {
			fmt.Printf("  %-36s  %-10s %-32s %7s %10s %11s\n",
				item.ID,
				item.Date.Format(domain.DateLayout),
				truncate(item.Description, 32),
				humanize.FtoaWithDigits(item.Hours, 2),
				money(item.Rate),
				money(item.Subtotal),
			)
		}
		fmt.Println()
		fmt.Printf("  Total:   %s\n", money(invoice.Total))
		fmt.Printf("  Paid:    %s\n", money(summary.Paid))
		fmt.Printf("  Balance: %s\n", money(summary.Balance))

		if len(invoice.Payments) > 0 {
			fmt.Println()
			fmt.Println("  Payments:")
			for _, p := range invoice.Payments {
				fmt.Printf("    %s  %11s  %s %s\n", p.Date.Format(domain.DateLayout), money(p.Amount), p.Method, p.Reference)
			}
		}
		if len(invoice.EmailHistory) > 0 {
			fmt.Println()
			fmt.Println("  Email history:")
			for _, h := range invoice.EmailHistory {
				fmt.Printf("    %s  to %s\n", h.SentAt.Local().Format("2006-01-02 15:04"), h.SentTo)
			}
		}
		return nil
	},
}

var invoicesSendCmd = &cobra.Command{
	Use:   "send [invoice]",
	Short: "Email an invoice to the client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		summary, err := resolveInvoice(ctx, args[0])
		if err != nil {
			return err
		}
		message, _ := cmd.Flags().GetString("message")

		invoice, err := appInstance.InvoiceService.Send(ctx, summary.Invoice.ID, message)
		if err != nil {
			return fmt.Errorf("failed to send invoice: %w", err)
		}

		fmt.Printf("✓ Invoice %s sent (%s)\n", invoice.InvoiceNumber, humanize.Ordinal(invoice.SentCount)+" send")
		if appInstance.Outbox != nil {
			fmt.Printf("  Message written to %s\n", appInstance.Outbox.Dir())
		}
		return nil
	},
}

var invoicesPDFCmd = &cobra.Command{
	Use:   "pdf [invoice]",
	Short: "Write an invoice PDF to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		summary, err := resolveInvoice(ctx, args[0])
		if err != nil {
			return err
		}
		client, err := appInstance.ClientService.Get(ctx, summary.Invoice.ClientID)
		if err != nil {
			return err
		}
		settings, err := appInstance.SettingsRepo.Get(ctx)
		if err != nil {
			return err
		}

		data, err := document.NewPDFRenderer().Render(document.Snapshot{
			Invoice:  summary.Invoice,
			Client:   client,
			Settings: settings,
			Today:    domain.TruncateDay(time.Now()),
		})
		if err != nil {
			return fmt.Errorf("failed to render invoice: %w", err)
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = summary.Invoice.InvoiceNumber + ".pdf"
		}
		if err := os.WriteFile(out, data, 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}

		fmt.Printf("✓ Wrote %s (%s)\n", out, humanize.Bytes(uint64(len(data))))
		return nil
	},
}

var invoicesMarkSentCmd = &cobra.Command{
	Use:   "mark-sent [invoice]",
	Short: "Mark a draft invoice as sent without emailing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		summary, err := resolveInvoice(ctx, args[0])
		if err != nil {
			return err
		}
		invoice, err := appInstance.InvoiceService.MarkSent(ctx, summary.Invoice.ID)
		if err != nil {
			return fmt.Errorf("failed to mark invoice as sent: %w", err)
		}

		fmt.Printf("✓ Invoice %s marked as sent\n", invoice.InvoiceNumber)
		return nil
	},
}

var invoicesMarkPaidCmd = &cobra.Command{
	Use:   "mark-paid [invoice]",
	Short: "Mark an invoice as paid, recording a payment for the balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		summary, err := resolveInvoice(ctx, args[0])
		if err != nil {
			return err
		}

		dateStr, _ := cmd.Flags().GetString("date")
		paidDate := domain.TruncateDay(time.Now())
		if dateStr != "" {
			if paidDate, err = parseDate(dateStr); err != nil {
				return fmt.Errorf("invalid paid date: %w", err)
			}
		}

		invoice, err := appInstance.InvoiceService.MarkPaid(ctx, summary.Invoice.ID, paidDate)
		if err != nil {
			return fmt.Errorf("failed to mark invoice as paid: %w", err)
		}

		fmt.Printf("✓ Invoice %s marked as paid on %s\n", invoice.InvoiceNumber, paidDate.Format(domain.DateLayout))
		return nil
	},
}

var invoicesEditItemCmd = &cobra.Command{
	Use:   "edit-item [invoice] [line-id]",
	Short: "Edit a line item on a draft invoice",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		summary, err := resolveInvoice(ctx, args[0])
		if err != nil {
			return err
		}

		var patch service.LineItemPatch
		if cmd.Flags().Changed("date") {
			s, _ := cmd.Flags().GetString("date")
			d, err := parseDate(s)
			if err != nil {
				return fmt.Errorf("invalid date: %w", err)
			}
			patch.Date = &d
		}
		if cmd.Flags().Changed("description") {
			s, _ := cmd.Flags().GetString("description")
			patch.Description = &s
		}
		if cmd.Flags().Changed("hours") {
			h, _ := cmd.Flags().GetFloat64("hours")
			patch.Hours = &h
		}
		if cmd.Flags().Changed("rate") {
			s, _ := cmd.Flags().GetString("rate")
			r, err := parseAmount(s)
			if err != nil {
				return err
			}
			patch.Rate = &r
		}

		invoice, err := appInstance.InvoiceService.UpdateLineItem(ctx, summary.Invoice.ID, args[1], patch)
		if err != nil {
			return fmt.Errorf("failed to update line item: %w", err)
		}

		fmt.Printf("✓ Line item updated, %s total is now %s\n", invoice.InvoiceNumber, money(invoice.Total))
		return nil
	},
}

var invoicesRemoveItemCmd = &cobra.Command{
	Use:   "remove-item [invoice] [line-id]",
	Short: "Remove a line item from a draft invoice",
	Long: `Remove a line item from a draft invoice. A time entry billed on that
line becomes uninvoiced again.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		summary, err := resolveInvoice(ctx, args[0])
		if err != nil {
			return err
		}
		invoice, err := appInstance.InvoiceService.RemoveLineItem(ctx, summary.Invoice.ID, args[1])
		if err != nil {
			return fmt.Errorf("failed to remove line item: %w", err)
		}

		fmt.Printf("✓ Line item removed, %s total is now %s\n", invoice.InvoiceNumber, money(invoice.Total))
		return nil
	},
}

var invoicesRetryMarkCmd = &cobra.Command{
	Use:   "retry-mark [invoice]",
	Short: "Mark the entries on an invoice as invoiced after a partial failure",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		summary, err := resolveInvoice(ctx, args[0])
		if err != nil {
			return err
		}
		if err := appInstance.InvoiceService.MarkConsumedEntries(ctx, summary.Invoice.ID); err != nil {
			return fmt.Errorf("failed to mark entries: %w", err)
		}

		fmt.Printf("✓ Entries on %s marked as invoiced\n", summary.Invoice.InvoiceNumber)
		return nil
	},
}

var invoicesDeleteCmd = &cobra.Command{
	Use:   "delete [invoice]",
	Short: "Delete an invoice and release its entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		summary, err := resolveInvoice(ctx, args[0])
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")
		if !force && !confirmPrompt(fmt.Sprintf("Delete invoice %s? Its entries become uninvoiced again.", summary.Invoice.InvoiceNumber)) {
			fmt.Println("Cancelled")
			return nil
		}

		if err := appInstance.InvoiceService.Delete(ctx, summary.Invoice.ID); err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}

		fmt.Printf("✓ Deleted invoice %s\n", summary.Invoice.InvoiceNumber)
		return nil
	},
}

// parseManualItem parses "description:hours[:rate]"
func parseManualItem(raw string) (service.ManualItem, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return service.ManualItem{}, fmt.Errorf("invalid item %q: expected description:hours[:rate]", raw)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return service.ManualItem{}, fmt.Errorf("invalid hours in item %q", raw)
	}
	item := service.ManualItem{Description: strings.TrimSpace(parts[0]), Hours: h}
	if len(parts) == 3 {
		rate, err := parseAmount(parts[2])
		if err != nil {
			return service.ManualItem{}, err
		}
		item.Rate = &rate
	}
	return item, nil
}

func init() {
	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesCmd.AddCommand(invoicesBuildCmd)
	invoicesCmd.AddCommand(invoicesShowCmd)
	invoicesCmd.AddCommand(invoicesSendCmd)
	invoicesCmd.AddCommand(invoicesPDFCmd)
	invoicesCmd.AddCommand(invoicesMarkSentCmd)
	invoicesCmd.AddCommand(invoicesMarkPaidCmd)
	invoicesCmd.AddCommand(invoicesEditItemCmd)
	invoicesCmd.AddCommand(invoicesRemoveItemCmd)
	invoicesCmd.AddCommand(invoicesRetryMarkCmd)
	invoicesCmd.AddCommand(invoicesDeleteCmd)

	// List flags
	invoicesListCmd.Flags().String("client", "", "Filter by client (ID or name)")
	invoicesListCmd.Flags().String("status", "", "Filter by status (draft, sent, overdue, partially_paid, paid)")

	// Build flags
	invoicesBuildCmd.Flags().String("cutoff", "", "Bill uninvoiced entries up to this date")
	invoicesBuildCmd.Flags().StringSlice("entries", nil, "Bill exactly these entry IDs")
	invoicesBuildCmd.Flags().StringArray("item", nil, "Manual line item description:hours[:rate] (repeatable)")
	invoicesBuildCmd.Flags().String("issued", "", "Issue date (default today)")
	invoicesBuildCmd.Flags().String("due", "", "Due date (default issue date + configured days)")
	invoicesBuildCmd.Flags().String("status", "", "Initial status: draft (default) or sent")

	invoicesSendCmd.Flags().String("message", "", "Custom message added to the email body")
	invoicesPDFCmd.Flags().String("out", "", "Output file (default <number>.pdf)")
	invoicesMarkPaidCmd.Flags().String("date", "", "Payment date (default today)")

	// Edit item flags
	invoicesEditItemCmd.Flags().String("date", "", "New line date")
	invoicesEditItemCmd.Flags().String("description", "", "New description")
	invoicesEditItemCmd.Flags().Float64("hours", 0, "New hours")
	invoicesEditItemCmd.Flags().String("rate", "", "New rate")

	invoicesDeleteCmd.Flags().Bool("force", false, "Skip confirmation")
}
