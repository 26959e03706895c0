package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/timeledger/internal/domain"
	"github.com/andy/timeledger/internal/repository"
	"github.com/andy/timeledger/internal/service"
	"github.com/spf13/cobra"
)

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "Manage time entries",
	Long:  `List, add, edit, move, and delete time entries.`,
}

var entriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List time entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var filter repository.EntryFilter
		if c, _ := cmd.Flags().GetString("client"); c != "" {
			client, err := resolveClient(ctx, c)
			if err != nil {
				return err
			}
			filter.ClientID = client.ID
		}

		var err error
		from, _ := cmd.Flags().GetString("from")
		if filter.From, err = optionalDate(from); err != nil {
			return fmt.Errorf("invalid --from date: %w", err)
		}
		to, _ := cmd.Flags().GetString("to")
		if filter.To, err = optionalDate(to); err != nil {
			return fmt.Errorf("invalid --to date: %w", err)
		}
		filter.UninvoicedOnly, _ = cmd.Flags().GetBool("uninvoiced")

		entries, err := appInstance.EntryService.List(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}

		printEntries(ctx, entries)
		return nil
	},
}

var entriesUninvoicedCmd = &cobra.Command{
	Use:   "uninvoiced [client]",
	Short: "Show a client's entries not yet on an invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		client, err := resolveClient(ctx, args[0])
		if err != nil {
			return err
		}
		cutoffStr, _ := cmd.Flags().GetString("cutoff")
		cutoff, err := optionalDate(cutoffStr)
		if err != nil {
			return fmt.Errorf("invalid cutoff date: %w", err)
		}

		entries, err := appInstance.EntryService.SelectUninvoiced(ctx, client.ID, cutoff)
		if err != nil {
			return fmt.Errorf("failed to select entries: %w", err)
		}

		printEntries(ctx, entries)
		return nil
	},
}

var entriesAddCmd = &cobra.Command{
	Use:   "add [client] [date] [start] [end] [description]",
	Short: "Add a time entry",
	Long: `Add a time entry for a client.

Example:
  timeledger entries add acme 2024-01-05 09:00 11:30 "API design" --project Web`,
	Args: cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		client, err := resolveClient(ctx, args[0])
		if err != nil {
			return err
		}
		input, err := entryInput(client.ID, args[1], args[2], args[3])
		if err != nil {
			return err
		}
		input.Description = args[4]
		input.Project, _ = cmd.Flags().GetString("project")

		entry, err := appInstance.EntryService.Create(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to create entry: %w", err)
		}

		fmt.Printf("✓ Added %s for %s on %s (%s-%s)\n",
			hours(entry.Hours), client.Name, entry.Date.Format(domain.DateLayout), entry.StartTime, entry.EndTime)
		fmt.Printf("  ID: %s\n", entry.ID)
		return nil
	},
}

var entriesEditCmd = &cobra.Command{
	Use:   "edit [entry-id]",
	Short: "Edit a time entry",
	Long: `Edit an uninvoiced time entry. Only the flags given are changed.

Entries that are already on an invoice cannot be edited.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		entry, err := appInstance.EntryService.Get(ctx, args[0])
		if err != nil {
			return err
		}

		input := service.EntryInput{
			ClientID:    entry.ClientID,
			Date:        entry.Date,
			Start:       entry.StartTime,
			End:         entry.EndTime,
			Project:     entry.Project,
			Description: entry.Description,
		}
		if cmd.Flags().Changed("client") {
			c, _ := cmd.Flags().GetString("client")
			client, err := resolveClient(ctx, c)
			if err != nil {
				return err
			}
			input.ClientID = client.ID
		}
		if cmd.Flags().Changed("date") {
			s, _ := cmd.Flags().GetString("date")
			if input.Date, err = parseDate(s); err != nil {
				return fmt.Errorf("invalid date: %w", err)
			}
		}
		if cmd.Flags().Changed("start") {
			s, _ := cmd.Flags().GetString("start")
			if input.Start, err = domain.ParseClockTime(s); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("end") {
			s, _ := cmd.Flags().GetString("end")
			if input.End, err = domain.ParseClockTime(s); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("project") {
			input.Project, _ = cmd.Flags().GetString("project")
		}
		if cmd.Flags().Changed("description") {
			input.Description, _ = cmd.Flags().GetString("description")
		}

		updated, err := appInstance.EntryService.Update(ctx, entry.ID, input)
		if err != nil {
			return fmt.Errorf("failed to update entry: %w", err)
		}

		fmt.Printf("✓ Updated entry %s: %s %s-%s (%s)\n", updated.ID,
			updated.Date.Format(domain.DateLayout), updated.StartTime, updated.EndTime, hours(updated.Hours))
		return nil
	},
}

var entriesMoveCmd = &cobra.Command{
	Use:   "move [entry-id] [date] [start] [end]",
	Short: "Move a time entry to another day or time",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		input, err := entryInput("", args[1], args[2], args[3])
		if err != nil {
			return err
		}
		entry, err := appInstance.EntryService.Reschedule(ctx, args[0], input.Date, input.Start, input.End)
		if err != nil {
			return fmt.Errorf("failed to move entry: %w", err)
		}

		fmt.Printf("✓ Moved entry to %s %s-%s\n", entry.Date.Format(domain.DateLayout), entry.StartTime, entry.EndTime)
		return nil
	},
}

var entriesDeleteCmd = &cobra.Command{
	Use:   "delete [entry-id]",
	Short: "Delete an uninvoiced time entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if err := appInstance.EntryService.Delete(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}

		fmt.Printf("✓ Deleted entry %s\n", args[0])
		return nil
	},
}

func entryInput(clientID, date, start, end string) (service.EntryInput, error) {
	d, err := parseDate(date)
	if err != nil {
		return service.EntryInput{}, fmt.Errorf("invalid date: %w", err)
	}
	st, err := domain.ParseClockTime(start)
	if err != nil {
		return service.EntryInput{}, err
	}
	en, err := domain.ParseClockTime(end)
	if err != nil {
		return service.EntryInput{}, err
	}
	return service.EntryInput{ClientID: clientID, Date: d, Start: st, End: en}, nil
}

func printEntries(ctx context.Context, entries []*domain.TimeEntry) {
	if len(entries) == 0 {
		fmt.Println("No entries found")
		return
	}

	names := clientNames(ctx)

	fmt.Printf("%-36s  %-10s %-11s %-7s %-18s %-28s %-8s\n", "ID", "Date", "Time", "Hours", "Client", "Description", "Status")
	fmt.Println(strings.Repeat("-", 126))

	var total float64
	for _, e := range entries {
		status := "Unbilled"
		if e.IsLocked() {
			status = "Invoiced"
		}
		fmt.Printf("%-36s  %-10s %-11s %-7s %-18s %-28s %-8s\n",
			e.ID,
			e.Date.Format(domain.DateLayout),
			e.StartTime.String()+"-"+e.EndTime.String(),
			hours(e.Hours),
			truncate(clientName(names, e.ClientID), 18),
			truncate(e.LineDescription(), 28),
			status,
		)
		total += e.Hours
	}

	fmt.Printf("\nTotal: %d entries, %s\n", len(entries), hours(total))
}

func init() {
	entriesCmd.AddCommand(entriesListCmd)
	entriesCmd.AddCommand(entriesUninvoicedCmd)
	entriesCmd.AddCommand(entriesAddCmd)
	entriesCmd.AddCommand(entriesEditCmd)
	entriesCmd.AddCommand(entriesMoveCmd)
	entriesCmd.AddCommand(entriesDeleteCmd)

	// List flags
	entriesListCmd.Flags().String("client", "", "Filter by client (ID or name)")
	entriesListCmd.Flags().String("from", "", "Filter from date (YYYY-MM-DD or 'today')")
	entriesListCmd.Flags().String("to", "", "Filter to date (YYYY-MM-DD or 'today')")
	entriesListCmd.Flags().Bool("uninvoiced", false, "Only show entries not on an invoice")

	entriesUninvoicedCmd.Flags().String("cutoff", "", "Only include entries on or before this date")

	entriesAddCmd.Flags().String("project", "", "Project name")

	// Edit flags
	entriesEditCmd.Flags().String("client", "", "Move to another client")
	entriesEditCmd.Flags().String("date", "", "New date")
	entriesEditCmd.Flags().String("start", "", "New start time (HH:MM)")
	entriesEditCmd.Flags().String("end", "", "New end time (HH:MM)")
	entriesEditCmd.Flags().String("project", "", "New project")
	entriesEditCmd.Flags().String("description", "", "New description")
}
