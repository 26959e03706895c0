package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andy/timeledger/internal/calendar"
	"github.com/andy/timeledger/internal/domain"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summaries of time, billing and revenue",
}

var reportWeekCmd = &cobra.Command{
	Use:   "week",
	Short: "Hours and value for one week",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		day := domain.TruncateDay(time.Now())
		if s, _ := cmd.Flags().GetString("date"); s != "" {
			var err error
			if day, err = parseDate(s); err != nil {
				return err
			}
		}

		summary, err := appInstance.ReportService.GetWeekSummary(ctx, calendar.WeekStart(day))
		if err != nil {
			return fmt.Errorf("failed to build week summary: %w", err)
		}

		fmt.Printf("Week of %s\n\n", summary.WeekStart.Format("Mon Jan 2, 2006"))
		for _, d := range calendar.WeekDays(summary.WeekStart) {
			h := summary.ByDay[d.Weekday()]
			fmt.Printf("  %-10s %7s  %s\n", d.Format("Mon 01/02"), hours(h), strings.Repeat("█", int(h*2)))
		}
		fmt.Println()

		names := clientNames(ctx)
		for _, id := range summary.SortedClientHours() {
			fmt.Printf("  %-24s %7s\n", truncate(clientName(names, id), 24), hours(summary.ByClient[id]))
		}

		fmt.Printf("\nTotal: %s (%s unbilled), %s\n", hours(summary.TotalHours), hours(summary.UnbilledHours), money(summary.TotalValue))
		return nil
	},
}

var reportClientCmd = &cobra.Command{
	Use:   "client [client]",
	Short: "Hours and value for one client over a date range",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		client, err := resolveClient(ctx, args[0])
		if err != nil {
			return err
		}

		today := domain.TruncateDay(time.Now())
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := today
		if s, _ := cmd.Flags().GetString("from"); s != "" {
			if start, err = parseDate(s); err != nil {
				return fmt.Errorf("invalid --from date: %w", err)
			}
		}
		if s, _ := cmd.Flags().GetString("to"); s != "" {
			if end, err = parseDate(s); err != nil {
				return fmt.Errorf("invalid --to date: %w", err)
			}
		}

		summary, err := appInstance.ReportService.GetClientSummary(ctx, client.ID, start, end)
		if err != nil {
			return fmt.Errorf("failed to build client summary: %w", err)
		}

		fmt.Printf("%s, %s to %s\n", client.Name, start.Format(domain.DateLayout), end.Format(domain.DateLayout))
		fmt.Printf("  Entries:  %s\n", humanize.Comma(int64(len(summary.Entries))))
		fmt.Printf("  Hours:    %s (%s)\n", hours(summary.TotalHours), money(summary.TotalValue))
		fmt.Printf("  Unbilled: %s (%s)\n", hours(summary.UnbilledHours), money(summary.UnbilledValue))
		return nil
	},
}

var reportDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "What is unbilled, outstanding and overdue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		dash, err := appInstance.ReportService.GetDashboard(ctx, domain.TruncateDay(time.Now()))
		if err != nil {
			return fmt.Errorf("failed to build dashboard: %w", err)
		}

		fmt.Printf("Unbilled:    %s (%s)\n", hours(dash.UnbilledHours), money(dash.UnbilledValue))
		fmt.Printf("Drafts:      %s\n", humanize.Comma(int64(dash.DraftCount)))
		fmt.Printf("Outstanding: %s\n", money(dash.OutstandingBalance))
		fmt.Printf("Overdue:     %s across %s invoice(s)\n", money(dash.OverdueBalance), humanize.Comma(int64(dash.OverdueCount)))
		fmt.Printf("Collected:   %s\n", money(dash.TotalPaid))
		return nil
	},
}

var reportRevenueCmd = &cobra.Command{
	Use:   "revenue",
	Short: "Payments received per month",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		year, _ := cmd.Flags().GetInt("year")
		if year == 0 {
			year = time.Now().Year()
		}

		byMonth, err := appInstance.ReportService.GetRevenueByMonth(ctx, year)
		if err != nil {
			return fmt.Errorf("failed to build revenue report: %w", err)
		}

		fmt.Printf("Revenue %d\n\n", year)
		total := decimal.Zero
		for m := time.January; m <= time.December; m++ {
			amount := byMonth[m]
			fmt.Printf("  %-10s %12s\n", m.String(), money(amount))
			total = total.Add(amount)
		}
		fmt.Printf("\n  %-10s %12s\n", "Total", money(total))
		return nil
	},
}

func init() {
	reportCmd.AddCommand(reportWeekCmd)
	reportCmd.AddCommand(reportClientCmd)
	reportCmd.AddCommand(reportDashboardCmd)
	reportCmd.AddCommand(reportRevenueCmd)

	reportWeekCmd.Flags().String("date", "", "Any day in the week (default today)")
	reportClientCmd.Flags().String("from", "", "Start date (default first of this month)")
	reportClientCmd.Flags().String("to", "", "End date (default today)")
	reportRevenueCmd.Flags().Int("year", 0, "Year (default this year)")
}
