package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/andy/timeledger/internal/calendar"
	"github.com/andy/timeledger/internal/tui"
	"github.com/spf13/cobra"
)

var calendarCmd = &cobra.Command{
	Use:     "calendar",
	Aliases: []string{"tui"},
	Short:   "Open the week calendar",
	Long: `Open the interactive week calendar.

Drag on an empty slot to block out time, drag an entry to move it, and click
an entry to edit it. Entries already on an invoice cannot be moved.`,
	RunE: launchCalendar,
}

func init() {
	calendarCmd.Flags().String("week", "", "Show the week containing this date (YYYY-MM-DD)")
	calendarCmd.Flags().String("preset", "", "Visible hours: "+presetNames())
}

func presetNames() string {
	names := make([]string, len(calendar.Presets))
	for i, p := range calendar.Presets {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

func launchCalendar(cmd *cobra.Command, args []string) error {
	cfg := appInstance.Config.Calendar
	grid := calendar.Grid{
		StartHour:  cfg.StartHour,
		EndHour:    cfg.EndHour,
		HourHeight: float64(cfg.HourHeight),
	}

	// Flags only exist on the calendar command; the root command launches with defaults
	var weekFlag, presetFlag string
	if f := cmd.Flags().Lookup("week"); f != nil {
		weekFlag = f.Value.String()
	}
	if f := cmd.Flags().Lookup("preset"); f != nil {
		presetFlag = f.Value.String()
	}

	if presetFlag != "" {
		p, ok := calendar.PresetByName(presetFlag)
		if !ok {
			return fmt.Errorf("unknown preset %q (try %s)", presetFlag, presetNames())
		}
		grid = grid.WithPreset(p)
	}
	if err := grid.Validate(); err != nil {
		return fmt.Errorf("calendar config: %w", err)
	}

	week := time.Now()
	if weekFlag != "" {
		d, err := parseDate(weekFlag)
		if err != nil {
			return err
		}
		week = d
	}

	return tui.Run(appInstance, grid, week)
}
