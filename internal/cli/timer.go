package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/timeledger/internal/domain"
	"github.com/spf13/cobra"
)

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Manage the active timer",
	Long:  `Start, stop, pause, resume, or check the status of the active timer.`,
}

var timerStartCmd = &cobra.Command{
	Use:   "start [client] [description]",
	Short: "Start a new timer",
	Long:  `Start a new timer for a client with an optional description.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		client, err := resolveClient(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve client: %w", err)
		}
		description := strings.Join(args[1:], " ")
		project, _ := cmd.Flags().GetString("project")

		if _, err := appInstance.TimerService.Start(ctx, client.ID, project, description); err != nil {
			return fmt.Errorf("failed to start timer: %w", err)
		}

		fmt.Printf("✓ Timer started for %s\n", client.Name)
		if description != "" {
			fmt.Printf("  Description: %s\n", description)
		}
		return nil
	},
}

var timerStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the active timer and save the time entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		entry, err := appInstance.TimerService.Stop(ctx)
		if err != nil {
			return fmt.Errorf("failed to stop timer: %w", err)
		}

		clientLabel := clientName(clientNames(ctx), entry.ClientID)
		fmt.Printf("✓ Timer stopped\n")
		fmt.Printf("  Client: %s\n", clientLabel)
		fmt.Printf("  Entry:  %s %s-%s (%s)\n",
			entry.Date.Format(domain.DateLayout), entry.StartTime, entry.EndTime, hours(entry.Hours))
		fmt.Printf("  ID:     %s\n", entry.ID)
		return nil
	},
}

// timerControl builds a subcommand that applies one state change to the timer
func timerControl(use, short, done string, apply func(context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apply(context.Background()); err != nil {
				return fmt.Errorf("failed to %s timer: %w", use, err)
			}
			fmt.Printf("✓ Timer %s\n", done)
			return nil
		},
	}
}

var timerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of the active timer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		state, err := appInstance.TimerService.GetState(ctx)
		if err != nil {
			return fmt.Errorf("failed to get timer state: %w", err)
		}

		if state == domain.TimerStateIdle {
			fmt.Println("No active timer")
			return nil
		}

		timer, err := appInstance.TimerService.GetActiveTimer(ctx)
		if err != nil {
			return fmt.Errorf("failed to get active timer: %w", err)
		}
		elapsed, err := appInstance.TimerService.ElapsedDuration(ctx)
		if err != nil {
			return err
		}
		value, err := appInstance.TimerService.AccruedValue(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Timer Status: %s\n", state)
		fmt.Printf("  Client: %s\n", clientName(clientNames(ctx), timer.ClientID))
		if timer.Project != "" {
			fmt.Printf("  Project: %s\n", timer.Project)
		}
		if timer.Description != "" {
			fmt.Printf("  Description: %s\n", timer.Description)
		}
		fmt.Printf("  Started: %s\n", timer.StartTime.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("  Elapsed: %s\n", formatDuration(elapsed))
		fmt.Printf("  Current Value: %s\n", money(value))
		return nil
	},
}

func init() {
	timerCmd.AddCommand(timerStartCmd, timerStopCmd, timerStatusCmd)
	// the service is only wired at run time, so resolve it per call
	timerCmd.AddCommand(
		timerControl("pause", "Pause the active timer", "paused", func(ctx context.Context) error {
			return appInstance.TimerService.Pause(ctx)
		}),
		timerControl("resume", "Resume a paused timer", "resumed", func(ctx context.Context) error {
			return appInstance.TimerService.Resume(ctx)
		}),
		timerControl("discard", "Discard the active timer without saving", "discarded", func(ctx context.Context) error {
			return appInstance.TimerService.Discard(ctx)
		}),
	)

	timerStartCmd.Flags().String("project", "", "Project name")
}
