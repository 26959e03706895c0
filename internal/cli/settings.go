package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/andy/timeledger/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage invoice and email templates",
	Long: `Show and change the company details, email template and PDF layout
used when invoices are rendered and sent.`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show all settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := appInstance.SettingsRepo.Get(context.Background())
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		fields, err := settings.Fields()
		if err != nil {
			return err
		}

		for _, key := range domain.SettingsKeys() {
			value := fields[key]
			if strings.Contains(value, "\n") {
				value = strings.ReplaceAll(value, "\n", `\n`)
			}
			fmt.Printf("%-32s %s\n", key, truncate(value, 60))
		}
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Change one setting. Text fields may use merge fields such as
{{client_name}}, {{invoice_number}}, {{total_amount}} and {{due_date}}.

Example:
  timeledger settings set pdf_header_color "#112233"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		settings, err := appInstance.SettingsRepo.Get(ctx)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		if err := settings.Apply(args[0], args[1]); err != nil {
			return err
		}
		if err := appInstance.SettingsRepo.Save(ctx, settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}

		fmt.Printf("✓ %s updated\n", args[0])
		return nil
	},
}

var settingsExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write settings to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := appInstance.SettingsRepo.Get(context.Background())
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		data, err := yaml.Marshal(settings)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[0], data, 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", args[0], err)
		}

		fmt.Printf("✓ Settings written to %s\n", args[0])
		return nil
	},
}

var settingsImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Load settings from a YAML file",
	Long:  `Load settings from a YAML file. Keys missing from the file keep their current value.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		var values map[string]string
		if err := yaml.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("failed to parse %s: %w", args[0], err)
		}

		settings, err := appInstance.SettingsRepo.Get(ctx)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		for _, key := range domain.SettingsKeys() {
			v, ok := values[key]
			if !ok {
				continue
			}
			if err := settings.Apply(key, v); err != nil {
				return err
			}
		}
		if err := appInstance.SettingsRepo.Save(ctx, settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}

		fmt.Printf("✓ Settings loaded from %s\n", args[0])
		return nil
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmPrompt("Restore all settings to their defaults?") {
			fmt.Println("Cancelled.")
			return nil
		}
		if err := appInstance.SettingsRepo.Save(context.Background(), domain.DefaultSettings()); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}

		fmt.Println("✓ Settings restored to defaults")
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsExportCmd)
	settingsCmd.AddCommand(settingsImportCmd)
	settingsCmd.AddCommand(settingsResetCmd)
}
