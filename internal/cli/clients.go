package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/timeledger/internal/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage clients",
	Long:  `List, add, show, and edit clients.`,
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		clients, err := appInstance.ClientService.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list clients: %w", err)
		}

		if len(clients) == 0 {
			fmt.Println("No clients found")
			return nil
		}

		fmt.Printf("%-36s  %-26s %-30s %12s %-8s\n", "ID", "Name", "Billing Email", "Rate", "Color")
		fmt.Println(strings.Repeat("-", 118))

		for _, client := range clients {
			fmt.Printf("%-36s  %-26s %-30s %12s %-8s\n",
				client.ID,
				truncate(client.Name, 26),
				truncate(client.BillingEmail, 30),
				money(client.HourlyRate),
				client.Color,
			)
		}

		fmt.Printf("\nTotal: %d client(s)\n", len(clients))
		return nil
	},
}

var clientsAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a new client",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		rateStr, _ := cmd.Flags().GetString("rate")
		rate, err := parseAmount(rateStr)
		if err != nil {
			return err
		}
		email, _ := cmd.Flags().GetString("email")

		client := domain.NewClient(args[0], email, rate)
		if err := applyClientFlags(cmd.Flags(), client); err != nil {
			return err
		}
		client.Normalize()
		if err := client.Validate(); err != nil {
			return fmt.Errorf("invalid client: %w", err)
		}

		if err := appInstance.ClientService.Create(ctx, client); err != nil {
			return fmt.Errorf("failed to create client: %w", err)
		}

		fmt.Printf("✓ Created client: %s (%s/hr)\n", client.Name, money(client.HourlyRate))
		fmt.Printf("  ID: %s\n", client.ID)
		return nil
	},
}

var clientsShowCmd = &cobra.Command{
	Use:   "show [client]",
	Short: "Show client details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		client, err := resolveClient(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s\n", client.Name)
		fmt.Printf("  ID:      %s\n", client.ID)
		fmt.Printf("  Rate:    %s/hr\n", money(client.HourlyRate))
		fmt.Printf("  Color:   %s\n", client.Color)
		contact := strings.TrimSpace(client.BillingFirstName + " " + client.BillingLastName)
		if contact != "" {
			fmt.Printf("  Contact: %s\n", contact)
		}
		fmt.Printf("  Email:   %s\n", client.BillingEmail)
		if len(client.CCEmails) > 0 {
			fmt.Printf("  CC:      %s\n", strings.Join(client.CCEmails, ", "))
		}
		if client.BillingPhone != "" {
			fmt.Printf("  Phone:   %s\n", client.BillingPhone)
		}
		for i, line := range client.AddressLines() {
			label := ""
			if i == 0 {
				label = "Address:"
			}
			fmt.Printf("  %-8s %s\n", label, line)
		}
		return nil
	},
}

var clientsEditCmd = &cobra.Command{
	Use:   "edit [client]",
	Short: "Edit a client",
	Long: `Edit a client's billing details. Only the flags given are changed.

Changing the hourly rate does not touch invoices that already exist.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		client, err := resolveClient(ctx, args[0])
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("name") {
			client.Name, _ = cmd.Flags().GetString("name")
		}
		if cmd.Flags().Changed("email") {
			client.BillingEmail, _ = cmd.Flags().GetString("email")
		}
		if cmd.Flags().Changed("rate") {
			rateStr, _ := cmd.Flags().GetString("rate")
			if client.HourlyRate, err = parseAmount(rateStr); err != nil {
				return err
			}
		}
		if err := applyClientFlags(cmd.Flags(), client); err != nil {
			return err
		}
		client.Normalize()
		if err := client.Validate(); err != nil {
			return fmt.Errorf("invalid client: %w", err)
		}

		if err := appInstance.ClientService.Update(ctx, client); err != nil {
			return fmt.Errorf("failed to update client: %w", err)
		}

		fmt.Printf("✓ Updated client: %s\n", client.Name)
		return nil
	},
}

// applyClientFlags copies the optional billing flags that were set onto client
func applyClientFlags(flags *pflag.FlagSet, client *domain.Client) error {
	strFields := map[string]*string{
		"first-name": &client.BillingFirstName,
		"last-name":  &client.BillingLastName,
		"phone":      &client.BillingPhone,
		"street":     &client.AddressStreet,
		"line2":      &client.AddressLine2,
		"city":       &client.AddressCity,
		"state":      &client.AddressState,
		"zip":        &client.AddressZip,
		"country":    &client.AddressCountry,
		"color":      &client.Color,
	}
	for name, field := range strFields {
		if flags.Changed(name) {
			v, err := flags.GetString(name)
			if err != nil {
				return err
			}
			*field = v
		}
	}
	if flags.Changed("cc") {
		cc, err := flags.GetStringSlice("cc")
		if err != nil {
			return err
		}
		client.CCEmails = cc
	}
	return nil
}

func addClientFlags(flags *pflag.FlagSet) {
	flags.String("email", "", "Billing email address")
	flags.String("rate", "", "Hourly rate")
	flags.StringSlice("cc", nil, "CC email addresses (comma separated)")
	flags.String("first-name", "", "Billing contact first name")
	flags.String("last-name", "", "Billing contact last name")
	flags.String("phone", "", "Billing phone")
	flags.String("street", "", "Street address")
	flags.String("line2", "", "Address line 2")
	flags.String("city", "", "City")
	flags.String("state", "", "State or region")
	flags.String("zip", "", "Postal code")
	flags.String("country", "", "Country")
	flags.String("color", "", "Calendar color (#rrggbb)")
}

func init() {
	clientsCmd.AddCommand(clientsListCmd)
	clientsCmd.AddCommand(clientsAddCmd)
	clientsCmd.AddCommand(clientsShowCmd)
	clientsCmd.AddCommand(clientsEditCmd)

	addClientFlags(clientsAddCmd.Flags())
	_ = clientsAddCmd.MarkFlagRequired("email")
	_ = clientsAddCmd.MarkFlagRequired("rate")

	addClientFlags(clientsEditCmd.Flags())
	clientsEditCmd.Flags().String("name", "", "New client name")
}
