package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andy/timeledger/internal/domain"
	"github.com/andy/timeledger/internal/service"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// truncate truncates a string to maxLen characters
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// money formats an amount with thousands separators, e.g. "$1,234.50"
func money(d decimal.Decimal) string {
	d = domain.RoundMoney(d)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole := d.Truncate(0)
	cents := d.Sub(whole).Shift(2).IntPart()
	return fmt.Sprintf("%s$%s.%02d", sign, humanize.Comma(whole.IntPart()), cents)
}

// hours formats a number of hours, e.g. "2.5h"
func hours(h float64) string {
	return humanize.FtoaWithDigits(h, 2) + "h"
}

// parseDate parses YYYY-MM-DD, 'today' or 'yesterday'
func parseDate(s string) (time.Time, error) {
	today := domain.TruncateDay(time.Now())
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}
	t, err := domain.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected format: YYYY-MM-DD, 'today', or 'yesterday'")
	}
	return t, nil
}

// optionalDate returns nil for an empty flag value
func optionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseAmount parses a positive money amount, accepting a leading '$'
func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

// resolveClient resolves a client by ID or (fuzzy) name
func resolveClient(ctx context.Context, idOrName string) (*domain.Client, error) {
	return appInstance.ClientService.Resolve(ctx, idOrName)
}

// resolveInvoice looks an invoice up by number (INV-YYYY-NNN) or ID
func resolveInvoice(ctx context.Context, idOrNumber string) (*service.InvoiceSummary, error) {
	if strings.HasPrefix(strings.ToUpper(idOrNumber), domain.InvoiceNumberPrefix+"-") {
		return appInstance.InvoiceService.GetByNumber(ctx, strings.ToUpper(idOrNumber))
	}
	return appInstance.InvoiceService.Get(ctx, idOrNumber)
}

// clientNames maps client IDs to names for table output
func clientNames(ctx context.Context) map[string]string {
	names := make(map[string]string)
	clients, err := appInstance.ClientService.List(ctx)
	if err != nil {
		return names
	}
	for _, c := range clients {
		names[c.ID] = c.Name
	}
	return names
}

func clientName(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return "Client " + shortID(id)
}

// shortID is the first block of a UUID, enough to tell rows apart
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	} else if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
