package tui

import (
	"fmt"

	"github.com/andy/timeledger/internal/domain"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// formatHours formats hours as "Xh Ym"
func formatHours(hours float64) string {
	total := int(hours*60 + 0.5)
	h, m := total/60, total%60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// formatMoney formats money as "$X,XXX.XX" with comma separators
func formatMoney(amount decimal.Decimal) string {
	amount = domain.RoundMoney(amount)
	prefix := "$"
	if amount.IsNegative() {
		prefix = "-$"
		amount = amount.Neg()
	}
	whole := amount.Truncate(0)
	cents := amount.Sub(whole).Shift(2).IntPart()
	return fmt.Sprintf("%s%s.%02d", prefix, humanize.Comma(whole.IntPart()), cents)
}

// truncateStr truncates a string to the specified length with ellipsis
func truncateStr(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:max(maxLen, 0)])
	}
	return string(r[:maxLen-3]) + "..."
}
