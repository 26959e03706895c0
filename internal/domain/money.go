package domain

import (
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day format used for entry, invoice and payment dates
const DateLayout = "2006-01-02"

// RoundMoney rounds an amount to cents
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineAmount returns hours * rate rounded to cents
func LineAmount(hours float64, rate decimal.Decimal) decimal.Decimal {
	return RoundMoney(decimal.NewFromFloat(hours).Mul(rate))
}

// SumMoney adds up the given amounts
func SumMoney(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// FormatMoney renders an amount as "$1234.50"
func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
