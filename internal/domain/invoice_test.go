package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNextInvoiceNumber(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		year     int
		want     string
	}{
		{name: "first of the year", existing: nil, year: 2024, want: "INV-2024-001"},
		{name: "increments max", existing: []string{"INV-2024-001", "INV-2024-007", "INV-2024-003"}, year: 2024, want: "INV-2024-008"},
		{name: "other years ignored", existing: []string{"INV-2023-041"}, year: 2024, want: "INV-2024-001"},
		{name: "year boundary resets", existing: []string{"INV-2024-118", "INV-2025-002"}, year: 2025, want: "INV-2025-003"},
		{name: "past three digits", existing: []string{"INV-2024-999"}, year: 2024, want: "INV-2024-1000"},
		{name: "garbage suffix skipped", existing: []string{"INV-2024-abc", "INV-2024-002"}, year: 2024, want: "INV-2024-003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextInvoiceNumber(tt.existing, tt.year); got != tt.want {
				t.Fatalf("NextInvoiceNumber() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNextInvoiceNumberStrictlyIncreasing(t *testing.T) {
	var existing []string
	for i := 1; i <= 25; i++ {
		n := NextInvoiceNumber(existing, 2026)
		if want := FormatInvoiceNumber(2026, i); n != want {
			t.Fatalf("sequence %d = %q, want %q", i, n, want)
		}
		existing = append(existing, n)
	}
}

func TestInvoiceCalculateTotal(t *testing.T) {
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	inv := NewInvoice("client-1", day, day.AddDate(0, 0, 30), InvoiceStatusDraft)
	rate := decimal.NewFromInt(150)
	entryID := "entry-1"

	inv.AddLineItem(NewLineItem(day, "Site - Build", 2.5, rate, &entryID))
	inv.AddLineItem(NewLineItem(day.AddDate(0, 0, 5), "Site - Review", 1.5, rate, nil))
	inv.CalculateTotal()

	if !inv.Total.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("Total = %s, want 600", inv.Total)
	}
	if inv.LineItems[1].Position != 1 {
		t.Fatalf("Position = %d, want 1", inv.LineItems[1].Position)
	}
	ids := inv.ConsumedEntryIDs()
	if len(ids) != 1 || ids[0] != entryID {
		t.Fatalf("ConsumedEntryIDs() = %v, want [%s]", ids, entryID)
	}
}

func TestLineAmountRoundsToCents(t *testing.T) {
	got := LineAmount(1.0/3, decimal.NewFromInt(100))
	if got.String() != "33.33" {
		t.Fatalf("LineAmount() = %s, want 33.33", got)
	}
}

func TestInvoiceValidate(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	inv := NewInvoice("client-1", day, day.AddDate(0, 0, -1), InvoiceStatusDraft)
	inv.InvoiceNumber = "INV-2024-001"
	inv.AddLineItem(NewLineItem(day, "x", 1, decimal.NewFromInt(10), nil))
	if err := inv.Validate(); !IsValidation(err) {
		t.Fatalf("Validate() with due before issue = %v, want validation error", err)
	}

	inv.DueDate = day
	inv.Status = InvoiceStatusOverdue
	if err := inv.Validate(); !IsValidation(err) {
		t.Fatalf("Validate() with overdue status = %v, want validation error", err)
	}

	inv.Status = InvoiceStatusSent
	if err := inv.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	inv.LineItems = nil
	if err := inv.Validate(); !IsValidation(err) {
		t.Fatalf("Validate() with no line items = %v, want validation error", err)
	}
}
