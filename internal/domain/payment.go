package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is immutable once recorded; it can only be removed.
type Payment struct {
	ID        string
	InvoiceID string
	Date      time.Time
	Amount    decimal.Decimal
	Method    string
	Reference string
	Notes     string
	CreatedAt time.Time
}

// NewPayment creates a payment against an invoice
func NewPayment(invoiceID string, date time.Time, amount decimal.Decimal, method, reference, notes string) *Payment {
	return &Payment{
		ID:        uuid.NewString(),
		InvoiceID: invoiceID,
		Date:      TruncateDay(date),
		Amount:    RoundMoney(amount),
		Method:    strings.TrimSpace(method),
		Reference: strings.TrimSpace(reference),
		Notes:     strings.TrimSpace(notes),
		CreatedAt: time.Now().UTC(),
	}
}

// Validate returns an error if the payment is invalid
func (p *Payment) Validate() error {
	if strings.TrimSpace(p.InvoiceID) == "" {
		return NewValidationError("invoice_id", "invoice is required")
	}
	if p.Date.IsZero() {
		return NewValidationError("date", "payment date is required")
	}
	if !p.Amount.IsPositive() {
		return NewValidationError("amount", "payment amount must be positive")
	}
	return nil
}
