package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusSent          InvoiceStatus = "sent"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	// InvoiceStatusOverdue is derived at read time and never stored
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// InvoiceNumberPrefix is prepended to every generated invoice number
const InvoiceNumberPrefix = "INV"

// ParseInvoiceStatus accepts any status name, including the derived overdue
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	switch st := InvoiceStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid,
		InvoiceStatusPartiallyPaid, InvoiceStatusOverdue:
		return st, nil
	}
	return "", NewValidationError("status", "unknown invoice status %q", s)
}

// Stored reports whether the status may be persisted
func (s InvoiceStatus) Stored() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusPartiallyPaid:
		return true
	}
	return false
}

type Invoice struct {
	ID            string
	InvoiceNumber string
	ClientID      string
	DateIssued    time.Time
	DueDate       time.Time
	Status        InvoiceStatus
	Total         decimal.Decimal
	LastSentAt    *time.Time
	SentCount     int
	// PrePaymentStatus is the stored status held before the first payment was
	// recorded; empty when no payment has ever been applied.
	PrePaymentStatus InvoiceStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Related data (populated by repository)
	LineItems    []*InvoiceLineItem
	Payments     []*Payment
	EmailHistory []*InvoiceEmailHistory
}

type InvoiceLineItem struct {
	ID          string
	InvoiceID   string
	Position    int
	Date        time.Time
	Description string
	Hours       float64
	Rate        decimal.Decimal
	Subtotal    decimal.Decimal
	TimeEntryID *string // nil for manually added rows
}

type InvoiceEmailHistory struct {
	ID            string
	InvoiceID     string
	SentAt        time.Time
	SentTo        string
	CCEmails      []string
	CustomMessage string
}

// NewInvoice creates an invoice with no line items
func NewInvoice(clientID string, dateIssued, dueDate time.Time, status InvoiceStatus) *Invoice {
	now := time.Now().UTC()
	return &Invoice{
		ID:         uuid.NewString(),
		ClientID:   clientID,
		DateIssued: TruncateDay(dateIssued),
		DueDate:    TruncateDay(dueDate),
		Status:     status,
		Total:      decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
		LineItems:  make([]*InvoiceLineItem, 0),
	}
}

// NewLineItem builds a line item with its subtotal computed from hours and rate
func NewLineItem(date time.Time, description string, hours float64, rate decimal.Decimal, entryID *string) *InvoiceLineItem {
	return &InvoiceLineItem{
		ID:          uuid.NewString(),
		Date:        TruncateDay(date),
		Description: description,
		Hours:       hours,
		Rate:        rate,
		Subtotal:    LineAmount(hours, rate),
		TimeEntryID: entryID,
	}
}

// AddLineItem appends an item and assigns its position
func (i *Invoice) AddLineItem(item *InvoiceLineItem) {
	item.InvoiceID = i.ID
	item.Position = len(i.LineItems)
	i.LineItems = append(i.LineItems, item)
}

// CanEdit returns true if line items may still change
func (i *Invoice) CanEdit() bool {
	return i.Status == InvoiceStatusDraft
}

// CalculateTotal recomputes Total as the sum of line item subtotals
func (i *Invoice) CalculateTotal() {
	total := decimal.Zero
	for _, item := range i.LineItems {
		total = total.Add(item.Subtotal)
	}
	i.Total = RoundMoney(total)
	i.UpdatedAt = time.Now().UTC()
}

// LineItemsTotal sums the line item subtotals without touching Total
func (i *Invoice) LineItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range i.LineItems {
		total = total.Add(item.Subtotal)
	}
	return RoundMoney(total)
}

// ConsumedEntryIDs returns the time entry ids referenced by line items, in order
func (i *Invoice) ConsumedEntryIDs() []string {
	ids := make([]string, 0, len(i.LineItems))
	for _, item := range i.LineItems {
		if item.TimeEntryID != nil {
			ids = append(ids, *item.TimeEntryID)
		}
	}
	return ids
}

// TotalPaid sums the recorded payments
func (i *Invoice) TotalPaid() decimal.Decimal {
	paid := decimal.Zero
	for _, p := range i.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

// Balance is the amount still owed
func (i *Invoice) Balance() decimal.Decimal {
	return i.Total.Sub(i.TotalPaid())
}

// EffectiveStatus overlays the derived overdue state on the stored status
func (i *Invoice) EffectiveStatus(today time.Time) InvoiceStatus {
	return EffectiveStatus(i.Status, i.DueDate, today)
}

// FindLineItem returns the line item with the given id
func (i *Invoice) FindLineItem(id string) (*InvoiceLineItem, bool) {
	for _, item := range i.LineItems {
		if item.ID == id {
			return item, true
		}
	}
	return nil, false
}

// Validate returns an error if the invoice is invalid
func (i *Invoice) Validate() error {
	if i.InvoiceNumber == "" {
		return NewValidationError("invoice_number", "invoice number is required")
	}
	if strings.TrimSpace(i.ClientID) == "" {
		return NewValidationError("client_id", "client is required")
	}
	if i.DateIssued.IsZero() {
		return NewValidationError("date_issued", "issue date is required")
	}
	if i.DueDate.IsZero() {
		return NewValidationError("due_date", "due date is required")
	}
	if i.DueDate.Before(i.DateIssued) {
		return NewValidationError("due_date", "due date must not be before issue date")
	}
	if !i.Status.Stored() {
		return NewValidationError("status", "status %q cannot be stored", i.Status)
	}
	if len(i.LineItems) == 0 {
		return NewValidationError("line_items", "invoice must have at least one line item")
	}
	return nil
}

// FormatInvoiceNumber renders INV-{year}-{seq:03d}
func FormatInvoiceNumber(year, seq int) string {
	return fmt.Sprintf("%s-%d-%03d", InvoiceNumberPrefix, year, seq)
}

// NextInvoiceNumber scans existing numbers carrying the given year's prefix,
// takes the highest numeric suffix and returns the number after it. Numbers
// from other years or with unparseable suffixes are ignored.
func NextInvoiceNumber(existing []string, year int) string {
	prefix := fmt.Sprintf("%s-%d-", InvoiceNumberPrefix, year)
	maxSeq := 0
	for _, n := range existing {
		if !strings.HasPrefix(n, prefix) {
			continue
		}
		var seq int
		if _, err := fmt.Sscanf(strings.TrimPrefix(n, prefix), "%d", &seq); err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return FormatInvoiceNumber(year, maxSeq+1)
}
