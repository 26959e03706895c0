package repository

import (
	"context"
	"time"

	"github.com/andy/timeledger/internal/domain"
	"github.com/shopspring/decimal"
)

// ClientRepository manages client persistence. Clients cannot be deleted.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	List(ctx context.Context) ([]*domain.Client, error)
	Update(ctx context.Context, client *domain.Client) error
}

// EntryFilter narrows TimeEntryRepository.List. Zero values match everything.
type EntryFilter struct {
	ClientID       string
	From           *time.Time // inclusive
	To             *time.Time // inclusive
	InvoiceID      string
	UninvoicedOnly bool
}

// TimeEntryRepository manages time entry persistence with invoice locking
type TimeEntryRepository interface {
	Create(ctx context.Context, entry *domain.TimeEntry) error
	GetByID(ctx context.Context, id string) (*domain.TimeEntry, error)
	Update(ctx context.Context, entry *domain.TimeEntry) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter EntryFilter) ([]*domain.TimeEntry, error)
	// ListUninvoiced returns the client's unbilled entries dated on or before
	// cutoff (when given), ascending by date then insertion order.
	ListUninvoiced(ctx context.Context, clientID string, cutoff *time.Time) ([]*domain.TimeEntry, error)
	IsLocked(ctx context.Context, id string) (bool, error)
	// MarkInvoiced attaches entries to an invoice in one transaction. Entries
	// already attached to the same invoice are left as they are.
	MarkInvoiced(ctx context.Context, entryIDs []string, invoiceID string) error
}

// InvoiceFilter narrows InvoiceRepository.List
type InvoiceFilter struct {
	ClientID string
	Status   domain.InvoiceStatus // stored status only
}

// InvoiceRepository manages invoices together with their line items and email history
type InvoiceRepository interface {
	// Create assigns the next invoice number for year and inserts the invoice
	// with its line items in one transaction, retrying when another writer
	// claimed the same number.
	Create(ctx context.Context, invoice *domain.Invoice, year int) error
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*domain.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]*domain.Invoice, error)
	ListNumbers(ctx context.Context, year int) ([]string, error)
	// Update writes the invoice header fields (dates, status, totals, send counters)
	Update(ctx context.Context, invoice *domain.Invoice) error
	UpdateLineItem(ctx context.Context, invoiceID string, item *domain.InvoiceLineItem, total decimal.Decimal) error
	// RemoveLineItem deletes the item, un-invoices its time entry and stores the new total
	RemoveLineItem(ctx context.Context, invoiceID, itemID string, total decimal.Decimal) error
	// Delete removes the invoice and everything it owns, clearing invoice_id on its entries
	Delete(ctx context.Context, id string) error
	// RecordSend appends an email history row and bumps the send counters
	RecordSend(ctx context.Context, invoice *domain.Invoice, history *domain.InvoiceEmailHistory) error
}

// PaymentRepository manages payments. Each mutation stores the reconciled
// invoice status in the same transaction.
type PaymentRepository interface {
	Add(ctx context.Context, payment *domain.Payment, invoice *domain.Invoice) error
	Remove(ctx context.Context, paymentID string, invoice *domain.Invoice) error
	ListByInvoice(ctx context.Context, invoiceID string) ([]*domain.Payment, error)
}

// SettingsRepository manages the per-account settings singleton
type SettingsRepository interface {
	// Get returns the saved settings, or defaults when none were saved
	Get(ctx context.Context) (*domain.UserSettings, error)
	Save(ctx context.Context, settings *domain.UserSettings) error
}

// TimerRepository manages the active timer state (singleton per account)
type TimerRepository interface {
	Get(ctx context.Context) (*domain.ActiveTimer, error) // Returns nil if no active timer
	Save(ctx context.Context, timer *domain.ActiveTimer) error
	Delete(ctx context.Context) error
}
