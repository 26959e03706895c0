package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andy/timeledger/internal/document"
	"github.com/andy/timeledger/internal/domain"
	"github.com/andy/timeledger/internal/logger"
	"github.com/andy/timeledger/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultDueDays is used when a build request leaves the due date empty
const DefaultDueDays = 30

// ManualItem is a line item that does not come from a time entry
type ManualItem struct {
	Date        time.Time // zero means the issue date
	Description string
	Hours       float64
	Rate        *decimal.Decimal // nil means the client's hourly rate
}

// BuildRequest describes an invoice to generate
type BuildRequest struct {
	ClientID    string
	DateIssued  time.Time // zero means today
	DueDate     time.Time // zero means DateIssued + due days
	EntryIDs    []string
	ManualItems []ManualItem
	Status      domain.InvoiceStatus // draft (default) or sent
}

// LineItemPatch changes selected fields of a line item; nil fields are kept
type LineItemPatch struct {
	Date        *time.Time
	Description *string
	Hours       *float64
	Rate        *decimal.Decimal
}

// InvoiceListFilter narrows List. Status is matched against the effective
// status, so overdue can be asked for directly.
type InvoiceListFilter struct {
	ClientID string
	Status   domain.InvoiceStatus
}

// InvoiceSummary is an invoice together with its read-time figures
type InvoiceSummary struct {
	Invoice *domain.Invoice
	Status  domain.InvoiceStatus // effective status
	Paid    decimal.Decimal
	Balance decimal.Decimal
}

// InvoiceService manages invoice generation and lifecycle
type InvoiceService interface {
	// Build validates the request, creates the numbered invoice with its line
	// items, then marks the consumed entries as invoiced. When only the second
	// step fails the created invoice is returned with a *domain.PartialFailureError.
	Build(ctx context.Context, req BuildRequest) (*domain.Invoice, error)

	// MarkConsumedEntries re-applies the entry marking for an invoice; safe to repeat
	MarkConsumedEntries(ctx context.Context, invoiceID string) error

	Get(ctx context.Context, id string) (*InvoiceSummary, error)
	GetByNumber(ctx context.Context, number string) (*InvoiceSummary, error)
	List(ctx context.Context, filter InvoiceListFilter) ([]*InvoiceSummary, error)

	// MarkSent moves a draft to sent; sent invoices are left alone
	MarkSent(ctx context.Context, id string) (*domain.Invoice, error)

	// MarkPaid records a payment for the outstanding balance on paidDate
	MarkPaid(ctx context.Context, id string, paidDate time.Time) (*domain.Invoice, error)

	UpdateLineItem(ctx context.Context, invoiceID, itemID string, patch LineItemPatch) (*domain.Invoice, error)
	RemoveLineItem(ctx context.Context, invoiceID, itemID string) (*domain.Invoice, error)

	// Delete removes the invoice with its payments and history and releases its entries
	Delete(ctx context.Context, id string) error

	// Send renders and dispatches the invoice email and records the send
	Send(ctx context.Context, id, customMessage string) (*domain.Invoice, error)
}

// InvoiceDeps are the collaborators of the invoice service
type InvoiceDeps struct {
	Invoices repository.InvoiceRepository
	Entries  repository.TimeEntryRepository
	Clients  repository.ClientRepository
	Payments repository.PaymentRepository
	Settings repository.SettingsRepository
	Renderer document.Renderer
	Composer *document.Composer
	Mailer   document.Mailer
	DueDays  int
}

type invoiceService struct {
	invoiceRepo  repository.InvoiceRepository
	entryRepo    repository.TimeEntryRepository
	clientRepo   repository.ClientRepository
	paymentRepo  repository.PaymentRepository
	settingsRepo repository.SettingsRepository
	renderer     document.Renderer
	composer     *document.Composer
	mailer       document.Mailer
	dueDays      int
	now          func() time.Time
	log          zerolog.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(deps InvoiceDeps) InvoiceService {
	dueDays := deps.DueDays
	if dueDays <= 0 {
		dueDays = DefaultDueDays
	}
	composer := deps.Composer
	if composer == nil {
		composer = &document.Composer{}
	}
	return &invoiceService{
		invoiceRepo:  deps.Invoices,
		entryRepo:    deps.Entries,
		clientRepo:   deps.Clients,
		paymentRepo:  deps.Payments,
		settingsRepo: deps.Settings,
		renderer:     deps.Renderer,
		composer:     composer,
		mailer:       deps.Mailer,
		dueDays:      dueDays,
		now:          time.Now,
		log:          logger.WithComponent("invoices"),
	}
}

func (s *invoiceService) today() time.Time {
	return domain.TruncateDay(s.now())
}

func (s *invoiceService) Build(ctx context.Context, req BuildRequest) (*domain.Invoice, error) {
	client, err := s.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = domain.InvoiceStatusDraft
	}
	if status != domain.InvoiceStatusDraft && status != domain.InvoiceStatusSent {
		return nil, domain.NewValidationError("status", "new invoices must be draft or sent, got %q", status)
	}

	issued := req.DateIssued
	if issued.IsZero() {
		issued = s.today()
	}
	due := req.DueDate
	if due.IsZero() {
		due = domain.TruncateDay(issued).AddDate(0, 0, s.dueDays)
	}
	if domain.TruncateDay(due).Before(domain.TruncateDay(issued)) {
		return nil, domain.NewValidationError("due_date", "due date must not be before issue date")
	}

	entries, err := s.selectEntries(ctx, client.ID, req.EntryIDs)
	if err != nil {
		return nil, err
	}

	invoice := domain.NewInvoice(client.ID, issued, due, status)
	for _, e := range entries {
		entryID := e.ID
		invoice.AddLineItem(domain.NewLineItem(e.Date, e.LineDescription(), e.Hours, client.HourlyRate, &entryID))
	}
	for i, m := range req.ManualItems {
		item, err := manualLineItem(m, i, invoice.DateIssued, client.HourlyRate)
		if err != nil {
			return nil, err
		}
		invoice.AddLineItem(item)
	}
	if len(invoice.LineItems) == 0 {
		return nil, domain.NewValidationError("line_items", "invoice must have at least one line item")
	}
	invoice.CalculateTotal()

	if err := s.invoiceRepo.Create(ctx, invoice, s.now().Year()); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	s.log.Info().
		Str("invoice_id", invoice.ID).
		Str("invoice_number", invoice.InvoiceNumber).
		Str("client_id", client.ID).
		Int("line_items", len(invoice.LineItems)).
		Str("total", invoice.Total.StringFixed(2)).
		Msg("invoice created")

	if err := s.entryRepo.MarkInvoiced(ctx, invoice.ConsumedEntryIDs(), invoice.ID); err != nil {
		s.log.Error().Err(err).Str("invoice_id", invoice.ID).Msg("entries not marked invoiced")
		return invoice, &domain.PartialFailureError{Op: "mark entries invoiced", InvoiceID: invoice.ID, Err: err}
	}
	return invoice, nil
}

// selectEntries returns the requested entries in selector order after
// checking that each exists, belongs to the client and is not yet invoiced.
func (s *invoiceService) selectEntries(ctx context.Context, clientID string, ids []string) ([]*domain.TimeEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		if wanted[id] {
			return nil, domain.NewValidationError("entry_ids", "entry %s selected twice", id)
		}
		wanted[id] = true
	}

	available, err := s.entryRepo.ListUninvoiced(ctx, clientID, nil)
	if err != nil {
		return nil, err
	}

	selected := make([]*domain.TimeEntry, 0, len(ids))
	for _, e := range available {
		if wanted[e.ID] {
			selected = append(selected, e)
			delete(wanted, e.ID)
		}
	}

	// Anything left over explains itself through a direct lookup
	for _, id := range ids {
		if !wanted[id] {
			continue
		}
		entry, err := s.entryRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if entry.ClientID != clientID {
			return nil, domain.NewValidationError("entry_ids", "entry %s belongs to another client", id)
		}
		return nil, domain.NewValidationError("entry_ids", "entry %s is already invoiced", id)
	}
	return selected, nil
}

func manualLineItem(m ManualItem, index int, issued time.Time, clientRate decimal.Decimal) (*domain.InvoiceLineItem, error) {
	field := fmt.Sprintf("manual_items[%d]", index)
	if strings.TrimSpace(m.Description) == "" {
		return nil, domain.NewValidationError(field, "description is required")
	}
	if m.Hours <= 0 {
		return nil, domain.NewValidationError(field, "hours must be positive")
	}
	rate := clientRate
	if m.Rate != nil {
		rate = *m.Rate
	}
	if rate.IsNegative() {
		return nil, domain.NewValidationError(field, "rate must not be negative")
	}
	date := m.Date
	if date.IsZero() {
		date = issued
	}
	return domain.NewLineItem(date, strings.TrimSpace(m.Description), m.Hours, rate, nil), nil
}

func (s *invoiceService) MarkConsumedEntries(ctx context.Context, invoiceID string) error {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if err := s.entryRepo.MarkInvoiced(ctx, invoice.ConsumedEntryIDs(), invoice.ID); err != nil {
		return fmt.Errorf("failed to mark entries for %s: %w", invoice.InvoiceNumber, err)
	}
	s.log.Info().Str("invoice_id", invoice.ID).Msg("consumed entries marked invoiced")
	return nil
}

func (s *invoiceService) summarize(invoice *domain.Invoice) *InvoiceSummary {
	return &InvoiceSummary{
		Invoice: invoice,
		Status:  invoice.EffectiveStatus(s.today()),
		Paid:    invoice.TotalPaid(),
		Balance: invoice.Balance(),
	}
}

func (s *invoiceService) Get(ctx context.Context, id string) (*InvoiceSummary, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.summarize(invoice), nil
}

func (s *invoiceService) GetByNumber(ctx context.Context, number string) (*InvoiceSummary, error) {
	invoice, err := s.invoiceRepo.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	if err != nil {
		return nil, err
	}
	return s.summarize(invoice), nil
}

func (s *invoiceService) List(ctx context.Context, filter InvoiceListFilter) ([]*InvoiceSummary, error) {
	stored := repository.InvoiceFilter{ClientID: filter.ClientID, Status: filter.Status}
	if filter.Status == domain.InvoiceStatusOverdue {
		stored.Status = domain.InvoiceStatusSent
	}

	invoices, err := s.invoiceRepo.List(ctx, stored)
	if err != nil {
		return nil, err
	}

	out := make([]*InvoiceSummary, 0, len(invoices))
	for _, inv := range invoices {
		summary := s.summarize(inv)
		if filter.Status != "" && summary.Status != filter.Status {
			continue
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *invoiceService) MarkSent(ctx context.Context, id string) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch invoice.Status {
	case domain.InvoiceStatusSent:
		return invoice, nil
	case domain.InvoiceStatusDraft:
	default:
		return nil, domain.NewValidationError("status", "cannot mark %s invoice as sent", invoice.Status)
	}

	invoice.Status = domain.InvoiceStatusSent
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, err
	}
	s.log.Info().Str("invoice_id", invoice.ID).Msg("invoice marked sent")
	return invoice, nil
}

func (s *invoiceService) MarkPaid(ctx context.Context, id string, paidDate time.Time) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status == domain.InvoiceStatusPaid {
		return invoice, nil
	}
	if paidDate.IsZero() {
		paidDate = s.today()
	}

	balance := domain.RoundMoney(invoice.Balance())
	if !balance.IsPositive() {
		// nothing left to collect, e.g. a zero-total invoice
		if invoice.PrePaymentStatus == "" && invoice.Status != domain.InvoiceStatusPartiallyPaid {
			invoice.PrePaymentStatus = invoice.Status
		}
		invoice.Status = domain.InvoiceStatusPaid
		if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
			return nil, err
		}
		s.log.Info().Str("invoice_id", invoice.ID).Msg("invoice marked paid")
		return invoice, nil
	}

	payment := domain.NewPayment(invoice.ID, paidDate, balance, "", "", "marked paid")
	if err := applyPayment(ctx, s.paymentRepo, invoice, payment); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("invoice_id", invoice.ID).
		Str("amount", balance.StringFixed(2)).
		Msg("invoice marked paid")
	return invoice, nil
}

func (s *invoiceService) editable(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !invoice.CanEdit() {
		return nil, domain.NewValidationError("status", "invoice %s is %s; only drafts can be edited", invoice.InvoiceNumber, invoice.Status)
	}
	return invoice, nil
}

func (s *invoiceService) UpdateLineItem(
	ctx context.Context,
	invoiceID, itemID string,
	patch LineItemPatch,
) (*domain.Invoice, error) {
	invoice, err := s.editable(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	item, ok := invoice.FindLineItem(itemID)
	if !ok {
		return nil, &domain.NotFoundError{Entity: "line item", ID: itemID}
	}

	updated := *item
	if patch.Date != nil {
		updated.Date = domain.TruncateDay(*patch.Date)
	}
	if patch.Description != nil {
		if strings.TrimSpace(*patch.Description) == "" {
			return nil, domain.NewValidationError("description", "description is required")
		}
		updated.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Hours != nil {
		if *patch.Hours <= 0 {
			return nil, domain.NewValidationError("hours", "hours must be positive")
		}
		updated.Hours = *patch.Hours
	}
	if patch.Rate != nil {
		if patch.Rate.IsNegative() {
			return nil, domain.NewValidationError("rate", "rate must not be negative")
		}
		updated.Rate = *patch.Rate
	}
	updated.Subtotal = domain.LineAmount(updated.Hours, updated.Rate)
	*item = updated
	invoice.CalculateTotal()

	if err := s.invoiceRepo.UpdateLineItem(ctx, invoice.ID, item, invoice.Total); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("invoice_id", invoice.ID).
		Str("item_id", item.ID).
		Str("total", invoice.Total.StringFixed(2)).
		Msg("line item updated")
	return invoice, nil
}

func (s *invoiceService) RemoveLineItem(ctx context.Context, invoiceID, itemID string) (*domain.Invoice, error) {
	invoice, err := s.editable(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	remaining := make([]*domain.InvoiceLineItem, 0, len(invoice.LineItems))
	for _, item := range invoice.LineItems {
		if item.ID != itemID {
			remaining = append(remaining, item)
		}
	}
	if len(remaining) == len(invoice.LineItems) {
		return nil, &domain.NotFoundError{Entity: "line item", ID: itemID}
	}
	if len(remaining) == 0 {
		return nil, domain.NewValidationError("line_items", "an invoice needs at least one line item; delete the draft instead")
	}
	invoice.LineItems = remaining
	invoice.CalculateTotal()

	if err := s.invoiceRepo.RemoveLineItem(ctx, invoice.ID, itemID, invoice.Total); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("invoice_id", invoice.ID).
		Str("item_id", itemID).
		Str("total", invoice.Total.StringFixed(2)).
		Msg("line item removed")
	return invoice, nil
}

func (s *invoiceService) Delete(ctx context.Context, id string) error {
	if err := s.invoiceRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("invoice_id", id).Msg("invoice deleted")
	return nil
}

func (s *invoiceService) Send(ctx context.Context, id, customMessage string) (*domain.Invoice, error) {
	if s.mailer == nil {
		return nil, fmt.Errorf("failed to send invoice: no mailer configured")
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	client, err := s.clientRepo.GetByID(ctx, invoice.ClientID)
	if err != nil {
		return nil, err
	}
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	snap := document.Snapshot{Invoice: invoice, Client: client, Settings: settings, Today: s.today()}

	var pdf []byte
	if settings.EmailIncludePdf && s.renderer != nil {
		if pdf, err = s.renderer.Render(snap); err != nil {
			return nil, err
		}
	}
	msg, err := s.composer.Compose(snap, customMessage, pdf)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to send invoice %s: %w", invoice.InvoiceNumber, err)
	}

	sentAt := s.now().UTC()
	history := &domain.InvoiceEmailHistory{
		ID:            uuid.NewString(),
		InvoiceID:     invoice.ID,
		SentAt:        sentAt,
		SentTo:        msg.To,
		CCEmails:      msg.CC,
		CustomMessage: strings.TrimSpace(customMessage),
	}
	invoice.SentCount++
	invoice.LastSentAt = &sentAt
	if invoice.Status == domain.InvoiceStatusDraft {
		invoice.Status = domain.InvoiceStatusSent
	}
	if err := s.invoiceRepo.RecordSend(ctx, invoice, history); err != nil {
		return nil, err
	}
	invoice.EmailHistory = append(invoice.EmailHistory, history)

	s.log.Info().
		Str("invoice_id", invoice.ID).
		Str("to", msg.To).
		Int("sent_count", invoice.SentCount).
		Msg("invoice sent")
	return invoice, nil
}
