package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/andy/timeledger/internal/document"
	"github.com/andy/timeledger/internal/domain"
	"github.com/andy/timeledger/internal/repository"
	"github.com/shopspring/decimal"
)

// memStore backs every fake repository so that cross-table effects (payments
// rewriting invoice status, invoices locking entries) behave like the real store.
type memStore struct {
	clients     map[string]*domain.Client
	clientOrder []string
	entries     map[string]*domain.TimeEntry
	entryOrder  []string
	invoices    map[string]*domain.Invoice
	settings    *domain.UserSettings
	timer       *domain.ActiveTimer

	markErr   error // returned by MarkInvoiced while markFails > 0
	markFails int
}

func newMemStore() *memStore {
	return &memStore{
		clients:  make(map[string]*domain.Client),
		entries:  make(map[string]*domain.TimeEntry),
		invoices: make(map[string]*domain.Invoice),
	}
}

func cloneEntry(e *domain.TimeEntry) *domain.TimeEntry {
	c := *e
	if e.InvoiceID != nil {
		id := *e.InvoiceID
		c.InvoiceID = &id
	}
	return &c
}

func cloneInvoice(inv *domain.Invoice) *domain.Invoice {
	c := *inv
	c.LineItems = make([]*domain.InvoiceLineItem, 0, len(inv.LineItems))
	for _, item := range inv.LineItems {
		ic := *item
		c.LineItems = append(c.LineItems, &ic)
	}
	c.Payments = make([]*domain.Payment, 0, len(inv.Payments))
	for _, p := range inv.Payments {
		pc := *p
		c.Payments = append(c.Payments, &pc)
	}
	c.EmailHistory = append([]*domain.InvoiceEmailHistory(nil), inv.EmailHistory...)
	return &c
}

// clients

type memClients struct{ s *memStore }

func (m memClients) Create(ctx context.Context, client *domain.Client) error {
	if err := client.Validate(); err != nil {
		return err
	}
	c := *client
	m.s.clients[client.ID] = &c
	m.s.clientOrder = append(m.s.clientOrder, client.ID)
	return nil
}

func (m memClients) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	c, ok := m.s.clients[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "client", ID: id}
	}
	cc := *c
	return &cc, nil
}

func (m memClients) List(ctx context.Context) ([]*domain.Client, error) {
	out := make([]*domain.Client, 0, len(m.s.clientOrder))
	for _, id := range m.s.clientOrder {
		c := *m.s.clients[id]
		out = append(out, &c)
	}
	return out, nil
}

func (m memClients) Update(ctx context.Context, client *domain.Client) error {
	if _, ok := m.s.clients[client.ID]; !ok {
		return &domain.NotFoundError{Entity: "client", ID: client.ID}
	}
	c := *client
	m.s.clients[client.ID] = &c
	return nil
}

// entries

type memEntries struct{ s *memStore }

func (m memEntries) Create(ctx context.Context, entry *domain.TimeEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	m.s.entries[entry.ID] = cloneEntry(entry)
	m.s.entryOrder = append(m.s.entryOrder, entry.ID)
	return nil
}

func (m memEntries) GetByID(ctx context.Context, id string) (*domain.TimeEntry, error) {
	e, ok := m.s.entries[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "time entry", ID: id}
	}
	return cloneEntry(e), nil
}

func (m memEntries) Update(ctx context.Context, entry *domain.TimeEntry) error {
	stored, ok := m.s.entries[entry.ID]
	if !ok {
		return &domain.NotFoundError{Entity: "time entry", ID: entry.ID}
	}
	if stored.IsLocked() {
		return domain.NewValidationError("invoice_id", "entry is locked")
	}
	m.s.entries[entry.ID] = cloneEntry(entry)
	return nil
}

func (m memEntries) Delete(ctx context.Context, id string) error {
	if _, ok := m.s.entries[id]; !ok {
		return &domain.NotFoundError{Entity: "time entry", ID: id}
	}
	delete(m.s.entries, id)
	return nil
}

func (m memEntries) ordered() []*domain.TimeEntry {
	out := make([]*domain.TimeEntry, 0, len(m.s.entries))
	for _, id := range m.s.entryOrder {
		if e, ok := m.s.entries[id]; ok {
			out = append(out, cloneEntry(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (m memEntries) List(ctx context.Context, f repository.EntryFilter) ([]*domain.TimeEntry, error) {
	var out []*domain.TimeEntry
	for _, e := range m.ordered() {
		switch {
		case f.ClientID != "" && e.ClientID != f.ClientID,
			f.From != nil && e.Date.Before(*f.From),
			f.To != nil && e.Date.After(*f.To),
			f.UninvoicedOnly && e.InvoiceID != nil,
			f.InvoiceID != "" && (e.InvoiceID == nil || *e.InvoiceID != f.InvoiceID):
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m memEntries) ListUninvoiced(ctx context.Context, clientID string, cutoff *time.Time) ([]*domain.TimeEntry, error) {
	return m.List(ctx, repository.EntryFilter{ClientID: clientID, To: cutoff, UninvoicedOnly: true})
}

func (m memEntries) IsLocked(ctx context.Context, id string) (bool, error) {
	e, err := m.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return e.IsLocked(), nil
}

func (m memEntries) MarkInvoiced(ctx context.Context, ids []string, invoiceID string) error {
	if m.s.markFails > 0 {
		m.s.markFails--
		return m.s.markErr
	}
	for _, id := range ids {
		e, ok := m.s.entries[id]
		if !ok {
			return &domain.NotFoundError{Entity: "time entry", ID: id}
		}
		if e.InvoiceID != nil && *e.InvoiceID != invoiceID {
			return domain.NewValidationError("invoice_id", "entry %s already invoiced", id)
		}
	}
	for _, id := range ids {
		inv := invoiceID
		m.s.entries[id].InvoiceID = &inv
	}
	return nil
}

// invoices

type memInvoices struct{ s *memStore }

func (m memInvoices) Create(ctx context.Context, invoice *domain.Invoice, year int) error {
	numbers, _ := m.ListNumbers(ctx, year)
	invoice.InvoiceNumber = domain.NextInvoiceNumber(numbers, year)
	if err := invoice.Validate(); err != nil {
		invoice.InvoiceNumber = ""
		return err
	}
	m.s.invoices[invoice.ID] = cloneInvoice(invoice)
	return nil
}

func (m memInvoices) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	inv, ok := m.s.invoices[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "invoice", ID: id}
	}
	return cloneInvoice(inv), nil
}

func (m memInvoices) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	for _, inv := range m.s.invoices {
		if inv.InvoiceNumber == number {
			return cloneInvoice(inv), nil
		}
	}
	return nil, &domain.NotFoundError{Entity: "invoice", ID: number}
}

func (m memInvoices) List(ctx context.Context, f repository.InvoiceFilter) ([]*domain.Invoice, error) {
	var out []*domain.Invoice
	for _, inv := range m.s.invoices {
		if f.ClientID != "" && inv.ClientID != f.ClientID {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		out = append(out, cloneInvoice(inv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceNumber > out[j].InvoiceNumber })
	return out, nil
}

func (m memInvoices) ListNumbers(ctx context.Context, year int) ([]string, error) {
	prefix := "INV-" + strconv.Itoa(year) + "-"
	var out []string
	for _, inv := range m.s.invoices {
		if strings.HasPrefix(inv.InvoiceNumber, prefix) {
			out = append(out, inv.InvoiceNumber)
		}
	}
	return out, nil
}

func (m memInvoices) Update(ctx context.Context, invoice *domain.Invoice) error {
	stored, ok := m.s.invoices[invoice.ID]
	if !ok {
		return &domain.NotFoundError{Entity: "invoice", ID: invoice.ID}
	}
	if !invoice.Status.Stored() {
		return domain.NewValidationError("status", "status %q cannot be stored", invoice.Status)
	}
	c := cloneInvoice(invoice)
	c.LineItems, c.Payments, c.EmailHistory = stored.LineItems, stored.Payments, stored.EmailHistory
	m.s.invoices[invoice.ID] = c
	return nil
}

func (m memInvoices) UpdateLineItem(ctx context.Context, invoiceID string, item *domain.InvoiceLineItem, total decimal.Decimal) error {
	inv, ok := m.s.invoices[invoiceID]
	if !ok {
		return &domain.NotFoundError{Entity: "invoice", ID: invoiceID}
	}
	for i, it := range inv.LineItems {
		if it.ID == item.ID {
			c := *item
			inv.LineItems[i] = &c
			inv.Total = total
			return nil
		}
	}
	return &domain.NotFoundError{Entity: "line item", ID: item.ID}
}

func (m memInvoices) RemoveLineItem(ctx context.Context, invoiceID, itemID string, total decimal.Decimal) error {
	inv, ok := m.s.invoices[invoiceID]
	if !ok {
		return &domain.NotFoundError{Entity: "invoice", ID: invoiceID}
	}
	for i, it := range inv.LineItems {
		if it.ID == itemID {
			if it.TimeEntryID != nil {
				if e, ok := m.s.entries[*it.TimeEntryID]; ok {
					e.InvoiceID = nil
				}
			}
			inv.LineItems = append(inv.LineItems[:i], inv.LineItems[i+1:]...)
			inv.Total = total
			return nil
		}
	}
	return &domain.NotFoundError{Entity: "line item", ID: itemID}
}

func (m memInvoices) Delete(ctx context.Context, id string) error {
	if _, ok := m.s.invoices[id]; !ok {
		return &domain.NotFoundError{Entity: "invoice", ID: id}
	}
	for _, e := range m.s.entries {
		if e.InvoiceID != nil && *e.InvoiceID == id {
			e.InvoiceID = nil
		}
	}
	delete(m.s.invoices, id)
	return nil
}

func (m memInvoices) RecordSend(ctx context.Context, invoice *domain.Invoice, history *domain.InvoiceEmailHistory) error {
	if err := m.Update(ctx, invoice); err != nil {
		return err
	}
	stored := m.s.invoices[invoice.ID]
	stored.EmailHistory = append(stored.EmailHistory, history)
	return nil
}

// payments

type memPayments struct{ s *memStore }

func (m memPayments) writeStatus(invoice *domain.Invoice) (*domain.Invoice, error) {
	stored, ok := m.s.invoices[invoice.ID]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "invoice", ID: invoice.ID}
	}
	stored.Status = invoice.Status
	stored.PrePaymentStatus = invoice.PrePaymentStatus
	return stored, nil
}

func (m memPayments) Add(ctx context.Context, payment *domain.Payment, invoice *domain.Invoice) error {
	if err := payment.Validate(); err != nil {
		return err
	}
	stored, err := m.writeStatus(invoice)
	if err != nil {
		return err
	}
	p := *payment
	stored.Payments = append(stored.Payments, &p)
	return nil
}

func (m memPayments) Remove(ctx context.Context, paymentID string, invoice *domain.Invoice) error {
	stored, ok := m.s.invoices[invoice.ID]
	if !ok {
		return &domain.NotFoundError{Entity: "invoice", ID: invoice.ID}
	}
	for i, p := range stored.Payments {
		if p.ID == paymentID {
			stored.Payments = append(stored.Payments[:i], stored.Payments[i+1:]...)
			_, err := m.writeStatus(invoice)
			return err
		}
	}
	return &domain.NotFoundError{Entity: "payment", ID: paymentID}
}

func (m memPayments) ListByInvoice(ctx context.Context, invoiceID string) ([]*domain.Payment, error) {
	inv, ok := m.s.invoices[invoiceID]
	if !ok {
		return nil, nil
	}
	return cloneInvoice(inv).Payments, nil
}

// settings and timer

type memSettings struct{ s *memStore }

func (m memSettings) Get(ctx context.Context) (*domain.UserSettings, error) {
	if m.s.settings == nil {
		return domain.DefaultSettings(), nil
	}
	c := *m.s.settings
	return &c, nil
}

func (m memSettings) Save(ctx context.Context, settings *domain.UserSettings) error {
	c := *settings
	m.s.settings = &c
	return nil
}

type memTimer struct{ s *memStore }

func (m memTimer) Get(ctx context.Context) (*domain.ActiveTimer, error) {
	if m.s.timer == nil {
		return nil, nil
	}
	c := *m.s.timer
	return &c, nil
}

func (m memTimer) Save(ctx context.Context, timer *domain.ActiveTimer) error {
	c := *timer
	m.s.timer = &c
	return nil
}

func (m memTimer) Delete(ctx context.Context) error {
	m.s.timer = nil
	return nil
}

// document collaborators

type stubRenderer struct {
	calls int
	err   error
}

func (r *stubRenderer) Render(snap document.Snapshot) ([]byte, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.3 " + snap.Invoice.InvoiceNumber), nil
}

type recordingMailer struct {
	sent []*document.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg *document.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

var errStoreDown = errors.New("database is locked")

// fixture wires the services over one memStore with a fixed clock
type fixture struct {
	store    *memStore
	clients  ClientService
	entries  EntryService
	invoices *invoiceService
	payments PaymentService
	renderer *stubRenderer
	mailer   *recordingMailer
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := newMemStore()
	f := &fixture{
		store:    s,
		renderer: &stubRenderer{},
		mailer:   &recordingMailer{},
		now:      time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	f.clients = NewClientService(memClients{s})
	f.entries = NewEntryService(memEntries{s}, memClients{s})
	f.payments = NewPaymentService(memInvoices{s}, memPayments{s})
	f.invoices = NewInvoiceService(InvoiceDeps{
		Invoices: memInvoices{s},
		Entries:  memEntries{s},
		Clients:  memClients{s},
		Payments: memPayments{s},
		Settings: memSettings{s},
		Renderer: f.renderer,
		Composer: &document.Composer{FromAddress: "invoices@example.com"},
		Mailer:   f.mailer,
	}).(*invoiceService)
	f.invoices.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) client(t *testing.T, name string, rate int64) *domain.Client {
	t.Helper()
	c := domain.NewClient(name, "billing@"+strings.ToLower(strings.ReplaceAll(name, " ", ""))+".example.com", decimal.NewFromInt(rate))
	if err := f.clients.Create(context.Background(), c); err != nil {
		t.Fatalf("create client: %v", err)
	}
	return c
}

func (f *fixture) entry(t *testing.T, clientID, date, start, end string) *domain.TimeEntry {
	t.Helper()
	d, err := domain.ParseDate(date)
	if err != nil {
		t.Fatal(err)
	}
	st, err := domain.ParseClockTime(start)
	if err != nil {
		t.Fatal(err)
	}
	en, err := domain.ParseClockTime(end)
	if err != nil {
		t.Fatal(err)
	}
	e, err := f.entries.Create(context.Background(), EntryInput{
		ClientID: clientID, Date: d, Start: st, End: en, Project: "Web", Description: "work " + date,
	})
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	return e
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func entryIDs(entries []*domain.TimeEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
