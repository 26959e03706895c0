package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andy/timeledger/internal/domain"
	"github.com/shopspring/decimal"
)

func TestInvoiceRepoCreateNumbersAndTotals(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	clients := NewClientRepo(database, testAccount)
	entries := NewEntryRepo(database, testAccount)
	invoices := NewInvoiceRepo(database, testAccount)

	acme := seedClient(t, clients, "acme", "150")
	first := seedEntry(t, entries, acme.ID, "2024-01-05", "09:00", "11:30")
	second := seedEntry(t, entries, acme.ID, "2024-01-10", "13:00", "14:30")

	inv := seedInvoice(t, invoices, acme, 2024, first, second)
	if inv.InvoiceNumber != "INV-2024-001" {
		t.Fatalf("InvoiceNumber = %s, want INV-2024-001", inv.InvoiceNumber)
	}

	got, err := invoices.GetByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetByID() unexpected error: %v", err)
	}
	if !got.Total.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("Total = %s, want 600", got.Total)
	}
	if len(got.LineItems) != 2 {
		t.Fatalf("LineItems = %d, want 2", len(got.LineItems))
	}
	if !got.LineItems[0].Subtotal.Equal(decimal.NewFromInt(375)) {
		t.Fatalf("first subtotal = %s, want 375", got.LineItems[0].Subtotal)
	}
	if got.LineItems[1].TimeEntryID == nil || *got.LineItems[1].TimeEntryID != second.ID {
		t.Fatalf("second line item entry = %v, want %s", got.LineItems[1].TimeEntryID, second.ID)
	}

	next := seedInvoice(t, invoices, acme, 2024)
	if next.InvoiceNumber != "INV-2024-002" {
		t.Fatalf("second InvoiceNumber = %s, want INV-2024-002", next.InvoiceNumber)
	}
	newYear := seedInvoice(t, invoices, acme, 2025)
	if newYear.InvoiceNumber != "INV-2025-001" {
		t.Fatalf("new year InvoiceNumber = %s, want INV-2025-001", newYear.InvoiceNumber)
	}

	byNumber, err := invoices.GetByNumber(ctx, "INV-2024-002")
	if err != nil {
		t.Fatalf("GetByNumber() unexpected error: %v", err)
	}
	if byNumber.ID != next.ID {
		t.Fatalf("GetByNumber() = %s, want %s", byNumber.ID, next.ID)
	}

	numbers, err := invoices.ListNumbers(ctx, 2024)
	if err != nil {
		t.Fatalf("ListNumbers() unexpected error: %v", err)
	}
	if len(numbers) != 2 {
		t.Fatalf("ListNumbers(2024) = %v, want 2 numbers", numbers)
	}
}

func TestInvoiceRepoCreateRejectsInvalid(t *testing.T) {
	database := newTestDB(t)
	clients := NewClientRepo(database, testAccount)
	invoices := NewInvoiceRepo(database, testAccount)

	acme := seedClient(t, clients, "acme", "150")
	issued := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	inv := domain.NewInvoice(acme.ID, issued, issued.AddDate(0, 0, 30), domain.InvoiceStatusDraft)

	err := invoices.Create(context.Background(), inv, 2024)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Create() without line items error = %v, want validation error", err)
	}
	if inv.InvoiceNumber != "" {
		t.Fatalf("InvoiceNumber = %q after failed create, want empty", inv.InvoiceNumber)
	}
}

func TestInvoiceRepoListFilters(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	clients := NewClientRepo(database, testAccount)
	invoices := NewInvoiceRepo(database, testAccount)

	acme := seedClient(t, clients, "acme", "150")
	globex := seedClient(t, clients, "globex", "90")
	a := seedInvoice(t, invoices, acme, 2024)
	seedInvoice(t, invoices, globex, 2024)

	a.Status = domain.InvoiceStatusSent
	if err := invoices.Update(ctx, a); err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}

	byClient, err := invoices.List(ctx, InvoiceFilter{ClientID: acme.ID})
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(byClient) != 1 || byClient[0].ID != a.ID {
		t.Fatalf("List(client) = %d invoices, want only %s", len(byClient), a.ID)
	}
	if len(byClient[0].LineItems) != 1 {
		t.Fatalf("List() did not load line items")
	}

	sent, err := invoices.List(ctx, InvoiceFilter{Status: domain.InvoiceStatusSent})
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(sent) != 1 || sent[0].Status != domain.InvoiceStatusSent {
		t.Fatalf("List(sent) = %d invoices, want 1 sent", len(sent))
	}

	a.Status = domain.InvoiceStatusOverdue
	if err := invoices.Update(ctx, a); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Update() with overdue error = %v, want validation error", err)
	}
}

func TestInvoiceRepoLegacyOverdueReadsAsSent(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	clients := NewClientRepo(database, testAccount)
	invoices := NewInvoiceRepo(database, testAccount)

	acme := seedClient(t, clients, "acme", "150")
	inv := seedInvoice(t, invoices, acme, 2024)

	if _, err := database.Exec(`UPDATE invoices SET status = 'overdue' WHERE id = ?`, inv.ID); err != nil {
		t.Fatalf("force legacy status: %v", err)
	}

	got, err := invoices.GetByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetByID() unexpected error: %v", err)
	}
	if got.Status != domain.InvoiceStatusSent {
		t.Fatalf("Status = %s, want sent", got.Status)
	}
}

func TestInvoiceRepoLineItemEdits(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	clients := NewClientRepo(database, testAccount)
	entries := NewEntryRepo(database, testAccount)
	invoices := NewInvoiceRepo(database, testAccount)

	acme := seedClient(t, clients, "acme", "100")
	a := seedEntry(t, entries, acme.ID, "2024-01-05", "09:00", "11:00")
	b := seedEntry(t, entries, acme.ID, "2024-01-06", "09:00", "10:00")
	inv := seedInvoice(t, invoices, acme, 2024, a, b)
	if err := entries.MarkInvoiced(ctx, []string{a.ID, b.ID}, inv.ID); err != nil {
		t.Fatalf("MarkInvoiced() unexpected error: %v", err)
	}

	item := inv.LineItems[0]
	item.Hours = 3
	item.Subtotal = domain.LineAmount(item.Hours, item.Rate)
	if err := invoices.UpdateLineItem(ctx, inv.ID, item, inv.LineItemsTotal()); err != nil {
		t.Fatalf("UpdateLineItem() unexpected error: %v", err)
	}

	got, err := invoices.GetByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetByID() unexpected error: %v", err)
	}
	if !got.Total.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("Total after edit = %s, want 400", got.Total)
	}

	remaining := got.LineItems[1:]
	got.LineItems = remaining
	if err := invoices.RemoveLineItem(ctx, inv.ID, item.ID, got.LineItemsTotal()); err != nil {
		t.Fatalf("RemoveLineItem() unexpected error: %v", err)
	}

	got, err = invoices.GetByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetByID() unexpected error: %v", err)
	}
	if len(got.LineItems) != 1 || !got.Total.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("after remove: %d items, total %s; want 1 item, total 100", len(got.LineItems), got.Total)
	}

	locked, err := entries.IsLocked(ctx, a.ID)
	if err != nil {
		t.Fatalf("IsLocked() unexpected error: %v", err)
	}
	if locked {
		t.Fatal("entry behind removed line item is still locked")
	}

	if err := invoices.RemoveLineItem(ctx, inv.ID, "missing", decimal.Zero); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("RemoveLineItem(missing) error = %v, want not found", err)
	}
}

func TestInvoiceRepoDeleteCascades(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	clients := NewClientRepo(database, testAccount)
	entries := NewEntryRepo(database, testAccount)
	invoices := NewInvoiceRepo(database, testAccount)
	payments := NewPaymentRepo(database, testAccount)

	acme := seedClient(t, clients, "acme", "150")
	entry := seedEntry(t, entries, acme.ID, "2024-01-05", "09:00", "11:30")
	inv := seedInvoice(t, invoices, acme, 2024, entry)
	if err := entries.MarkInvoiced(ctx, []string{entry.ID}, inv.ID); err != nil {
		t.Fatalf("MarkInvoiced() unexpected error: %v", err)
	}

	payment := domain.NewPayment(inv.ID, mustDate(t, "2024-01-20"), decimal.NewFromInt(100), "ach", "", "")
	inv.Payments = append(inv.Payments, payment)
	inv.PrePaymentStatus = inv.Status
	inv.Status = domain.InvoiceStatusPartiallyPaid
	if err := payments.Add(ctx, payment, inv); err != nil {
		t.Fatalf("Add() unexpected error: %v", err)
	}

	history := &domain.InvoiceEmailHistory{ID: "h1", InvoiceID: inv.ID, SentAt: time.Now(), SentTo: acme.BillingEmail}
	inv.SentCount++
	if err := invoices.RecordSend(ctx, inv, history); err != nil {
		t.Fatalf("RecordSend() unexpected error: %v", err)
	}

	if err := invoices.Delete(ctx, inv.ID); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}

	if _, err := invoices.GetByID(ctx, inv.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByID() after delete error = %v, want not found", err)
	}
	uninvoiced, err := entries.ListUninvoiced(ctx, acme.ID, nil)
	if err != nil {
		t.Fatalf("ListUninvoiced() unexpected error: %v", err)
	}
	if len(uninvoiced) != 1 || uninvoiced[0].ID != entry.ID {
		t.Fatalf("entry not released after invoice delete")
	}

	for _, table := range []string{"invoice_line_items", "payments", "invoice_email_history"} {
		var n int
		if err := database.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Fatalf("%s has %d rows after delete, want 0", table, n)
		}
	}

	if err := invoices.Delete(ctx, inv.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second Delete() error = %v, want not found", err)
	}
}

func TestInvoiceRepoRecordSend(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	clients := NewClientRepo(database, testAccount)
	invoices := NewInvoiceRepo(database, testAccount)

	acme := seedClient(t, clients, "acme", "150")
	inv := seedInvoice(t, invoices, acme, 2024)

	sentAt := time.Date(2024, 1, 16, 10, 0, 0, 0, time.UTC)
	inv.Status = domain.InvoiceStatusSent
	inv.SentCount = 1
	inv.LastSentAt = &sentAt
	history := &domain.InvoiceEmailHistory{
		ID:            "h1",
		InvoiceID:     inv.ID,
		SentAt:        sentAt,
		SentTo:        acme.BillingEmail,
		CCEmails:      []string{"ap@acme.example.com"},
		CustomMessage: "Thanks!",
	}
	if err := invoices.RecordSend(ctx, inv, history); err != nil {
		t.Fatalf("RecordSend() unexpected error: %v", err)
	}

	got, err := invoices.GetByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetByID() unexpected error: %v", err)
	}
	if got.SentCount != 1 || got.LastSentAt == nil || !got.LastSentAt.Equal(sentAt) {
		t.Fatalf("send counters = %d/%v, want 1/%v", got.SentCount, got.LastSentAt, sentAt)
	}
	if len(got.EmailHistory) != 1 || got.EmailHistory[0].CCEmails[0] != "ap@acme.example.com" {
		t.Fatalf("EmailHistory = %+v, want one row with cc", got.EmailHistory)
	}
}
