package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/andy/timeledger/internal/domain"
	"github.com/shopspring/decimal"
)

func TestPaymentRepoAddRemoveWritesStatus(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	clients := NewClientRepo(database, testAccount)
	invoices := NewInvoiceRepo(database, testAccount)
	payments := NewPaymentRepo(database, testAccount)

	acme := seedClient(t, clients, "acme", "150")
	inv := seedInvoice(t, invoices, acme, 2024)

	first := domain.NewPayment(inv.ID, mustDate(t, "2024-02-01"), decimal.NewFromInt(50), "check", "1001", "")
	second := domain.NewPayment(inv.ID, mustDate(t, "2024-01-25"), decimal.NewFromInt(25), "ach", "", "")

	inv.PrePaymentStatus = domain.InvoiceStatusSent
	inv.Status = domain.InvoiceStatusPartiallyPaid
	if err := payments.Add(ctx, first, inv); err != nil {
		t.Fatalf("Add() unexpected error: %v", err)
	}
	if err := payments.Add(ctx, second, inv); err != nil {
		t.Fatalf("Add() unexpected error: %v", err)
	}

	list, err := payments.ListByInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("ListByInvoice() unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("ListByInvoice() not ordered by date")
	}

	stored, err := invoices.GetByID(ctx, inv.ID)
	if err != nil {
		t.Fatalf("GetByID() unexpected error: %v", err)
	}
	if stored.Status != domain.InvoiceStatusPartiallyPaid || stored.PrePaymentStatus != domain.InvoiceStatusSent {
		t.Fatalf("status = %s/%s, want partially_paid/sent", stored.Status, stored.PrePaymentStatus)
	}
	if !stored.TotalPaid().Equal(decimal.NewFromInt(75)) {
		t.Fatalf("TotalPaid() = %s, want 75", stored.TotalPaid())
	}

	inv.Status = domain.InvoiceStatusSent
	if err := payments.Remove(ctx, first.ID, inv); err != nil {
		t.Fatalf("Remove() unexpected error: %v", err)
	}
	if err := payments.Remove(ctx, first.ID, inv); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second Remove() error = %v, want not found", err)
	}
}

func TestPaymentRepoAddRejectsNonPositive(t *testing.T) {
	database := newTestDB(t)
	clients := NewClientRepo(database, testAccount)
	invoices := NewInvoiceRepo(database, testAccount)
	payments := NewPaymentRepo(database, testAccount)

	acme := seedClient(t, clients, "acme", "150")
	inv := seedInvoice(t, invoices, acme, 2024)

	zero := domain.NewPayment(inv.ID, mustDate(t, "2024-02-01"), decimal.Zero, "", "", "")
	if err := payments.Add(context.Background(), zero, inv); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Add(0) error = %v, want validation error", err)
	}
}
