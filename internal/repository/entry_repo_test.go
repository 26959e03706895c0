package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/andy/timeledger/internal/domain"
)

func TestEntryRepoListUninvoicedOrderAndCutoff(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	clients := NewClientRepo(database, testAccount)
	entries := NewEntryRepo(database, testAccount)

	acme := seedClient(t, clients, "acme", "150")
	other := seedClient(t, clients, "globex", "100")

	late := seedEntry(t, entries, acme.ID, "2024-01-10", "09:00", "10:30")
	early := seedEntry(t, entries, acme.ID, "2024-01-05", "13:00", "15:30")
	sameDay := seedEntry(t, entries, acme.ID, "2024-01-05", "08:00", "09:00")
	seedEntry(t, entries, acme.ID, "2024-01-11", "09:00", "10:00")
	seedEntry(t, entries, other.ID, "2024-01-05", "09:00", "10:00")

	cutoff := mustDate(t, "2024-01-10")
	got, err := entries.ListUninvoiced(ctx, acme.ID, &cutoff)
	if err != nil {
		t.Fatalf("ListUninvoiced() unexpected error: %v", err)
	}

	// same-day ties keep insertion order, not start time
	want := []string{early.ID, sameDay.ID, late.ID}
	if len(got) != len(want) {
		t.Fatalf("ListUninvoiced() returned %d entries, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("entry %d = %s, want %s", i, got[i].ID, id)
		}
	}

	all, err := entries.ListUninvoiced(ctx, acme.ID, nil)
	if err != nil {
		t.Fatalf("ListUninvoiced(nil) unexpected error: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("ListUninvoiced(nil) returned %d entries, want 4", len(all))
	}
}

func TestEntryRepoLockedEntriesRejectChanges(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	clients := NewClientRepo(database, testAccount)
	entries := NewEntryRepo(database, testAccount)
	invoices := NewInvoiceRepo(database, testAccount)

	acme := seedClient(t, clients, "acme", "150")
	entry := seedEntry(t, entries, acme.ID, "2024-01-05", "09:00", "11:30")
	inv := seedInvoice(t, invoices, acme, 2024, entry)

	if err := entries.MarkInvoiced(ctx, []string{entry.ID}, inv.ID); err != nil {
		t.Fatalf("MarkInvoiced() unexpected error: %v", err)
	}
	// a second call for the same invoice is a no-op
	if err := entries.MarkInvoiced(ctx, []string{entry.ID}, inv.ID); err != nil {
		t.Fatalf("MarkInvoiced() retry unexpected error: %v", err)
	}

	locked, err := entries.IsLocked(ctx, entry.ID)
	if err != nil {
		t.Fatalf("IsLocked() unexpected error: %v", err)
	}
	if !locked {
		t.Fatal("IsLocked() = false, want true")
	}

	entry.Description = "changed"
	if err := entries.Update(ctx, entry); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Update() on locked entry error = %v, want validation error", err)
	}
	if err := entries.Delete(ctx, entry.ID); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Delete() on locked entry error = %v, want validation error", err)
	}

	stored, err := entries.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID() unexpected error: %v", err)
	}
	if stored.InvoiceID == nil || *stored.InvoiceID != inv.ID {
		t.Fatalf("InvoiceID = %v, want %s", stored.InvoiceID, inv.ID)
	}
	if stored.Description == "changed" {
		t.Fatal("locked entry was modified")
	}
}

func TestEntryRepoMarkInvoicedRefusesForeignInvoice(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	clients := NewClientRepo(database, testAccount)
	entries := NewEntryRepo(database, testAccount)
	invoices := NewInvoiceRepo(database, testAccount)

	acme := seedClient(t, clients, "acme", "150")
	a := seedEntry(t, entries, acme.ID, "2024-01-05", "09:00", "10:00")
	b := seedEntry(t, entries, acme.ID, "2024-01-06", "09:00", "10:00")
	first := seedInvoice(t, invoices, acme, 2024, a)
	second := seedInvoice(t, invoices, acme, 2024, b)

	if err := entries.MarkInvoiced(ctx, []string{a.ID}, first.ID); err != nil {
		t.Fatalf("MarkInvoiced() unexpected error: %v", err)
	}

	err := entries.MarkInvoiced(ctx, []string{b.ID, a.ID}, second.ID)
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("MarkInvoiced() error = %v, want persistence error", err)
	}

	// the whole batch rolled back
	locked, err := entries.IsLocked(ctx, b.ID)
	if err != nil {
		t.Fatalf("IsLocked() unexpected error: %v", err)
	}
	if locked {
		t.Fatal("entry b locked after failed batch")
	}
}

func TestEntryRepoUpdateAndDelete(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	clients := NewClientRepo(database, testAccount)
	entries := NewEntryRepo(database, testAccount)

	acme := seedClient(t, clients, "acme", "150")
	entry := seedEntry(t, entries, acme.ID, "2024-01-05", "09:00", "10:00")

	if err := entry.Reschedule(mustDate(t, "2024-01-06"), mustClock(t, "13:00"), mustClock(t, "15:15")); err != nil {
		t.Fatalf("Reschedule() unexpected error: %v", err)
	}
	if err := entries.Update(ctx, entry); err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}

	stored, err := entries.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID() unexpected error: %v", err)
	}
	if stored.Hours != 2.25 {
		t.Fatalf("Hours = %v, want 2.25", stored.Hours)
	}
	if got := stored.StartTime.String(); got != "13:00" {
		t.Fatalf("StartTime = %s, want 13:00", got)
	}
	if !stored.Date.Equal(mustDate(t, "2024-01-06")) {
		t.Fatalf("Date = %v, want 2024-01-06", stored.Date)
	}

	if err := entries.Delete(ctx, entry.ID); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if _, err := entries.GetByID(ctx, entry.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByID() after delete error = %v, want not found", err)
	}
	if err := entries.Delete(ctx, entry.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second Delete() error = %v, want not found", err)
	}
}

func TestEntryRepoScopedByAccount(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	clients := NewClientRepo(database, testAccount)
	entries := NewEntryRepo(database, testAccount)
	otherEntries := NewEntryRepo(database, "someone-else")

	acme := seedClient(t, clients, "acme", "150")
	entry := seedEntry(t, entries, acme.ID, "2024-01-05", "09:00", "10:00")

	if _, err := otherEntries.GetByID(ctx, entry.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByID() from other account error = %v, want not found", err)
	}
	list, err := otherEntries.List(ctx, EntryFilter{})
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("List() from other account returned %d entries, want 0", len(list))
	}
}
