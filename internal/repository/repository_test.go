package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/andy/timeledger/internal/db"
	"github.com/andy/timeledger/internal/domain"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const testAccount = "acct-test"

func newTestDB(t *testing.T) *db.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "timeledger.db"))
	if err != nil {
		t.Fatalf("sql.Open() unexpected error: %v", err)
	}
	database, err := db.Wrap(sqlDB)
	if err != nil {
		t.Fatalf("db.Wrap() unexpected error: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations() unexpected error: %v", err)
	}
	return database
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func mustClock(t *testing.T, s string) domain.ClockTime {
	t.Helper()
	c, err := domain.ParseClockTime(s)
	if err != nil {
		t.Fatalf("ParseClockTime(%q): %v", s, err)
	}
	return c
}

func seedClient(t *testing.T, repo *ClientRepo, name, rate string) *domain.Client {
	t.Helper()
	client := domain.NewClient(name, "billing@"+name+".example.com", decimal.RequireFromString(rate))
	if err := repo.Create(context.Background(), client); err != nil {
		t.Fatalf("create client %s: %v", name, err)
	}
	return client
}

func seedEntry(t *testing.T, repo *EntryRepo, clientID, date, start, end string) *domain.TimeEntry {
	t.Helper()
	entry, err := domain.NewTimeEntry(clientID, mustDate(t, date), mustClock(t, start), mustClock(t, end), "Web", "work on "+date)
	if err != nil {
		t.Fatalf("NewTimeEntry: %v", err)
	}
	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("create entry: %v", err)
	}
	return entry
}

// seedInvoice builds a draft invoice from entries at the client's rate
func seedInvoice(t *testing.T, repo *InvoiceRepo, client *domain.Client, year int, entries ...*domain.TimeEntry) *domain.Invoice {
	t.Helper()
	issued := time.Date(year, 1, 15, 0, 0, 0, 0, time.UTC)
	inv := domain.NewInvoice(client.ID, issued, issued.AddDate(0, 0, 30), domain.InvoiceStatusDraft)
	for _, e := range entries {
		id := e.ID
		inv.AddLineItem(domain.NewLineItem(e.Date, e.LineDescription(), e.Hours, client.HourlyRate, &id))
	}
	if len(entries) == 0 {
		inv.AddLineItem(domain.NewLineItem(issued, "Consulting", 1, client.HourlyRate, nil))
	}
	inv.CalculateTotal()
	if err := repo.Create(context.Background(), inv, year); err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	return inv
}
