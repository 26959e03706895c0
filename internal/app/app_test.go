package app

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andy/timeledger/internal/config"
	"github.com/andy/timeledger/internal/db"
	"github.com/andy/timeledger/internal/domain"
	"github.com/andy/timeledger/internal/service"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

func wireTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Database.Path = filepath.Join(dir, "timeledger.db")
	cfg.Invoice.OutboxDir = filepath.Join(dir, "outbox")

	sqlDB, err := sql.Open("sqlite", cfg.Database.Path)
	if err != nil {
		t.Fatal(err)
	}
	database, err := db.Wrap(sqlDB)
	if err != nil {
		t.Fatal(err)
	}
	if err := database.RunMigrations(); err != nil {
		t.Fatal(err)
	}
	a := Wire(cfg, database)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestInvoiceFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	a := wireTestApp(t)

	client := domain.NewClient("Acme Corp", "ap@acme.example.com", decimal.NewFromInt(150))
	if err := a.ClientService.Create(ctx, client); err != nil {
		t.Fatal(err)
	}
	for _, span := range []struct{ date, start, end string }{
		{"2024-01-05", "09:00", "11:30"},
		{"2024-01-10", "13:00", "14:30"},
		{"2024-01-12", "09:00", "10:00"},
	} {
		d, _ := domain.ParseDate(span.date)
		st, _ := domain.ParseClockTime(span.start)
		en, _ := domain.ParseClockTime(span.end)
		if _, err := a.EntryService.Create(ctx, service.EntryInput{
			ClientID: client.ID, Date: d, Start: st, End: en, Project: "Web", Description: "build",
		}); err != nil {
			t.Fatal(err)
		}
	}

	cutoff, _ := domain.ParseDate("2024-01-10")
	selected, err := a.EntryService.SelectUninvoiced(ctx, client.ID, &cutoff)
	if err != nil || len(selected) != 2 {
		t.Fatalf("SelectUninvoiced() = %d entries, %v; want 2", len(selected), err)
	}
	ids := []string{selected[0].ID, selected[1].ID}

	issued, _ := domain.ParseDate("2024-01-15")
	inv, err := a.InvoiceService.Build(ctx, service.BuildRequest{ClientID: client.ID, DateIssued: issued, EntryIDs: ids})
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	if !inv.Total.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("Total = %s, want 600", inv.Total)
	}
	wantNumber := domain.FormatInvoiceNumber(time.Now().Year(), 1)
	if inv.InvoiceNumber != wantNumber {
		t.Fatalf("InvoiceNumber = %s, want %s", inv.InvoiceNumber, wantNumber)
	}

	// entries are locked against the real store too
	if _, err := a.EntryService.Reschedule(ctx, ids[0], issued, domain.NewClockTime(9, 0), domain.NewClockTime(10, 0)); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Reschedule() on invoiced entry error = %v, want validation", err)
	}

	sent, err := a.InvoiceService.Send(ctx, inv.ID, "")
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}
	if sent.Status != domain.InvoiceStatusSent {
		t.Fatalf("Status after send = %s, want sent", sent.Status)
	}
	files, err := os.ReadDir(a.Outbox.Dir())
	if err != nil || len(files) != 2 {
		t.Fatalf("outbox holds %d files (%v), want message and PDF", len(files), err)
	}

	paid, err := a.InvoiceService.MarkPaid(ctx, inv.ID, issued.AddDate(0, 0, 10))
	if err != nil || paid.Status != domain.InvoiceStatusPaid {
		t.Fatalf("MarkPaid() = %v, %v; want paid", paid, err)
	}

	summary, err := a.InvoiceService.Get(ctx, inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Invoice.SentCount != 1 || len(summary.Invoice.EmailHistory) != 1 || !summary.Balance.IsZero() {
		t.Fatalf("reloaded invoice = %+v", summary)
	}

	dash, err := a.ReportService.GetDashboard(ctx, issued)
	if err != nil {
		t.Fatal(err)
	}
	if dash.UnbilledHours != 1 || !dash.TotalPaid.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("dashboard = %+v", dash)
	}
}
