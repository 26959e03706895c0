package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	database, err := Wrap(sqlDB)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestRunMigrationsIdempotent(t *testing.T) {
	database := openTestDB(t)

	if err := database.RunMigrations(); err != nil {
		t.Fatalf("first RunMigrations: %v", err)
	}
	if err := database.RunMigrations(); err != nil {
		t.Fatalf("second RunMigrations: %v", err)
	}

	var version int
	if err := database.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		t.Fatalf("read version: %v", err)
	}
	if version != len(migrations) {
		t.Fatalf("schema version = %d, want %d", version, len(migrations))
	}

	for _, table := range Tables() {
		var n int
		if err := database.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}

func TestInvoiceNumberUniquePerAccount(t *testing.T) {
	database := openTestDB(t)
	if err := database.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}

	mustExec := func(q string, args ...any) error {
		_, err := database.Exec(q, args...)
		return err
	}
	if err := mustExec(`INSERT INTO clients (id, account_id, name, billing_email, hourly_rate, created_at, updated_at)
		VALUES ('c1', 'a1', 'Acme', 'b@acme.com', '150', 'now', 'now')`); err != nil {
		t.Fatalf("insert client: %v", err)
	}

	insertInvoice := `INSERT INTO invoices (id, account_id, invoice_number, client_id, date_issued, due_date, created_at, updated_at)
		VALUES (?, ?, 'INV-2024-001', 'c1', '2024-01-01', '2024-01-31', 'now', 'now')`
	if err := mustExec(insertInvoice, "i1", "a1"); err != nil {
		t.Fatalf("insert invoice: %v", err)
	}

	err := mustExec(insertInvoice, "i2", "a1")
	if !IsUniqueViolation(err) {
		t.Fatalf("duplicate number error = %v, want unique violation", err)
	}

	if err := mustExec(insertInvoice, "i3", "a2"); err != nil {
		t.Fatalf("same number in another account: %v", err)
	}
}

func TestInTxRollsBack(t *testing.T) {
	database := openTestDB(t)
	if err := database.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}

	boom := errors.New("boom")
	err := database.InTx(context.Background(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO user_settings (account_id, document, updated_at) VALUES ('a1', '{}', 'now')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx() error = %v, want boom", err)
	}

	var n int
	if err := database.QueryRow("SELECT COUNT(*) FROM user_settings").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("rows after rollback = %d, want 0", n)
	}
}

func TestClearScopesByAccount(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	if err := database.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}

	for _, acct := range []string{"a1", "a2"} {
		stmts := []string{
			`INSERT INTO clients (id, account_id, name, billing_email, hourly_rate, created_at, updated_at)
				VALUES ('c-` + acct + `', '` + acct + `', 'Acme', 'b@acme.com', '150', 'now', 'now')`,
			`INSERT INTO invoices (id, account_id, invoice_number, client_id, date_issued, due_date, created_at, updated_at)
				VALUES ('i-` + acct + `', '` + acct + `', 'INV-2024-001', 'c-` + acct + `', '2024-01-01', '2024-01-31', 'now', 'now')`,
			`INSERT INTO time_entries (id, account_id, client_id, date, start_time, end_time, hours, invoice_id, created_at, updated_at)
				VALUES ('e-` + acct + `', '` + acct + `', 'c-` + acct + `', '2024-01-01', '09:00', '10:00', 1, 'i-` + acct + `', 'now', 'now')`,
		}
		for _, q := range stmts {
			if _, err := database.Exec(q); err != nil {
				t.Fatalf("seed %s: %v", acct, err)
			}
		}
	}

	if err := database.Clear(ctx, "a1", "invoices", "invoice_line_items", "payments", "invoice_email_history"); err != nil {
		t.Fatalf("Clear() unexpected error: %v", err)
	}

	count := func(q string) int {
		var n int
		if err := database.QueryRow(q).Scan(&n); err != nil {
			t.Fatalf("count: %v", err)
		}
		return n
	}
	if n := count("SELECT COUNT(*) FROM invoices WHERE account_id = 'a1'"); n != 0 {
		t.Errorf("a1 invoices = %d, want 0", n)
	}
	if n := count("SELECT COUNT(*) FROM invoices WHERE account_id = 'a2'"); n != 1 {
		t.Errorf("a2 invoices = %d, want 1", n)
	}
	if n := count("SELECT COUNT(*) FROM time_entries WHERE account_id = 'a1' AND invoice_id IS NULL"); n != 1 {
		t.Errorf("a1 unlocked entries = %d, want 1", n)
	}

	if err := database.Clear(ctx, "a1", "bogus"); err == nil {
		t.Fatal("Clear() accepted an unknown table")
	}
}
