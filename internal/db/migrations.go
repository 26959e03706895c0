package db

import (
	"fmt"
)

type migration struct {
	version int
	sql     string
}

// Every table carries account_id; repositories scope all statements by it.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE clients (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    name TEXT NOT NULL,
    billing_first_name TEXT NOT NULL DEFAULT '',
    billing_last_name TEXT NOT NULL DEFAULT '',
    billing_phone TEXT NOT NULL DEFAULT '',
    billing_email TEXT NOT NULL,
    cc_emails TEXT NOT NULL DEFAULT '',
    address_street TEXT NOT NULL DEFAULT '',
    address_line2 TEXT NOT NULL DEFAULT '',
    address_city TEXT NOT NULL DEFAULT '',
    address_state TEXT NOT NULL DEFAULT '',
    address_zip TEXT NOT NULL DEFAULT '',
    address_country TEXT NOT NULL DEFAULT '',
    hourly_rate TEXT NOT NULL,
    color TEXT NOT NULL DEFAULT '#6b7280',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE invoices (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    invoice_number TEXT NOT NULL,
    client_id TEXT NOT NULL REFERENCES clients(id),
    date_issued TEXT NOT NULL,
    due_date TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft',
    pre_payment_status TEXT NOT NULL DEFAULT '',
    total TEXT NOT NULL DEFAULT '0',
    last_sent_at TEXT,
    sent_count INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE (account_id, invoice_number)
);

CREATE TABLE time_entries (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    client_id TEXT NOT NULL REFERENCES clients(id),
    date TEXT NOT NULL,
    start_time TEXT NOT NULL,
    end_time TEXT NOT NULL,
    project TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    hours REAL NOT NULL,
    invoice_id TEXT REFERENCES invoices(id),
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE invoice_line_items (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    invoice_id TEXT NOT NULL REFERENCES invoices(id),
    position INTEGER NOT NULL,
    date TEXT NOT NULL,
    description TEXT NOT NULL,
    hours REAL NOT NULL,
    rate TEXT NOT NULL,
    subtotal TEXT NOT NULL,
    time_entry_id TEXT
);

CREATE TABLE invoice_email_history (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    invoice_id TEXT NOT NULL REFERENCES invoices(id),
    sent_at TEXT NOT NULL,
    sent_to TEXT NOT NULL,
    cc_emails TEXT NOT NULL DEFAULT '',
    custom_message TEXT NOT NULL DEFAULT ''
);

CREATE TABLE payments (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL,
    invoice_id TEXT NOT NULL REFERENCES invoices(id),
    date TEXT NOT NULL,
    amount TEXT NOT NULL,
    method TEXT NOT NULL DEFAULT '',
    reference TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);

CREATE TABLE user_settings (
    account_id TEXT PRIMARY KEY,
    document TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX idx_clients_account ON clients(account_id, name);
CREATE INDEX idx_entries_date ON time_entries(account_id, date);
CREATE INDEX idx_entries_uninvoiced ON time_entries(account_id, client_id, date) WHERE invoice_id IS NULL;
CREATE INDEX idx_entries_invoice ON time_entries(invoice_id);
CREATE INDEX idx_line_items_invoice ON invoice_line_items(invoice_id, position);
CREATE INDEX idx_payments_invoice ON payments(invoice_id);
CREATE INDEX idx_email_history_invoice ON invoice_email_history(invoice_id);
CREATE INDEX idx_invoices_client ON invoices(account_id, client_id);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE active_timer (
    account_id TEXT PRIMARY KEY,
    client_id TEXT NOT NULL REFERENCES clients(id),
    project TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    start_time TEXT NOT NULL,
    paused_at TEXT,
    total_paused_seconds INTEGER NOT NULL DEFAULT 0
);
`,
	},
}

// RunMigrations applies all pending database migrations
func (db *DB) RunMigrations() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		if _, err := tx.Exec(m.sql); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}

	return nil
}

// Tables lists the data tables in the order they can be cleared without
// violating foreign keys.
func Tables() []string {
	return []string{
		"active_timer",
		"invoice_line_items",
		"invoice_email_history",
		"payments",
		"time_entries",
		"invoices",
		"clients",
		"user_settings",
	}
}
