package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mutecomm/go-sqlcipher/v4"
)

type DB struct {
	*sql.DB
}

// Open opens an encrypted SQLite database with the given password.
// dbPath is the full path to the database file.
func Open(dbPath, password string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	connStr := fmt.Sprintf("%s?_key=%s", dbPath, password)

	sqlDB, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := configure(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &DB{DB: sqlDB}, nil
}

// Wrap adopts an already opened handle (tests open the pure-Go driver this way)
// and applies the same connection pragmas as Open.
func Wrap(sqlDB *sql.DB) (*DB, error) {
	if err := configure(sqlDB); err != nil {
		return nil, err
	}
	return &DB{DB: sqlDB}, nil
}

func configure(sqlDB *sql.DB) error {
	// A single connection keeps PRAGMA foreign_keys in effect for every statement.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// DefaultPath returns ~/.config/timeledger/timeledger.db
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "timeledger", "timeledger.db"), nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// InTx runs fn inside a transaction, committing on success
func (db *DB) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err came from a UNIQUE constraint.
// Both sqlcipher and the pure-Go driver report it with the same text.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Clear deletes one account's rows from the given tables in a single
// transaction. Tables are cleared in the order of Tables(), whatever order
// they are passed in; entries are unlinked from invoices first.
func (db *DB) Clear(ctx context.Context, accountID string, tables ...string) error {
	wanted := make(map[string]bool, len(tables))
	for _, t := range tables {
		wanted[t] = true
	}
	for t := range wanted {
		if !isDataTable(t) {
			return fmt.Errorf("unknown table %q", t)
		}
	}

	return db.InTx(ctx, func(tx *sql.Tx) error {
		if wanted["invoices"] && !wanted["time_entries"] {
			if _, err := tx.ExecContext(ctx,
				"UPDATE time_entries SET invoice_id = NULL WHERE account_id = ? AND invoice_id IS NOT NULL",
				accountID); err != nil {
				return fmt.Errorf("failed to unlock entries: %w", err)
			}
		}
		for _, table := range Tables() {
			if !wanted[table] {
				continue
			}
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE account_id = ?", accountID); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

func isDataTable(name string) bool {
	for _, t := range Tables() {
		if t == name {
			return true
		}
	}
	return false
}
