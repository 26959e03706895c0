package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andy/timeledger/internal/db"
	"github.com/andy/timeledger/internal/domain"
)

// EntryRepo is a SQLite implementation of TimeEntryRepository
type EntryRepo struct {
	db        *db.DB
	accountID string
}

// NewEntryRepo creates a new EntryRepo scoped to one account
func NewEntryRepo(database *db.DB, accountID string) *EntryRepo {
	return &EntryRepo{db: database, accountID: accountID}
}

// Create inserts a new time entry into the database
func (r *EntryRepo) Create(ctx context.Context, entry *domain.TimeEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO time_entries (` + entryColumns + `, account_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.ClientID,
		formatDate(entry.Date),
		entry.StartTime.String(),
		entry.EndTime.String(),
		entry.Project,
		entry.Description,
		entry.Hours,
		nullable(entry.InvoiceID),
		formatTime(entry.CreatedAt),
		formatTime(entry.UpdatedAt),
		r.accountID,
	)
	return persistErr("create time entry", err)
}

// GetByID retrieves a time entry by ID
func (r *EntryRepo) GetByID(ctx context.Context, id string) (*domain.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE id = ? AND account_id = ?`

	entry, err := scanTimeEntry(r.db.QueryRowContext(ctx, query, id, r.accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("time entry", id)
		}
		return nil, persistErr("get time entry", err)
	}
	return entry, nil
}

// Update writes date, times, client and text fields of an uninvoiced entry
func (r *EntryRepo) Update(ctx context.Context, entry *domain.TimeEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	locked, err := r.IsLocked(ctx, entry.ID)
	if err != nil {
		return err
	}
	if locked {
		return domain.NewValidationError("invoice_id", "time entry %s is locked by an invoice", entry.ID)
	}

	entry.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE time_entries
		SET client_id = ?, date = ?, start_time = ?, end_time = ?, project = ?,
		    description = ?, hours = ?, updated_at = ?
		WHERE id = ? AND account_id = ? AND invoice_id IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.ClientID,
		formatDate(entry.Date),
		entry.StartTime.String(),
		entry.EndTime.String(),
		entry.Project,
		entry.Description,
		entry.Hours,
		formatTime(entry.UpdatedAt),
		entry.ID,
		r.accountID,
	)
	if err != nil {
		return persistErr("update time entry", err)
	}
	return persistErr("update time entry", checkAffected(result, "time entry", entry.ID))
}

// Delete permanently removes an uninvoiced entry
func (r *EntryRepo) Delete(ctx context.Context, id string) error {
	locked, err := r.IsLocked(ctx, id)
	if err != nil {
		return err
	}
	if locked {
		return domain.NewValidationError("invoice_id", "time entry %s is locked by an invoice", id)
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM time_entries WHERE id = ? AND account_id = ? AND invoice_id IS NULL`,
		id, r.accountID,
	)
	if err != nil {
		return persistErr("delete time entry", err)
	}
	return persistErr("delete time entry", checkAffected(result, "time entry", id))
}

// List retrieves time entries with optional filters, ascending by date and start time
func (r *EntryRepo) List(ctx context.Context, filter EntryFilter) ([]*domain.TimeEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE account_id = ?`
	args := []any{r.accountID}

	if filter.ClientID != "" {
		query += " AND client_id = ?"
		args = append(args, filter.ClientID)
	}
	if filter.From != nil {
		query += " AND date >= ?"
		args = append(args, formatDate(*filter.From))
	}
	if filter.To != nil {
		query += " AND date <= ?"
		args = append(args, formatDate(*filter.To))
	}
	if filter.InvoiceID != "" {
		query += " AND invoice_id = ?"
		args = append(args, filter.InvoiceID)
	}
	if filter.UninvoicedOnly {
		query += " AND invoice_id IS NULL"
	}

	query += " ORDER BY date, start_time, rowid"

	return r.query(ctx, "list time entries", query, args...)
}

// ListUninvoiced retrieves a client's unbilled entries up to and including cutoff
func (r *EntryRepo) ListUninvoiced(ctx context.Context, clientID string, cutoff *time.Time) ([]*domain.TimeEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM time_entries
		WHERE account_id = ?
		  AND client_id = ?
		  AND invoice_id IS NULL
	`
	args := []any{r.accountID, clientID}

	if cutoff != nil {
		query += " AND date <= ?"
		args = append(args, formatDate(*cutoff))
	}

	// rowid preserves insertion order among entries on the same day
	query += " ORDER BY date ASC, rowid ASC"

	return r.query(ctx, "list uninvoiced entries", query, args...)
}

func (r *EntryRepo) query(ctx context.Context, op, query string, args ...any) ([]*domain.TimeEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistErr(op, err)
	}
	defer rows.Close()

	entries := make([]*domain.TimeEntry, 0)
	for rows.Next() {
		entry, err := scanTimeEntry(rows)
		if err != nil {
			return nil, persistErr("scan time entry", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, persistErr(op, err)
	}
	return entries, nil
}

// IsLocked checks if a time entry is locked (attached to an invoice)
func (r *EntryRepo) IsLocked(ctx context.Context, id string) (bool, error) {
	var invoiceID sql.NullString
	query := "SELECT invoice_id FROM time_entries WHERE id = ? AND account_id = ?"

	err := r.db.QueryRowContext(ctx, query, id, r.accountID).Scan(&invoiceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, notFound("time entry", id)
		}
		return false, persistErr("check lock status", err)
	}

	return invoiceID.Valid, nil
}

// MarkInvoiced locks multiple time entries by attaching them to an invoice
func (r *EntryRepo) MarkInvoiced(ctx context.Context, entryIDs []string, invoiceID string) error {
	if len(entryIDs) == 0 {
		return nil
	}

	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			UPDATE time_entries
			SET invoice_id = ?, updated_at = ?
			WHERE id = ? AND account_id = ? AND (invoice_id IS NULL OR invoice_id = ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		updateTime := now()
		for _, entryID := range entryIDs {
			result, err := stmt.ExecContext(ctx, invoiceID, updateTime, entryID, r.accountID, invoiceID)
			if err != nil {
				return fmt.Errorf("failed to lock entry %s: %w", entryID, err)
			}

			rows, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected for entry %s: %w", entryID, err)
			}
			if rows == 0 {
				return fmt.Errorf("entry %s not found or invoiced elsewhere", entryID)
			}
		}
		return nil
	})
	return persistErr("mark entries invoiced", err)
}
