package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andy/timeledger/internal/db"
	"github.com/andy/timeledger/internal/domain"
	"github.com/shopspring/decimal"
)

// InvoiceRepo is a SQLite implementation of InvoiceRepository
type InvoiceRepo struct {
	db        *db.DB
	accountID string
}

// NewInvoiceRepo creates a new InvoiceRepo scoped to one account
func NewInvoiceRepo(database *db.DB, accountID string) *InvoiceRepo {
	return &InvoiceRepo{db: database, accountID: accountID}
}

// Create numbers and inserts an invoice with its line items. The number is
// read and written inside the same transaction; the UNIQUE constraint on
// (account_id, invoice_number) catches any writer that raced us, in which
// case the whole transaction is retried with a fresh scan.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice, year int) error {
	var lastErr error
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		err := r.db.InTx(ctx, func(tx *sql.Tx) error {
			numbers, err := r.listNumbers(ctx, tx, year)
			if err != nil {
				return err
			}
			invoice.InvoiceNumber = domain.NextInvoiceNumber(numbers, year)
			if err := invoice.Validate(); err != nil {
				return err
			}
			if err := r.insertInvoice(ctx, tx, invoice); err != nil {
				return err
			}
			for _, item := range invoice.LineItems {
				if err := r.insertLineItem(ctx, tx, item); err != nil {
					return err
				}
			}
			return nil
		})
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err) {
			invoice.InvoiceNumber = ""
			return persistErr("create invoice", err)
		}
		lastErr = err
	}
	invoice.InvoiceNumber = ""
	return persistErr("create invoice", fmt.Errorf("invoice number still taken after %d attempts: %w", maxNumberAttempts, lastErr))
}

func (r *InvoiceRepo) insertInvoice(ctx context.Context, q querier, invoice *domain.Invoice) error {
	query := `
		INSERT INTO invoices (` + invoiceColumns + `, account_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var lastSentAt any
	if invoice.LastSentAt != nil {
		lastSentAt = formatTime(*invoice.LastSentAt)
	}

	_, err := q.ExecContext(ctx, query,
		invoice.ID,
		invoice.InvoiceNumber,
		invoice.ClientID,
		formatDate(invoice.DateIssued),
		formatDate(invoice.DueDate),
		string(invoice.Status),
		string(invoice.PrePaymentStatus),
		invoice.Total,
		lastSentAt,
		invoice.SentCount,
		formatTime(invoice.CreatedAt),
		formatTime(invoice.UpdatedAt),
		r.accountID,
	)
	return err
}

func (r *InvoiceRepo) insertLineItem(ctx context.Context, q querier, item *domain.InvoiceLineItem) error {
	query := `
		INSERT INTO invoice_line_items (` + lineItemColumns + `, account_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		item.ID,
		item.InvoiceID,
		item.Position,
		formatDate(item.Date),
		item.Description,
		item.Hours,
		item.Rate,
		item.Subtotal,
		nullable(item.TimeEntryID),
		r.accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to add line item: %w", err)
	}
	return nil
}

// GetByID retrieves an invoice by ID with line items, payments and email history
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ? AND account_id = ?`
	return r.getOne(ctx, query, id)
}

// GetByNumber retrieves an invoice by invoice number
func (r *InvoiceRepo) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE invoice_number = ? AND account_id = ?`
	return r.getOne(ctx, query, number)
}

func (r *InvoiceRepo) getOne(ctx context.Context, query, key string) (*domain.Invoice, error) {
	invoice, err := scanInvoice(r.db.QueryRowContext(ctx, query, key, r.accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("invoice", key)
		}
		return nil, persistErr("get invoice", err)
	}

	if err := r.loadChildren(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// List retrieves invoices with optional filters, newest first
func (r *InvoiceRepo) List(ctx context.Context, filter InvoiceFilter) ([]*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE account_id = ?`
	args := []any{r.accountID}

	if filter.ClientID != "" {
		query += " AND client_id = ?"
		args = append(args, filter.ClientID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}

	query += " ORDER BY date_issued DESC, invoice_number DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistErr("list invoices", err)
	}

	invoices := make([]*domain.Invoice, 0)
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			rows.Close()
			return nil, persistErr("scan invoice", err)
		}
		invoices = append(invoices, invoice)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, persistErr("iterate invoices", err)
	}
	rows.Close()

	// Children are loaded after the cursor is closed; the pool holds one connection.
	for _, invoice := range invoices {
		if err := r.loadChildren(ctx, invoice); err != nil {
			return nil, err
		}
	}
	return invoices, nil
}

// ListNumbers returns every invoice number issued in the given year
func (r *InvoiceRepo) ListNumbers(ctx context.Context, year int) ([]string, error) {
	numbers, err := r.listNumbers(ctx, r.db, year)
	return numbers, persistErr("list invoice numbers", err)
}

func (r *InvoiceRepo) listNumbers(ctx context.Context, q querier, year int) ([]string, error) {
	pattern := fmt.Sprintf("%s-%d-%%", domain.InvoiceNumberPrefix, year)

	rows, err := q.QueryContext(ctx,
		`SELECT invoice_number FROM invoices WHERE account_id = ? AND invoice_number LIKE ?`,
		r.accountID, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice numbers: %w", err)
	}
	defer rows.Close()

	numbers := make([]string, 0)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan invoice number: %w", err)
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

// Update writes the invoice header fields
func (r *InvoiceRepo) Update(ctx context.Context, invoice *domain.Invoice) error {
	invoice.UpdatedAt = time.Now().UTC()
	result, err := r.updateHeader(ctx, r.db, invoice)
	if err != nil {
		return persistErr("update invoice", err)
	}
	return persistErr("update invoice", checkAffected(result, "invoice", invoice.ID))
}

func (r *InvoiceRepo) updateHeader(ctx context.Context, q querier, invoice *domain.Invoice) (sql.Result, error) {
	if !invoice.Status.Stored() {
		return nil, domain.NewValidationError("status", "status %q cannot be stored", invoice.Status)
	}

	var lastSentAt any
	if invoice.LastSentAt != nil {
		lastSentAt = formatTime(*invoice.LastSentAt)
	}

	query := `
		UPDATE invoices
		SET date_issued = ?, due_date = ?, status = ?, pre_payment_status = ?, total = ?,
		    last_sent_at = ?, sent_count = ?, updated_at = ?
		WHERE id = ? AND account_id = ?
	`

	return q.ExecContext(ctx, query,
		formatDate(invoice.DateIssued),
		formatDate(invoice.DueDate),
		string(invoice.Status),
		string(invoice.PrePaymentStatus),
		invoice.Total,
		lastSentAt,
		invoice.SentCount,
		formatTime(invoice.UpdatedAt),
		invoice.ID,
		r.accountID,
	)
}

// UpdateLineItem rewrites one line item and the invoice total together
func (r *InvoiceRepo) UpdateLineItem(ctx context.Context, invoiceID string, item *domain.InvoiceLineItem, total decimal.Decimal) error {
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE invoice_line_items
			SET date = ?, description = ?, hours = ?, rate = ?, subtotal = ?
			WHERE id = ? AND invoice_id = ? AND account_id = ?
		`,
			formatDate(item.Date),
			item.Description,
			item.Hours,
			item.Rate,
			item.Subtotal,
			item.ID,
			invoiceID,
			r.accountID,
		)
		if err != nil {
			return fmt.Errorf("failed to update line item: %w", err)
		}
		if err := checkAffected(result, "line item", item.ID); err != nil {
			return err
		}
		return r.setTotal(ctx, tx, invoiceID, total)
	})
	return persistErr("update line item", err)
}

// RemoveLineItem removes a specific line item from an invoice
func (r *InvoiceRepo) RemoveLineItem(ctx context.Context, invoiceID, itemID string, total decimal.Decimal) error {
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		var entryID sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT time_entry_id FROM invoice_line_items WHERE id = ? AND invoice_id = ? AND account_id = ?`,
			itemID, invoiceID, r.accountID,
		).Scan(&entryID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return notFound("line item", itemID)
			}
			return fmt.Errorf("failed to get line item: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM invoice_line_items WHERE id = ? AND account_id = ?`, itemID, r.accountID,
		); err != nil {
			return fmt.Errorf("failed to delete line item: %w", err)
		}

		if entryID.Valid {
			if _, err := tx.ExecContext(ctx, `
				UPDATE time_entries SET invoice_id = NULL, updated_at = ?
				WHERE id = ? AND invoice_id = ? AND account_id = ?
			`, now(), entryID.String, invoiceID, r.accountID); err != nil {
				return fmt.Errorf("failed to release time entry: %w", err)
			}
		}

		return r.setTotal(ctx, tx, invoiceID, total)
	})
	return persistErr("remove line item", err)
}

func (r *InvoiceRepo) setTotal(ctx context.Context, tx *sql.Tx, invoiceID string, total decimal.Decimal) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE invoices SET total = ?, updated_at = ? WHERE id = ? AND account_id = ?`,
		total, now(), invoiceID, r.accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to update total: %w", err)
	}
	return checkAffected(result, "invoice", invoiceID)
}

// Delete removes an invoice and un-invoices every entry that referenced it
func (r *InvoiceRepo) Delete(ctx context.Context, id string) error {
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			UPDATE time_entries SET invoice_id = NULL, updated_at = ?
			WHERE invoice_id = ? AND account_id = ?
		`, now(), id, r.accountID); err != nil {
			return fmt.Errorf("failed to release time entries: %w", err)
		}

		// Order matters due to foreign keys
		for _, table := range []string{"invoice_line_items", "payments", "invoice_email_history"} {
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf("DELETE FROM %s WHERE invoice_id = ? AND account_id = ?", table),
				id, r.accountID,
			); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM invoices WHERE id = ? AND account_id = ?`, id, r.accountID)
		if err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}
		return checkAffected(result, "invoice", id)
	})
	return persistErr("delete invoice", err)
}

// RecordSend stores the email history row and the invoice's updated send fields
func (r *InvoiceRepo) RecordSend(ctx context.Context, invoice *domain.Invoice, history *domain.InvoiceEmailHistory) error {
	invoice.UpdatedAt = time.Now().UTC()
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO invoice_email_history (`+emailHistoryColumns+`, account_id)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			history.ID,
			history.InvoiceID,
			formatTime(history.SentAt),
			history.SentTo,
			encodeEmails(history.CCEmails),
			history.CustomMessage,
			r.accountID,
		); err != nil {
			return fmt.Errorf("failed to record email history: %w", err)
		}

		result, err := r.updateHeader(ctx, tx, invoice)
		if err != nil {
			return err
		}
		return checkAffected(result, "invoice", invoice.ID)
	})
	return persistErr("record invoice send", err)
}

// loadChildren populates line items, payments and email history
func (r *InvoiceRepo) loadChildren(ctx context.Context, invoice *domain.Invoice) error {
	items, err := r.lineItems(ctx, invoice.ID)
	if err != nil {
		return err
	}
	invoice.LineItems = items

	payments, err := listPayments(ctx, r.db, r.accountID, invoice.ID)
	if err != nil {
		return err
	}
	invoice.Payments = payments

	history, err := r.emailHistory(ctx, invoice.ID)
	if err != nil {
		return err
	}
	invoice.EmailHistory = history
	return nil
}

func (r *InvoiceRepo) lineItems(ctx context.Context, invoiceID string) ([]*domain.InvoiceLineItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+lineItemColumns+`
		FROM invoice_line_items
		WHERE invoice_id = ? AND account_id = ?
		ORDER BY position
	`, invoiceID, r.accountID)
	if err != nil {
		return nil, persistErr("get line items", err)
	}
	defer rows.Close()

	items := make([]*domain.InvoiceLineItem, 0)
	for rows.Next() {
		item, err := scanLineItem(rows)
		if err != nil {
			return nil, persistErr("scan line item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate line items", err)
	}
	return items, nil
}

func (r *InvoiceRepo) emailHistory(ctx context.Context, invoiceID string) ([]*domain.InvoiceEmailHistory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+emailHistoryColumns+`
		FROM invoice_email_history
		WHERE invoice_id = ? AND account_id = ?
		ORDER BY sent_at, rowid
	`, invoiceID, r.accountID)
	if err != nil {
		return nil, persistErr("get email history", err)
	}
	defer rows.Close()

	history := make([]*domain.InvoiceEmailHistory, 0)
	for rows.Next() {
		h, err := scanEmailHistory(rows)
		if err != nil {
			return nil, persistErr("scan email history", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate email history", err)
	}
	return history, nil
}
