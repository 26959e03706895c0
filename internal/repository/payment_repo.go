package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andy/timeledger/internal/db"
	"github.com/andy/timeledger/internal/domain"
)

// PaymentRepo is a SQLite implementation of PaymentRepository
type PaymentRepo struct {
	db        *db.DB
	accountID string
}

// NewPaymentRepo creates a new PaymentRepo scoped to one account
func NewPaymentRepo(database *db.DB, accountID string) *PaymentRepo {
	return &PaymentRepo{db: database, accountID: accountID}
}

// Add inserts a payment and writes the invoice's reconciled status in the
// same transaction.
func (r *PaymentRepo) Add(ctx context.Context, payment *domain.Payment, invoice *domain.Invoice) error {
	if err := payment.Validate(); err != nil {
		return err
	}

	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO payments (`+paymentColumns+`, account_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			payment.ID,
			payment.InvoiceID,
			formatDate(payment.Date),
			payment.Amount,
			payment.Method,
			payment.Reference,
			payment.Notes,
			formatTime(payment.CreatedAt),
			r.accountID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
		return r.writeStatus(ctx, tx, invoice)
	})
	return persistErr("add payment", err)
}

// Remove deletes a payment and writes the invoice's reconciled status
func (r *PaymentRepo) Remove(ctx context.Context, paymentID string, invoice *domain.Invoice) error {
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM payments WHERE id = ? AND invoice_id = ? AND account_id = ?`,
			paymentID, invoice.ID, r.accountID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete payment: %w", err)
		}
		if err := checkAffected(result, "payment", paymentID); err != nil {
			return err
		}
		return r.writeStatus(ctx, tx, invoice)
	})
	return persistErr("remove payment", err)
}

func (r *PaymentRepo) writeStatus(ctx context.Context, tx *sql.Tx, invoice *domain.Invoice) error {
	invoice.UpdatedAt = time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
		UPDATE invoices SET status = ?, pre_payment_status = ?, updated_at = ?
		WHERE id = ? AND account_id = ?
	`,
		string(invoice.Status),
		string(invoice.PrePaymentStatus),
		formatTime(invoice.UpdatedAt),
		invoice.ID,
		r.accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	return checkAffected(result, "invoice", invoice.ID)
}

// ListByInvoice returns an invoice's payments oldest first
func (r *PaymentRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]*domain.Payment, error) {
	return listPayments(ctx, r.db, r.accountID, invoiceID)
}

func listPayments(ctx context.Context, q querier, accountID, invoiceID string) ([]*domain.Payment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE invoice_id = ? AND account_id = ?
		ORDER BY date, created_at, rowid
	`, invoiceID, accountID)
	if err != nil {
		return nil, persistErr("list payments", err)
	}
	defer rows.Close()

	payments := make([]*domain.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, persistErr("scan payment", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("iterate payments", err)
	}
	return payments, nil
}
