package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconcileStatus derives the stored invoice status from the payments
// recorded against it. Amounts are compared exactly at cent precision.
//
// When payments drop back to zero after having moved the invoice to paid or
// partially_paid, the status returns to prePayment (the stored status held
// before the first payment), or to sent when that is unknown.
//
// A zero-total invoice with no payments keeps its status.
func ReconcileStatus(total decimal.Decimal, status, prePayment InvoiceStatus, payments []*Payment) InvoiceStatus {
	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}
	paid = RoundMoney(paid)

	switch {
	// An empty ledger never settles an invoice, even a zero-total one.
	// MarkPaid settles those explicitly.
	case paid.GreaterThanOrEqual(RoundMoney(total)) && paid.IsPositive():
		return InvoiceStatusPaid
	case paid.IsPositive():
		return InvoiceStatusPartiallyPaid
	}

	if status == InvoiceStatusPaid || status == InvoiceStatusPartiallyPaid {
		if prePayment.Stored() && prePayment != InvoiceStatusPaid && prePayment != InvoiceStatusPartiallyPaid {
			return prePayment
		}
		return InvoiceStatusSent
	}
	return status
}

// EffectiveStatus reports overdue for any invoice that is neither paid,
// draft nor partially paid and whose due date is before today. It is
// recomputed on every read and never persisted.
func EffectiveStatus(status InvoiceStatus, dueDate, today time.Time) InvoiceStatus {
	switch status {
	case InvoiceStatusPaid, InvoiceStatusDraft, InvoiceStatusPartiallyPaid:
		return status
	}
	if !dueDate.IsZero() && TruncateDay(dueDate).Before(TruncateDay(today)) {
		return InvoiceStatusOverdue
	}
	return status
}

// NormalizeStoredStatus maps legacy persisted values onto stored statuses.
// Rows written with a literal overdue are read back as sent.
func NormalizeStoredStatus(s string) InvoiceStatus {
	st := InvoiceStatus(s)
	if st == InvoiceStatusOverdue {
		return InvoiceStatusSent
	}
	if !st.Stored() {
		return InvoiceStatusDraft
	}
	return st
}
