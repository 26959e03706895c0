package service

import (
	"context"
	"time"

	"github.com/andy/timeledger/internal/domain"
	"github.com/andy/timeledger/internal/logger"
	"github.com/andy/timeledger/internal/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PaymentInput describes a payment received against an invoice
type PaymentInput struct {
	Date      time.Time
	Amount    decimal.Decimal
	Method    string
	Reference string
	Notes     string
}

// PaymentService records payments and keeps invoice status in step with them
type PaymentService interface {
	// AddPayment records a payment and returns the invoice with its reconciled status
	AddPayment(ctx context.Context, invoiceID string, input PaymentInput) (*domain.Invoice, error)

	// RemovePayment deletes a payment and returns the invoice with its reconciled status
	RemovePayment(ctx context.Context, invoiceID, paymentID string) (*domain.Invoice, error)

	ListPayments(ctx context.Context, invoiceID string) ([]*domain.Payment, error)
}

type paymentService struct {
	invoiceRepo repository.InvoiceRepository
	paymentRepo repository.PaymentRepository
	log         zerolog.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
) PaymentService {
	return &paymentService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		log:         logger.WithComponent("payments"),
	}
}

func (s *paymentService) AddPayment(ctx context.Context, invoiceID string, input PaymentInput) (*domain.Invoice, error) {
	payment := domain.NewPayment(invoiceID, input.Date, input.Amount, input.Method, input.Reference, input.Notes)
	if err := payment.Validate(); err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := applyPayment(ctx, s.paymentRepo, invoice, payment); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("invoice_id", invoice.ID).
		Str("payment_id", payment.ID).
		Str("amount", payment.Amount.StringFixed(2)).
		Str("status", string(invoice.Status)).
		Msg("payment recorded")
	return invoice, nil
}

func (s *paymentService) RemovePayment(ctx context.Context, invoiceID, paymentID string) (*domain.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	remaining := make([]*domain.Payment, 0, len(invoice.Payments))
	found := false
	for _, p := range invoice.Payments {
		if p.ID == paymentID {
			found = true
			continue
		}
		remaining = append(remaining, p)
	}
	if !found {
		return nil, &domain.NotFoundError{Entity: "payment", ID: paymentID}
	}

	previous := invoice.Status
	invoice.Payments = remaining
	invoice.Status = domain.ReconcileStatus(invoice.Total, invoice.Status, invoice.PrePaymentStatus, invoice.Payments)
	if err := s.paymentRepo.Remove(ctx, paymentID, invoice); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("invoice_id", invoice.ID).
		Str("payment_id", paymentID).
		Str("from", string(previous)).
		Str("to", string(invoice.Status)).
		Msg("payment removed")
	return invoice, nil
}

func (s *paymentService) ListPayments(ctx context.Context, invoiceID string) ([]*domain.Payment, error) {
	if _, err := s.invoiceRepo.GetByID(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.paymentRepo.ListByInvoice(ctx, invoiceID)
}

// applyPayment appends payment to invoice, reconciles its status and stores
// both together. The status held before the first payment is remembered so
// that removing every payment restores it.
func applyPayment(ctx context.Context, repo repository.PaymentRepository, invoice *domain.Invoice, payment *domain.Payment) error {
	if len(invoice.Payments) == 0 &&
		invoice.Status != domain.InvoiceStatusPaid && invoice.Status != domain.InvoiceStatusPartiallyPaid {
		invoice.PrePaymentStatus = invoice.Status
	}

	invoice.Payments = append(invoice.Payments, payment)
	invoice.Status = domain.ReconcileStatus(invoice.Total, invoice.Status, invoice.PrePaymentStatus, invoice.Payments)
	return repo.Add(ctx, payment, invoice)
}
