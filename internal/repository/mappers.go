package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/andy/timeledger/internal/domain"
)

// Row mapping between snake_case columns and domain structs lives here and
// nowhere else: one column list and one scan function per entity.

const clientColumns = `id, name, billing_first_name, billing_last_name, billing_phone, billing_email,
	cc_emails, address_street, address_line2, address_city, address_state, address_zip,
	address_country, hourly_rate, color, created_at, updated_at`

func scanClient(s rowScanner) (*domain.Client, error) {
	c := &domain.Client{}
	var ccEmails, createdAt, updatedAt string

	err := s.Scan(
		&c.ID,
		&c.Name,
		&c.BillingFirstName,
		&c.BillingLastName,
		&c.BillingPhone,
		&c.BillingEmail,
		&ccEmails,
		&c.AddressStreet,
		&c.AddressLine2,
		&c.AddressCity,
		&c.AddressState,
		&c.AddressZip,
		&c.AddressCountry,
		&c.HourlyRate,
		&c.Color,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.CCEmails = decodeEmails(ccEmails)
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return c, nil
}

const entryColumns = `id, client_id, date, start_time, end_time, project, description,
	hours, invoice_id, created_at, updated_at`

func scanTimeEntry(s rowScanner) (*domain.TimeEntry, error) {
	e := &domain.TimeEntry{}
	var date, startTime, endTime, createdAt, updatedAt string
	var invoiceID sql.NullString

	err := s.Scan(
		&e.ID,
		&e.ClientID,
		&date,
		&startTime,
		&endTime,
		&e.Project,
		&e.Description,
		&e.Hours,
		&invoiceID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if e.Date, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("failed to parse date: %w", err)
	}
	if e.StartTime, err = domain.ParseClockTime(startTime); err != nil {
		return nil, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if e.EndTime, err = domain.ParseClockTime(endTime); err != nil {
		return nil, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if invoiceID.Valid {
		id := invoiceID.String
		e.InvoiceID = &id
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return e, nil
}

const invoiceColumns = `id, invoice_number, client_id, date_issued, due_date, status,
	pre_payment_status, total, last_sent_at, sent_count, created_at, updated_at`

func scanInvoice(s rowScanner) (*domain.Invoice, error) {
	inv := &domain.Invoice{}
	var dateIssued, dueDate, status, prePayment, createdAt, updatedAt string
	var lastSentAt sql.NullString

	err := s.Scan(
		&inv.ID,
		&inv.InvoiceNumber,
		&inv.ClientID,
		&dateIssued,
		&dueDate,
		&status,
		&prePayment,
		&inv.Total,
		&lastSentAt,
		&inv.SentCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.Status = domain.NormalizeStoredStatus(status)
	if prePayment != "" {
		inv.PrePaymentStatus = domain.NormalizeStoredStatus(prePayment)
	}
	if inv.DateIssued, err = parseDate(dateIssued); err != nil {
		return nil, fmt.Errorf("failed to parse date_issued: %w", err)
	}
	if inv.DueDate, err = parseDate(dueDate); err != nil {
		return nil, fmt.Errorf("failed to parse due_date: %w", err)
	}
	if lastSentAt.Valid {
		t, err := parseTime(lastSentAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last_sent_at: %w", err)
		}
		inv.LastSentAt = &t
	}
	if inv.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if inv.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return inv, nil
}

const lineItemColumns = `id, invoice_id, position, date, description, hours, rate, subtotal, time_entry_id`

func scanLineItem(s rowScanner) (*domain.InvoiceLineItem, error) {
	item := &domain.InvoiceLineItem{}
	var date string
	var entryID sql.NullString

	err := s.Scan(
		&item.ID,
		&item.InvoiceID,
		&item.Position,
		&date,
		&item.Description,
		&item.Hours,
		&item.Rate,
		&item.Subtotal,
		&entryID,
	)
	if err != nil {
		return nil, err
	}

	if item.Date, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("failed to parse date: %w", err)
	}
	if entryID.Valid {
		id := entryID.String
		item.TimeEntryID = &id
	}
	return item, nil
}

const paymentColumns = `id, invoice_id, date, amount, method, reference, notes, created_at`

func scanPayment(s rowScanner) (*domain.Payment, error) {
	p := &domain.Payment{}
	var date, createdAt string

	err := s.Scan(
		&p.ID,
		&p.InvoiceID,
		&date,
		&p.Amount,
		&p.Method,
		&p.Reference,
		&p.Notes,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if p.Date, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("failed to parse date: %w", err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return p, nil
}

const emailHistoryColumns = `id, invoice_id, sent_at, sent_to, cc_emails, custom_message`

func scanEmailHistory(s rowScanner) (*domain.InvoiceEmailHistory, error) {
	h := &domain.InvoiceEmailHistory{}
	var sentAt, ccEmails string

	err := s.Scan(
		&h.ID,
		&h.InvoiceID,
		&sentAt,
		&h.SentTo,
		&ccEmails,
		&h.CustomMessage,
	)
	if err != nil {
		return nil, err
	}

	h.CCEmails = decodeEmails(ccEmails)
	if h.SentAt, err = parseTime(sentAt); err != nil {
		return nil, fmt.Errorf("failed to parse sent_at: %w", err)
	}
	return h, nil
}

// encodeEmails stores an address list as a comma separated column
func encodeEmails(emails []string) string {
	return strings.Join(emails, ",")
}

func decodeEmails(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return domain.NormalizeEmails(strings.Split(s, ","))
}

// nullable converts an optional id into a driver value
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
