package document

import (
	"fmt"
	"strings"

	"github.com/andy/timeledger/internal/domain"
)

const defaultFooter = "Questions? Reply to this email or contact us at {{company_email}}\n\n{{company_name}} | {{company_website}}"

// Composer builds invoice emails from the account's settings
type Composer struct {
	// FromAddress is the envelope sender; the company email becomes Reply-To
	FromAddress string
}

// Compose resolves merge fields in the message and footer and attaches the
// PDF when the settings ask for it. A non-empty customMessage replaces the
// default message.
func (c *Composer) Compose(snap Snapshot, customMessage string, pdf []byte) (*Message, error) {
	inv, client, settings := snap.Invoice, snap.Client, snap.Settings
	if inv == nil || client == nil {
		return nil, fmt.Errorf("failed to compose invoice email: snapshot is incomplete")
	}
	if settings == nil {
		settings = domain.DefaultSettings()
	}
	fields := domain.MergeData(inv, client, settings)

	message := strings.TrimSpace(customMessage)
	if message == "" {
		message = settings.EmailDefaultMessage
	}
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("Thank you for your business! Please find attached invoice %s for services rendered.", inv.InvoiceNumber)
	}

	footer := settings.EmailFooter
	if strings.TrimSpace(footer) == "" {
		footer = defaultFooter
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", fields[domain.FieldClientName])
	body.WriteString(domain.RenderMergeFields(message, fields))
	body.WriteString("\n\n")
	fmt.Fprintf(&body, "Invoice:  %s\n", inv.InvoiceNumber)
	fmt.Fprintf(&body, "Issued:   %s\n", fields[domain.FieldInvoiceDate])
	fmt.Fprintf(&body, "Due:      %s\n", fields[domain.FieldDueDate])
	fmt.Fprintf(&body, "Amount:   %s\n", fields[domain.FieldTotalAmount])

	if settings.EmailIncludeLineItems && len(inv.LineItems) > 0 {
		body.WriteString("\nInvoice Details\n")
		for _, item := range inv.LineItems {
			fmt.Fprintf(&body, "  %s  %-40s %6.2f h  x %10s  = %10s\n",
				item.Date.Format(domain.DateLayout),
				item.Description,
				item.Hours,
				domain.FormatMoney(item.Rate),
				domain.FormatMoney(item.Subtotal),
			)
		}
	}

	body.WriteString("\n")
	body.WriteString(domain.RenderMergeFields(footer, fields))
	body.WriteString("\n")

	msg := &Message{
		InvoiceNumber: inv.InvoiceNumber,
		From:          c.sender(settings),
		ReplyTo:       settings.CompanyEmail,
		To:            client.BillingEmail,
		CC:            append([]string(nil), client.CCEmails...),
		Subject:       subject(inv, settings),
		Body:          body.String(),
	}

	if settings.EmailIncludePdf && len(pdf) > 0 {
		msg.Attachments = append(msg.Attachments, Attachment{
			Filename:    inv.InvoiceNumber + ".pdf",
			ContentType: "application/pdf",
			Data:        pdf,
		})
	}
	return msg, nil
}

func subject(inv *domain.Invoice, settings *domain.UserSettings) string {
	if strings.TrimSpace(settings.CompanyName) == "" {
		return "Invoice " + inv.InvoiceNumber
	}
	return fmt.Sprintf("Invoice %s from %s", inv.InvoiceNumber, settings.CompanyName)
}

func (c *Composer) sender(settings *domain.UserSettings) string {
	addr := c.FromAddress
	if addr == "" {
		addr = settings.CompanyEmail
	}
	if strings.TrimSpace(settings.CompanyName) == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", settings.CompanyName, addr)
}
