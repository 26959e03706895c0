package domain

import (
	"strings"
)

// Merge field names usable in email messages and footers
const (
	FieldClientName     = "client_name"
	FieldInvoiceNumber  = "invoice_number"
	FieldInvoiceDate    = "invoice_date"
	FieldIssueDate      = "issue_date"
	FieldDueDate        = "due_date"
	FieldTotalAmount    = "total_amount"
	FieldInvoiceTotal   = "invoice_total"
	FieldCompanyName    = "company_name"
	FieldCompanyEmail   = "company_email"
	FieldCompanyPhone   = "company_phone"
	FieldCompanyWebsite = "company_website"
)

const longDateLayout = "January 2, 2006"

// MergeData builds the merge field values for one invoice send
func MergeData(inv *Invoice, client *Client, settings *UserSettings) map[string]string {
	total := RoundMoney(inv.Total).StringFixed(2)
	return map[string]string{
		FieldClientName:     client.BillingName(),
		FieldInvoiceNumber:  inv.InvoiceNumber,
		FieldInvoiceDate:    inv.DateIssued.Format(longDateLayout),
		FieldIssueDate:      inv.DateIssued.Format(longDateLayout),
		FieldDueDate:        inv.DueDate.Format(longDateLayout),
		FieldTotalAmount:    "$" + total,
		FieldInvoiceTotal:   total,
		FieldCompanyName:    settings.CompanyName,
		FieldCompanyEmail:   settings.CompanyEmail,
		FieldCompanyPhone:   settings.CompanyPhone,
		FieldCompanyWebsite: settings.CompanyWebsite,
	}
}

// RenderMergeFields replaces every {{field}} occurrence with its value.
// Unknown fields are left in place.
func RenderMergeFields(template string, values map[string]string) string {
	if template == "" || len(values) == 0 {
		return template
	}
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
