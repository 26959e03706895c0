package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// UserSettings holds the document and email customization for one account.
// Field keys double as the names accepted by Apply.
type UserSettings struct {
	CompanyName    string `yaml:"company_name"`
	CompanyAddress string `yaml:"company_address"`
	CompanyPhone   string `yaml:"company_phone"`
	CompanyEmail   string `yaml:"company_email"`
	CompanyWebsite string `yaml:"company_website"`

	EmailPrimaryColor     string `yaml:"email_primary_color"`
	EmailDefaultMessage   string `yaml:"email_default_message"`
	EmailFooter           string `yaml:"email_footer"`
	EmailIncludePdf       bool   `yaml:"email_include_pdf"`
	EmailIncludeLineItems bool   `yaml:"email_include_line_items"`

	PdfHeaderColor             string `yaml:"pdf_header_color"`
	PdfAccentColor             string `yaml:"pdf_accent_color"`
	PdfInvoiceTitle            string `yaml:"pdf_invoice_title"`
	PdfBillToLabel             string `yaml:"pdf_bill_to_label"`
	PdfDateIssuedLabel         string `yaml:"pdf_date_issued_label"`
	PdfDueDateLabel            string `yaml:"pdf_due_date_label"`
	PdfDateColumnLabel         string `yaml:"pdf_date_column_label"`
	PdfDescriptionColumnLabel  string `yaml:"pdf_description_column_label"`
	PdfHoursColumnLabel        string `yaml:"pdf_hours_column_label"`
	PdfRateColumnLabel         string `yaml:"pdf_rate_column_label"`
	PdfAmountColumnLabel       string `yaml:"pdf_amount_column_label"`
	PdfSubtotalLabel           string `yaml:"pdf_subtotal_label"`
	PdfTotalLabel              string `yaml:"pdf_total_label"`
	PdfFooterText              string `yaml:"pdf_footer_text"`
	PdfTerms                   string `yaml:"pdf_terms"`
	PdfPaymentInstructions     string `yaml:"pdf_payment_instructions"`
	PdfShowTerms               bool   `yaml:"pdf_show_terms"`
	PdfShowPaymentInstructions bool   `yaml:"pdf_show_payment_instructions"`

	UpdatedAt time.Time `yaml:"-"`
}

// DefaultSettings returns the settings used before an account saves its own
func DefaultSettings() *UserSettings {
	return &UserSettings{
		EmailPrimaryColor:         "#3b82f6",
		EmailIncludePdf:           true,
		EmailIncludeLineItems:     true,
		PdfHeaderColor:            "#0F2847",
		PdfAccentColor:            "#00a3e0",
		PdfInvoiceTitle:           "INVOICE",
		PdfBillToLabel:            "BILL TO",
		PdfDateIssuedLabel:        "Date Issued",
		PdfDueDateLabel:           "Due Date",
		PdfDateColumnLabel:        "Date",
		PdfDescriptionColumnLabel: "Description",
		PdfHoursColumnLabel:       "Hours",
		PdfRateColumnLabel:        "Rate",
		PdfAmountColumnLabel:      "Amount",
		PdfSubtotalLabel:          "Subtotal",
		PdfTotalLabel:             "Total",
		PdfFooterText:             "Thank you for your business",
	}
}

var settingsColorKeys = []string{"email_primary_color", "pdf_header_color", "pdf_accent_color"}

// Apply sets a single field by its key. The value is decoded as a plain
// YAML scalar, so boolean fields take true or false.
func (s *UserSettings) Apply(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	known := false
	for _, k := range SettingsKeys() {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return NewValidationError(key, "unknown setting")
	}

	for _, k := range settingsColorKeys {
		if k == key {
			if _, err := colorful.Hex(value); err != nil {
				return NewValidationError(key, "expected #rrggbb, got %q", value)
			}
		}
	}

	scalar := &yaml.Node{Kind: yaml.ScalarNode, Value: value}
	if value == "" {
		// an untagged empty scalar is null and would leave the field unchanged
		scalar.Tag = "!!str"
	}
	node := yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		{Kind: yaml.ScalarNode, Value: key},
		scalar,
	}}
	if err := node.Decode(s); err != nil {
		return NewValidationError(key, "invalid value %q", value)
	}
	return nil
}

// Lookup returns the current value of a field by key
func (s *UserSettings) Lookup(key string) (string, bool) {
	fields, err := s.Fields()
	if err != nil {
		return "", false
	}
	v, ok := fields[key]
	return v, ok
}

// Fields returns every setting as key/value strings
func (s *UserSettings) Fields() (map[string]string, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, err
	}
	raw := make(map[string]any)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = fmt.Sprint(v)
	}
	return out, nil
}

// SettingsKeys lists every key accepted by Apply, in declaration order
func SettingsKeys() []string {
	var node yaml.Node
	if err := node.Encode(DefaultSettings()); err != nil || len(node.Content) == 0 {
		return nil
	}
	keys := make([]string, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		keys = append(keys, node.Content[i].Value)
	}
	return keys
}
