package domain

import (
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/shopspring/decimal"
)

// DefaultClientColor is used on the calendar when a client has no color set
const DefaultClientColor = "#6b7280"

type Client struct {
	ID               string
	Name             string
	BillingFirstName string
	BillingLastName  string
	BillingPhone     string
	BillingEmail     string
	CCEmails         []string
	AddressStreet    string
	AddressLine2     string
	AddressCity      string
	AddressState     string
	AddressZip       string
	AddressCountry   string
	HourlyRate       decimal.Decimal
	Color            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewClient creates a new client with required fields
func NewClient(name, billingEmail string, hourlyRate decimal.Decimal) *Client {
	now := time.Now().UTC()
	return &Client{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		BillingEmail: strings.TrimSpace(billingEmail),
		HourlyRate:   hourlyRate,
		Color:        DefaultClientColor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Normalize trims fields, canonicalizes the color and dedupes CC emails
func (c *Client) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.BillingEmail = strings.TrimSpace(c.BillingEmail)
	c.CCEmails = NormalizeEmails(c.CCEmails)
	if strings.TrimSpace(c.Color) == "" {
		c.Color = DefaultClientColor
	}
	if col, err := colorful.Hex(c.Color); err == nil {
		c.Color = col.Hex()
	}
}

// Validate returns an error if the client is invalid
func (c *Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", "client name is required")
	}
	if strings.TrimSpace(c.BillingEmail) == "" {
		return NewValidationError("billing_email", "billing email is required")
	}
	if _, err := mail.ParseAddress(c.BillingEmail); err != nil {
		return NewValidationError("billing_email", "invalid email %q", c.BillingEmail)
	}
	for _, cc := range c.CCEmails {
		if _, err := mail.ParseAddress(cc); err != nil {
			return NewValidationError("cc_emails", "invalid email %q", cc)
		}
	}
	if !c.HourlyRate.IsPositive() {
		return NewValidationError("hourly_rate", "hourly rate must be positive")
	}
	if _, err := colorful.Hex(c.Color); err != nil {
		return NewValidationError("color", "expected #rrggbb, got %q", c.Color)
	}
	return nil
}

// BillingName returns the contact's first name, falling back to the client name
func (c *Client) BillingName() string {
	if first := strings.TrimSpace(c.BillingFirstName); first != "" {
		return first
	}
	return c.Name
}

// AddressLines returns the non-empty address lines for documents
func (c *Client) AddressLines() []string {
	lines := make([]string, 0, 4)
	for _, l := range []string{c.AddressStreet, c.AddressLine2} {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	cityLine := strings.TrimSpace(strings.Join(nonEmpty(c.AddressCity, c.AddressState, c.AddressZip), " "))
	if cityLine != "" {
		lines = append(lines, cityLine)
	}
	if strings.TrimSpace(c.AddressCountry) != "" {
		lines = append(lines, c.AddressCountry)
	}
	return lines
}

// NormalizeEmails lower-cases, trims, dedupes and sorts a list of addresses
func NormalizeEmails(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

func nonEmpty(parts ...string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
