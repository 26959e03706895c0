package domain

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func TestClientValidate(t *testing.T) {
	base := func() *Client {
		return NewClient("Acme Corporation", "billing@acme.com", decimal.NewFromInt(150))
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Client)
	}{
		{"missing name", func(c *Client) { c.Name = "  " }},
		{"missing email", func(c *Client) { c.BillingEmail = "" }},
		{"bad email", func(c *Client) { c.BillingEmail = "not-an-email" }},
		{"bad cc", func(c *Client) { c.CCEmails = []string{"ok@acme.com", "nope"} }},
		{"zero rate", func(c *Client) { c.HourlyRate = decimal.Zero }},
		{"negative rate", func(c *Client) { c.HourlyRate = decimal.NewFromInt(-5) }},
		{"bad color", func(c *Client) { c.Color = "blue" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			if err := c.Validate(); !IsValidation(err) {
				t.Fatalf("Validate() = %v, want validation error", err)
			}
		})
	}
}

func TestClientNormalize(t *testing.T) {
	c := NewClient(" Acme ", " billing@acme.com ", decimal.NewFromInt(100))
	c.CCEmails = []string{"B@acme.com", "a@acme.com", " b@acme.com", ""}
	c.Color = "#3B82F6"
	c.Normalize()

	if c.Name != "Acme" || c.BillingEmail != "billing@acme.com" {
		t.Fatalf("Normalize() name=%q email=%q", c.Name, c.BillingEmail)
	}
	if want := []string{"a@acme.com", "b@acme.com"}; !reflect.DeepEqual(c.CCEmails, want) {
		t.Fatalf("CCEmails = %v, want %v", c.CCEmails, want)
	}
	if c.Color != "#3b82f6" {
		t.Fatalf("Color = %q, want #3b82f6", c.Color)
	}

	c.Color = ""
	c.Normalize()
	if c.Color != DefaultClientColor {
		t.Fatalf("Color = %q, want default", c.Color)
	}
}

func TestClientBillingName(t *testing.T) {
	c := NewClient("Acme", "b@acme.com", decimal.NewFromInt(1))
	if c.BillingName() != "Acme" {
		t.Fatalf("BillingName() = %q, want Acme", c.BillingName())
	}
	c.BillingFirstName = "John"
	if c.BillingName() != "John" {
		t.Fatalf("BillingName() = %q, want John", c.BillingName())
	}
}
