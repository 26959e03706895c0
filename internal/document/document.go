// Package document turns an invoice into the artifacts a client receives:
// a PDF, an email message with merge fields resolved, and a delivery through
// a Mailer.
package document

import (
	"context"
	"time"

	"github.com/andy/timeledger/internal/domain"
)

// Snapshot is everything needed to render one invoice, captured at send time
type Snapshot struct {
	Invoice  *domain.Invoice
	Client   *domain.Client
	Settings *domain.UserSettings
	Today    time.Time
}

// Renderer produces the printable form of an invoice
type Renderer interface {
	Render(snap Snapshot) ([]byte, error)
}

// Attachment is a file carried by a Message
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a fully composed invoice email
type Message struct {
	InvoiceNumber string
	From          string
	ReplyTo       string
	To            string
	CC            []string
	Subject       string
	Body          string
	Attachments   []Attachment
}

// Mailer delivers composed messages
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}
