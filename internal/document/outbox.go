package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// OutboxMailer "delivers" messages by writing them into a directory: one
// .txt file with headers and body, plus each attachment beside it.
type OutboxMailer struct {
	dir string
	now func() time.Time
	log zerolog.Logger
}

// NewOutboxMailer creates a mailer writing into dir
func NewOutboxMailer(dir string, log zerolog.Logger) *OutboxMailer {
	return &OutboxMailer{dir: dir, now: time.Now, log: log}
}

// Dir returns the outbox directory
func (m *OutboxMailer) Dir() string {
	return m.dir
}

func (m *OutboxMailer) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("failed to send invoice %s: no recipient", msg.InvoiceNumber)
	}
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return fmt.Errorf("failed to create outbox: %w", err)
	}

	stamp := m.now().UTC().Format("20060102T150405Z")
	base := fmt.Sprintf("%s-%s", safeName(msg.InvoiceNumber), stamp)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", msg.From)
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\n", msg.ReplyTo)
	}
	fmt.Fprintf(&b, "To: %s\n", msg.To)
	if len(msg.CC) > 0 {
		fmt.Fprintf(&b, "Cc: %s\n", strings.Join(msg.CC, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	for _, a := range msg.Attachments {
		fmt.Fprintf(&b, "Attachment: %s-%s\n", base, safeName(a.Filename))
	}
	b.WriteString("\n")
	b.WriteString(msg.Body)

	bodyPath := filepath.Join(m.dir, base+".txt")
	if err := os.WriteFile(bodyPath, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	for _, a := range msg.Attachments {
		path := filepath.Join(m.dir, base+"-"+safeName(a.Filename))
		if err := os.WriteFile(path, a.Data, 0600); err != nil {
			return fmt.Errorf("failed to write attachment %s: %w", a.Filename, err)
		}
	}

	m.log.Info().
		Str("invoice_number", msg.InvoiceNumber).
		Str("to", msg.To).
		Strs("cc", msg.CC).
		Int("attachments", len(msg.Attachments)).
		Str("path", bodyPath).
		Msg("invoice email written to outbox")
	return nil
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
}
