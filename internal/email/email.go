// Package email delivers invoice PDFs to customers over SMTP. Delivery
// is always a best-effort side effect: a send failure never rolls back
// the lifecycle transition that triggered it.
package email

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
)

// ErrNotConfigured is returned when no SMTP host is configured. Callers
// distinguish this from an actual delivery failure.
var ErrNotConfigured = errors.New("email sender not configured")

// Attachment is a file attached to an outgoing message
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is an outgoing email
type Message struct {
	To         []string
	Subject    string
	HTMLBody   string
	Attachment *Attachment
}

// Sender delivers messages and returns a message id
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// SMTPSender sends messages through a plain SMTP relay
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPSender creates an SMTP sender. An empty host or from address
// yields a sender that reports ErrNotConfigured on every send.
func NewSMTPSender(host, port, username, password, from string) *SMTPSender {
	if port == "" {
		port = "587"
	}
	return &SMTPSender{host: host, port: port, username: username, password: password, from: from}
}

// Send delivers the message and returns its Message-ID
func (s *SMTPSender) Send(ctx context.Context, msg Message) (string, error) {
	if s.host == "" || s.from == "" {
		return "", ErrNotConfigured
	}
	if len(msg.To) == 0 {
		return "", fmt.Errorf("no recipients")
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), s.host)
	payload := s.buildMIME(messageID, msg)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	if err := smtp.SendMail(s.host+":"+s.port, auth, s.from, msg.To, payload); err != nil {
		return "", fmt.Errorf("smtp send failed: %w", err)
	}

	return messageID, nil
}

func (s *SMTPSender) buildMIME(messageID string, msg Message) []byte {
	const boundary = "boqflow-mixed-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Message-ID: %s\r\n", messageID)
	b.WriteString("MIME-Version: 1.0\r\n")

	if msg.Attachment == nil {
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		b.WriteString(msg.HTMLBody)
		return []byte(b.String())
	}

	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(msg.HTMLBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	fmt.Fprintf(&b, "Content-Type: %s\r\n", msg.Attachment.ContentType)
	fmt.Fprintf(&b, "Content-Disposition: attachment; filename=%q\r\n", msg.Attachment.Filename)
	b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")

	encoded := base64.StdEncoding.EncodeToString(msg.Attachment.Data)
	for len(encoded) > 76 {
		b.WriteString(encoded[:76])
		b.WriteString("\r\n")
		encoded = encoded[76:]
	}
	b.WriteString(encoded)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
