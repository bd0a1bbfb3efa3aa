// Package mailer delivers transactional email.
package mailer

import (
	"context"
	"log/slog"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends a message and reports whether delivery succeeded.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer logs that a message would have been sent. It is used when no SMTP
// host is configured outside production. The body is never logged since it
// carries reset tokens.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.Logger.InfoContext(ctx, "email not sent, no smtp host configured",
		"to", msg.To,
		"subject", msg.Subject,
		"body_bytes", len(msg.Body),
	)
	return nil
}
