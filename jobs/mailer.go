package jobs

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer delivers a single email message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through a plain SMTP relay such as Mailpit in
// development or a provider relay in production.
type SMTPMailer struct {
	addr string
	from string
}

// NewSMTPMailer constructs a mailer for the given host:port relay.
func NewSMTPMailer(host string, port int, from string) *SMTPMailer {
	return &SMTPMailer{addr: fmt.Sprintf("%s:%d", host, port), from: from}
}

// Send delivers the message. The relay is expected to not require
// authentication; authenticated setups should front it with a local relay.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")
	return smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg))
}

// LogMailer records messages instead of delivering them. Used in tests and
// when no SMTP relay is configured.
type LogMailer struct {
	Sent []SendEmailPayload
}

// Send appends the message to Sent.
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.Sent = append(m.Sent, SendEmailPayload{To: to, Subject: subject, Body: body})
	return nil
}
