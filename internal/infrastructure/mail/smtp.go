package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/baechuer/account-service/internal/application/account"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers plain-text mail through an authenticated relay.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	fromName string

	sendMail sendMailFunc
}

func NewSMTPMailer(host string, port int, username, password, fromName string) (*SMTPMailer, error) {
	if host == "" {
		return nil, fmt.Errorf("SMTP_HOST is required")
	}
	if username == "" || password == "" {
		return nil, fmt.Errorf("SMTP_EMAIL and SMTP_PASSWORD are required")
	}
	if port <= 0 {
		port = 587
	}
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		fromName: fromName,
		sendMail: smtp.SendMail,
	}, nil
}

// Send gives up when ctx ends; the dial itself may still finish in the
// background.
func (m *SMTPMailer) Send(ctx context.Context, msg account.EmailMessage) error {
	if strings.ContainsAny(msg.To, "\r\n") || strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("smtp: header injection rejected")
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	body := m.render(msg)

	done := make(chan error, 1)
	go func() {
		done <- m.sendMail(addr, auth, m.username, []string{msg.To}, body)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send email via SMTP: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *SMTPMailer) render(msg account.EmailMessage) []byte {
	from := m.username
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", m.fromName, m.username)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
