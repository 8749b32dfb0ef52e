package smtp

import (
	"fmt"
	"strings"
)

// Mailer собирает письмо и отправляет его через Dialer.
type Mailer struct {
	dialer Dialer
}

// NewMailer создает Mailer.
func NewMailer(d Dialer) *Mailer {
	return &Mailer{dialer: d}
}

// Send отправляет текстовое письмо одному получателю.
func (m *Mailer) Send(to, subject, body string) error {
	const op = "smtp.Send"
	if to == "" {
		return fmt.Errorf("%s: empty recipient", op)
	}

	client, err := m.dialer.Connect()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer client.Close()

	if err := client.Mail(m.dialer.From()); err != nil {
		return fmt.Errorf("%s: mail from: %w", op, err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("%s: rcpt %s: %w", op, to, err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("%s: data: %w", op, err)
	}
	if _, err := wc.Write([]byte(Compose(m.dialer.From(), to, subject, body))); err != nil {
		_ = wc.Close()
		return fmt.Errorf("%s: write: %w", op, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("%s: close data: %w", op, err)
	}
	if err := client.Quit(); err != nil {
		return fmt.Errorf("%s: quit: %w", op, err)
	}
	return nil
}

// Compose собирает заголовки и тело письма в формате RFC 5322.
func Compose(from, to, subject, body string) string {
	return strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")
}
