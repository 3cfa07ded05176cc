/*
mailer.go - SMTP delivery

PURPOSE:
  Plain SMTP with AUTH on the submission port. Credentials come
  from configuration; a Mailer with no host configured is a no-op
  that reports itself disabled, so a dev setup without SMTP still
  runs everything else.
*/
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

// ErrMailerDisabled is returned when no SMTP host is configured.
var ErrMailerDisabled = errors.New("email delivery not configured")

// Mailer sends digest emails over SMTP.
type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	// send is swappable for tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer creates a mailer. An empty host disables delivery.
func NewMailer(host string, port int, username, password, from string) *Mailer {
	return &Mailer{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		From:     from,
		send:     smtp.SendMail,
	}
}

// Enabled reports whether delivery is configured.
func (m *Mailer) Enabled() bool {
	return m.Host != ""
}

// SendDigest renders and sends a digest to the recipients.
func (m *Mailer) SendDigest(ctx context.Context, to []string, subject string, d *Digest) error {
	if !m.Enabled() {
		return ErrMailerDisabled
	}
	if len(to) == 0 {
		return errors.New("no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := d.Render()
	if err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	if err := m.send(addr, auth, m.From, to, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}
	return nil
}
