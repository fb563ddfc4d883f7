// Package mailx dispatches the transactional mail the auth flows need.
// Delivery is a side effect behind the Notifier interface: a failure is
// reported to the caller but never rolls back committed account state.
package mailx

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Notifier sends account lifecycle email. Implementations must be safe for
// concurrent use.
type Notifier interface {
	// ActivationEmail delivers the account-activation link for token.
	ActivationEmail(ctx context.Context, to, token string) error

	// PasswordResetEmail delivers the password-reset link for token.
	PasswordResetEmail(ctx context.Context, to, token string) error
}

// SMTPConfig configures the SMTP mailer. BaseURL is the public address of
// the frontend that terminates the activation/reset links.
type SMTPConfig struct {
	Addr     string // host:port of the SMTP server
	Username string
	Password string
	From     string
	BaseURL  string
}

// SMTPMailer delivers mail over plain SMTP.
type SMTPMailer struct {
	cfg  SMTPConfig
	auth smtp.Auth
}

// NewSMTPMailer builds an SMTPMailer. Auth is skipped when no username is
// configured (e.g. a local relay).
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		host := cfg.Addr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, host)
	}
	return &SMTPMailer{cfg: cfg, auth: auth}
}

func (m *SMTPMailer) ActivationEmail(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/activate?token=%s", strings.TrimRight(m.cfg.BaseURL, "/"), token)
	body := "Welcome!\r\n\r\n" +
		"Confirm your email address to activate your account:\r\n\r\n" +
		link + "\r\n\r\n" +
		"The link is valid for 24 hours. If you did not register, ignore this email.\r\n"
	return m.send(ctx, to, "Activate your account", body)
}

func (m *SMTPMailer) PasswordResetEmail(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/password/reset?token=%s", strings.TrimRight(m.cfg.BaseURL, "/"), token)
	body := "A password reset was requested for your account.\r\n\r\n" +
		link + "\r\n\r\n" +
		"The link is valid for 1 hour. If you did not request a reset, ignore this email.\r\n"
	return m.send(ctx, to, "Reset your password", body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")

	// net/smtp has no context support; the dial timeout is bounded by the
	// server's request deadline at the transport boundary.
	if err := smtp.SendMail(m.cfg.Addr, m.auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("mailx: send to %s failed: %w", to, err)
	}
	return nil
}
