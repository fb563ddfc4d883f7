package mailx

import (
	"context"
	"log/slog"
)

// LogMailer writes mail to the log instead of delivering it. Used in dev
// when no SMTP relay is configured.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) ActivationEmail(ctx context.Context, to, token string) error {
	m.logger().Info("activation email (not delivered)", "to", to, "token", token)
	return nil
}

func (m *LogMailer) PasswordResetEmail(ctx context.Context, to, token string) error {
	m.logger().Info("password reset email (not delivered)", "to", to, "token", token)
	return nil
}

func (m *LogMailer) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}
