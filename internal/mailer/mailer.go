package mailer

import (
	"context"
	"log/slog"
)

// Mailer delivers transactional mail to users
type Mailer interface {
	// SendResetEmail sends the password reset link to the given address
	SendResetEmail(ctx context.Context, address, resetURL string) error
}

// LogMailer logs outgoing mail instead of delivering it. Used in
// development and tests; the reset URL never appears above debug level.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendResetEmail(ctx context.Context, address, resetURL string) error {
	m.logger.InfoContext(ctx, "Password reset email queued", "to", address)
	m.logger.DebugContext(ctx, "Password reset link", "url", resetURL)
	return nil
}
