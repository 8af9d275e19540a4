package service

import (
	"context"

	"github.com/rs/zerolog"
)

// Mailer delivers transactional mail. The default implementation only logs;
// a real SMTP or API-backed sender can be swapped in at wiring time.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes outgoing mail to the application log instead of sending it.
// Used in development and as the default until an SMTP provider is configured.
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log.With().Str("component", "mailer").Logger()}
}

// Send logs the mail and reports success.
func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.log.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("Outgoing mail")
	return nil
}
