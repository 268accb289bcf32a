package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/baechuer/account-service/internal/application/account"
)

// LogMailer writes messages to the log instead of sending them.
// Local development only: bodies carry live links.
type LogMailer struct {
	lg zerolog.Logger
}

func NewLogMailer(lg zerolog.Logger) *LogMailer {
	return &LogMailer{lg: lg}
}

func (m *LogMailer) Send(ctx context.Context, msg account.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.lg.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("email (log transport)")
	return nil
}
