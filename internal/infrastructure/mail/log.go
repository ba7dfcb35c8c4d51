package mail

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/enewspaper/newsroom/internal/core/ports"
)

// LogSender writes messages to the logger instead of sending them. Used in
// development when no SMTP relay is configured.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) (ports.Delivery, error) {
	s.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Text).
		Msg("email (not sent, no SMTP relay configured)")
	return ports.Delivery{Accepted: []string{msg.To}}, nil
}
