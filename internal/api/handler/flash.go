package handler

import (
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	flashSession   = "flash"
	flashSuccess   = "success"
	flashError     = "error"
	csrfContextKey = "csrf"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

// addFlash queues msg in the signed flash cookie. Failures only lose the message.
func addFlash(c echo.Context, log zerolog.Logger, kind, msg string) {
	sess, err := session.Get(flashSession, c)
	if err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("load flash session")
		return
	}
	sess.AddFlash(msg, kind)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("save flash")
	}
}

// popFlashes drains queued messages. If the drained session cannot be saved
// the messages show up again on the next page.
func popFlashes(c echo.Context, log zerolog.Logger) []Flash {
	sess, err := session.Get(flashSession, c)
	if err != nil {
		log.Warn().Err(err).Msg("load flash session")
		return nil
	}

	var out []Flash
	for _, kind := range []string{flashSuccess, flashError} {
		for _, v := range sess.Flashes(kind) {
			if msg, ok := v.(string); ok {
				out = append(out, Flash{Kind: kind, Message: msg})
			}
		}
	}
	if len(out) > 0 {
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			log.Warn().Err(err).Int("flashes", len(out)).Msg("save drained flashes")
		}
	}
	return out
}
