package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/clubbot/core/telegram"
	"github.com/m3rciful/clubbot/core/telegram/middleware"
)

// UpdateRoutes binds text messages, shared contacts and raw callback
// payloads to one handler. Classification of the update is left to the
// handler; the router only names it for the summary log line.
func UpdateRoutes(handler tele.HandlerFunc) []tg.Route {
	if handler == nil {
		return nil
	}
	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
	}

	text := func(c tele.Context) error {
		return handleWithSummary(c, "text", func() error { return handler(c) })
	}
	contact := func(c tele.Context) error {
		return handleWithSummary(c, "contact", func() error { return handler(c) })
	}
	callback := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		return handleWithSummary(c, callbackName(cb.Data), func() error { return handler(c) },
			slog.String("payload", cb.Data),
		)
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(text)},
		{Endpoint: tele.OnContact, Handler: wrap(contact)},
		{Endpoint: tele.OnCallback, Handler: wrap(callback)},
	}
}
