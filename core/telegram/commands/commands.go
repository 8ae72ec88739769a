package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, menu description and visibility.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// Hidden commands are routed but not published in the command menu.
	Hidden bool
}
