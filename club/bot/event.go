package bot

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/clubbot/club/inbound"
)

// EventFromContext converts a telebot update into an inbound event. It
// reports false for updates the registration flow never looks at.
func EventFromContext(c tele.Context) (inbound.Event, bool) {
	user := c.Sender()
	if user == nil {
		return inbound.Event{}, false
	}
	ev := inbound.Event{UserID: user.ID, ChatID: user.ID, SenderName: displayName(user)}
	if ch := c.Chat(); ch != nil {
		ev.ChatID = ch.ID
	}

	if cb := c.Callback(); cb != nil {
		ev.Kind = inbound.KindButton
		ev.Data = cb.Data
		ev.CallbackID = cb.ID
		if cb.Message != nil {
			ev.MessageID = cb.Message.ID
			ev.MessageText = cb.Message.Text
		}
		return ev, true
	}

	msg := c.Message()
	if msg == nil {
		return inbound.Event{}, false
	}
	switch {
	case msg.Contact != nil:
		ev.Kind = inbound.KindContact
		ev.Phone = strings.TrimSpace(msg.Contact.PhoneNumber)
	case strings.HasPrefix(msg.Text, "/"):
		ev.Kind = inbound.KindCommand
		ev.Text = msg.Text
	case msg.Text != "":
		ev.Kind = inbound.KindText
		ev.Text = msg.Text
	default:
		return inbound.Event{}, false
	}
	return ev, true
}

func displayName(u *tele.User) string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return ""
}
