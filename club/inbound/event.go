// Package inbound turns raw chat updates into the closed set of transitions
// the registration flow understands.
package inbound

// Kind tags a raw inbound event.
type Kind int

const (
	KindCommand Kind = iota + 1
	KindText
	KindContact
	KindButton
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindText:
		return "text"
	case KindContact:
		return "contact"
	case KindButton:
		return "button"
	}
	return "unknown"
}

// Event is a messenger-neutral inbound update.
type Event struct {
	Kind   Kind
	UserID int64
	ChatID int64
	// SenderName is the display name of the sender, used for moderation audit lines.
	SenderName string

	// Text is the message text for commands and plain text.
	Text string
	// Phone is the shared phone number for contact events.
	Phone string

	// Data, CallbackID and Message describe a button press.
	Data       string
	CallbackID string
	MessageID  int
	// MessageText is the current text of the message carrying the button.
	MessageText string
}
