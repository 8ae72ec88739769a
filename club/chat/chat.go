// Package chat is the transport port of the club bot: the few outbound
// operations the registration flow needs, independent of the messenger SDK.
package chat

import "context"

// Button is an inline button. A non-empty URL makes it a link button.
type Button struct {
	Text string
	Data string
	URL  string
}

// Message is an outgoing text with at most one kind of keyboard.
type Message struct {
	Text     string
	Markdown bool
	// Inline buttons are attached to the message itself.
	Inline [][]Button
	// Reply replaces the keyboard under the input field.
	Reply [][]string
	// RequestContact, when set, is the label of a one-time contact share button.
	RequestContact string
	// RemoveReply hides the keyboard under the input field.
	RemoveReply bool
}

// MessageRef points at a message previously sent to a chat.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Transport delivers messages. Implementations may deliver asynchronously;
// a nil error only means the request was accepted.
type Transport interface {
	Send(ctx context.Context, chatID int64, msg Message) error
	Edit(ctx context.Context, ref MessageRef, msg Message) error
	// Answer acknowledges a button press, optionally as a blocking alert.
	Answer(ctx context.Context, callbackID, text string, alert bool) error
}
