// Package chattest provides an in-memory chat.Transport for tests.
package chattest

import (
	"context"
	"sync"

	"github.com/m3rciful/clubbot/club/chat"
)

// Op names a recorded transport call.
type Op string

const (
	OpSend   Op = "send"
	OpEdit   Op = "edit"
	OpAnswer Op = "answer"
)

// Call is one recorded transport call.
type Call struct {
	Op         Op
	ChatID     int64
	MessageID  int
	Message    chat.Message
	CallbackID string
	Alert      bool
}

// Transport records every call. Err, if set, is returned from every call
// after recording it.
type Transport struct {
	mu    sync.Mutex
	calls []Call
	Err   error
}

var _ chat.Transport = (*Transport)(nil)

func (t *Transport) Send(_ context.Context, chatID int64, msg chat.Message) error {
	return t.record(Call{Op: OpSend, ChatID: chatID, Message: msg})
}

func (t *Transport) Edit(_ context.Context, ref chat.MessageRef, msg chat.Message) error {
	return t.record(Call{Op: OpEdit, ChatID: ref.ChatID, MessageID: ref.MessageID, Message: msg})
}

func (t *Transport) Answer(_ context.Context, callbackID, text string, alert bool) error {
	return t.record(Call{Op: OpAnswer, CallbackID: callbackID, Message: chat.Message{Text: text}, Alert: alert})
}

// Calls returns a copy of the recorded calls.
func (t *Transport) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Call, len(t.calls))
	copy(out, t.calls)
	return out
}

// To returns the sends and edits addressed to chatID.
func (t *Transport) To(chatID int64) []Call {
	var out []Call
	for _, c := range t.Calls() {
		if c.Op != OpAnswer && c.ChatID == chatID {
			out = append(out, c)
		}
	}
	return out
}

// Last returns the most recent call, or a zero Call.
func (t *Transport) Last() Call {
	calls := t.Calls()
	if len(calls) == 0 {
		return Call{}
	}
	return calls[len(calls)-1]
}

// Reset forgets recorded calls.
func (t *Transport) Reset() {
	t.mu.Lock()
	t.calls = nil
	t.mu.Unlock()
}

func (t *Transport) record(c Call) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, c)
	return t.Err
}
