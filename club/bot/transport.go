package bot

import (
	"context"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/clubbot/club/chat"
	"github.com/m3rciful/clubbot/core/telegram/keyboard"
	"github.com/m3rciful/clubbot/core/telegram/sender"
)

// API is the part of the Telegram client the transport uses. *tele.Bot
// implements it.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error
}

// Transport delivers chat messages through the async sender, so calls
// return once the request is queued. Messages to one chat keep their order.
type Transport struct {
	api  API
	jobs *sender.Dispatcher
}

var _ chat.Transport = (*Transport)(nil)

// NewTransport wires the Telegram client to the sender dispatcher.
func NewTransport(api API, jobs *sender.Dispatcher) *Transport {
	return &Transport{api: api, jobs: jobs}
}

func (t *Transport) Send(ctx context.Context, chatID int64, msg chat.Message) error {
	opts := sendOptions(msg)
	return t.jobs.Enqueue(ctx, sender.Job{
		Key:      chatID,
		Action:   "send.text",
		Endpoint: "sendMessage",
		Run: func() error {
			_, err := t.api.Send(tele.ChatID(chatID), msg.Text, opts)
			return err
		},
	})
}

// Edit replaces the text of a sent message. Inline buttons not present in
// msg are removed.
func (t *Transport) Edit(ctx context.Context, ref chat.MessageRef, msg chat.Message) error {
	opts := sendOptions(msg)
	stored := tele.StoredMessage{MessageID: strconv.Itoa(ref.MessageID), ChatID: ref.ChatID}
	return t.jobs.Enqueue(ctx, sender.Job{
		Key:      ref.ChatID,
		Action:   "edit.text",
		Endpoint: "editMessageText",
		Run: func() error {
			_, err := t.api.Edit(stored, msg.Text, opts)
			return err
		},
	})
}

func (t *Transport) Answer(ctx context.Context, callbackID, text string, alert bool) error {
	return t.jobs.Enqueue(ctx, sender.Job{
		Action:   "callback.answer",
		Endpoint: "answerCallbackQuery",
		Run: func() error {
			return t.api.Respond(&tele.Callback{ID: callbackID}, &tele.CallbackResponse{
				Text:      text,
				ShowAlert: alert,
			})
		},
	})
}

func sendOptions(msg chat.Message) *tele.SendOptions {
	opts := &tele.SendOptions{ReplyMarkup: markup(msg)}
	if msg.Markdown {
		opts.ParseMode = tele.ModeMarkdown
	}
	return opts
}

// markup picks the keyboard of msg. Inline buttons win over reply keyboards.
func markup(msg chat.Message) *tele.ReplyMarkup {
	switch {
	case len(msg.Inline) > 0:
		rows := make([][]keyboard.InlineBtn, 0, len(msg.Inline))
		for _, row := range msg.Inline {
			r := make([]keyboard.InlineBtn, 0, len(row))
			for _, b := range row {
				r = append(r, keyboard.InlineBtn{Text: b.Text, Data: b.Data, URL: b.URL})
			}
			rows = append(rows, r)
		}
		return keyboard.InlineButtonsRows(rows...)
	case msg.RequestContact != "":
		return keyboard.ContactRequest(msg.RequestContact)
	case len(msg.Reply) > 0:
		return keyboard.ReplyButtons(msg.Reply...)
	case msg.RemoveReply:
		return keyboard.RemoveKeyboard()
	}
	return nil
}
