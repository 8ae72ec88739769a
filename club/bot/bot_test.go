package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/clubbot/club/chat"
	"github.com/m3rciful/clubbot/club/chat/chattest"
	"github.com/m3rciful/clubbot/club/config"
	"github.com/m3rciful/clubbot/club/conversation"
	"github.com/m3rciful/clubbot/club/inbound"
	"github.com/m3rciful/clubbot/club/texts"
	"github.com/m3rciful/clubbot/core/bootstrap"
	coreconfig "github.com/m3rciful/clubbot/core/config"
	tg "github.com/m3rciful/clubbot/core/telegram"
	"github.com/m3rciful/clubbot/core/telegram/sender"
)

type apiCall struct {
	method string
	to     string
	text   string
	opts   *tele.SendOptions
	resp   *tele.CallbackResponse
}

type fakeAPI struct {
	mu    sync.Mutex
	calls []apiCall
}

func (f *fakeAPI) add(c apiCall) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeAPI) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.add(apiCall{method: "send", to: to.Recipient(), text: what.(string), opts: opts[0].(*tele.SendOptions)})
	return &tele.Message{}, nil
}

func (f *fakeAPI) Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error) {
	id, chatID := msg.MessageSig()
	f.add(apiCall{method: "edit", to: id + "@" + tele.ChatID(chatID).Recipient(), text: what.(string), opts: opts[0].(*tele.SendOptions)})
	return &tele.Message{}, nil
}

func (f *fakeAPI) Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error {
	f.add(apiCall{method: "respond", to: c.ID, resp: resp[0]})
	return nil
}

func TestTransportConvertsMessages(t *testing.T) {
	defer goleak.VerifyNone(t)

	api := &fakeAPI{}
	jobs := sender.NewDispatcher(sender.Options{Workers: 1})
	tr := NewTransport(api, jobs)
	ctx := context.Background()

	require.NoError(t, tr.Send(ctx, 42, chat.Message{
		Text:     "*menu*",
		Markdown: true,
		Inline: [][]chat.Button{
			{{Text: "Events", Data: "list_events"}},
			{{Text: "Schedule", URL: "https://example.org"}},
		},
	}))
	require.NoError(t, tr.Send(ctx, 42, chat.Message{Text: "phone?", RequestContact: "Share"}))
	require.NoError(t, tr.Send(ctx, 42, chat.Message{Text: "saved", RemoveReply: true}))
	require.NoError(t, tr.Send(ctx, 42, chat.Message{Text: "hi", Reply: texts.ReplyKeyboard}))
	require.NoError(t, tr.Edit(ctx, chat.MessageRef{ChatID: -100, MessageID: 7}, chat.Message{Text: "done"}))
	require.NoError(t, tr.Answer(ctx, "cb1", "nope", true))
	jobs.Close()

	require.Len(t, api.calls, 6)

	menu := api.calls[0]
	assert.Equal(t, "42", menu.to)
	assert.Equal(t, tele.ModeMarkdown, menu.opts.ParseMode)
	require.Len(t, menu.opts.ReplyMarkup.InlineKeyboard, 2)
	assert.Equal(t, "list_events", menu.opts.ReplyMarkup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "https://example.org", menu.opts.ReplyMarkup.InlineKeyboard[1][0].URL)

	phone := api.calls[1].opts.ReplyMarkup
	assert.True(t, phone.OneTimeKeyboard)
	assert.True(t, phone.ReplyKeyboard[0][0].Contact)

	assert.True(t, api.calls[2].opts.ReplyMarkup.RemoveKeyboard)
	assert.Equal(t, texts.KeywordRestart, api.calls[3].opts.ReplyMarkup.ReplyKeyboard[0][0].Text)
	assert.Empty(t, api.calls[3].opts.ParseMode)

	edit := api.calls[4]
	assert.Equal(t, "7@-100", edit.to)
	assert.Nil(t, edit.opts.ReplyMarkup)

	answer := api.calls[5]
	assert.Equal(t, "cb1", answer.to)
	assert.True(t, answer.resp.ShowAlert)
	assert.Equal(t, "nope", answer.resp.Text)
}

func TestTransportReportsClosedQueue(t *testing.T) {
	defer goleak.VerifyNone(t)

	jobs := sender.NewDispatcher(sender.Options{Workers: 1})
	jobs.Close()
	err := NewTransport(&fakeAPI{}, jobs).Send(context.Background(), 1, chat.Message{Text: "x"})
	assert.ErrorIs(t, err, sender.ErrQueueClosed)
}

func newContext(t *testing.T, upd tele.Update) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b.NewContext(upd)
}

func TestEventFromContext(t *testing.T) {
	user := &tele.User{ID: 5, FirstName: "Alex", LastName: "Doe"}
	private := &tele.Chat{ID: 5}

	ev, ok := EventFromContext(newContext(t, tele.Update{Message: &tele.Message{Sender: user, Chat: private, Text: "Alex Doe"}}))
	require.True(t, ok)
	assert.Equal(t, inbound.KindText, ev.Kind)
	assert.Equal(t, "Alex Doe", ev.SenderName)

	ev, ok = EventFromContext(newContext(t, tele.Update{Message: &tele.Message{Sender: user, Chat: private, Text: "/start@club_bot"}}))
	require.True(t, ok)
	assert.Equal(t, inbound.KindCommand, ev.Kind)

	ev, ok = EventFromContext(newContext(t, tele.Update{Message: &tele.Message{
		Sender: user, Chat: private, Contact: &tele.Contact{PhoneNumber: " +15550100 "},
	}}))
	require.True(t, ok)
	assert.Equal(t, inbound.KindContact, ev.Kind)
	assert.Equal(t, "+15550100", ev.Phone)

	group := &tele.Chat{ID: -100777}
	ev, ok = EventFromContext(newContext(t, tele.Update{Callback: &tele.Callback{
		ID:      "cb9",
		Sender:  &tele.User{ID: 9, Username: "maria"},
		Data:    "approve_5_m1",
		Message: &tele.Message{ID: 33, Chat: group, Text: "request"},
	}}))
	require.True(t, ok)
	assert.Equal(t, inbound.Event{
		Kind:        inbound.KindButton,
		UserID:      9,
		ChatID:      -100777,
		SenderName:  "@maria",
		Data:        "approve_5_m1",
		CallbackID:  "cb9",
		MessageID:   33,
		MessageText: "request",
	}, ev)

	_, ok = EventFromContext(newContext(t, tele.Update{Message: &tele.Message{Sender: user, Chat: private, Photo: &tele.Photo{}}}))
	assert.False(t, ok)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Config: coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "1:x"}},
	}
	cfg.Club.ModerationChatID = -100777
	cfg.Conversation.IdleTTL = time.Hour
	require.NoError(t, config.Normalize(cfg))
	return cfg
}

func TestRunOptions(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := newApp(testConfig(t), &bootstrap.Result{}, nil)
	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)

	assert.Len(t, opts.Registry.Commands(), 3)
	require.Len(t, opts.Tasks, 1)
	assert.Equal(t, "conversation.sweep", opts.Tasks[0].Name)

	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	jobs := sender.NewDispatcher(sender.Options{Workers: 1})
	defer jobs.Close()

	routes, err := opts.Routes(tg.Runtime{Bot: b, Dispatcher: jobs, Registry: opts.Registry})
	require.NoError(t, err)
	assert.Len(t, routes, 6)
	require.NotNil(t, a.machine)
	require.NoError(t, opts.OnStop(context.Background(), tg.Runtime{}))
	require.NoError(t, a.Close())
}

func TestHandleUpdateDrivesFlow(t *testing.T) {
	a := newApp(testConfig(t), &bootstrap.Result{}, nil)
	tr := &chattest.Transport{}
	a.wire(tr)

	user := &tele.User{ID: 5, FirstName: "Alex"}
	c := newContext(t, tele.Update{ID: 1, Callback: &tele.Callback{
		ID: "cb1", Sender: user, Data: "register",
		Message: &tele.Message{ID: 3, Chat: &tele.Chat{ID: 5}},
	}})
	require.NoError(t, a.handleUpdate(c))
	assert.Equal(t, conversation.StepPickEvent, a.store.Get(5).Step)
	edits := tr.To(5)
	require.Len(t, edits, 1)
	assert.Equal(t, chattest.OpEdit, edits[0].Op)
	assert.Equal(t, 3, edits[0].MessageID)

	c = newContext(t, tele.Update{ID: 2, Message: &tele.Message{Sender: user, Chat: &tele.Chat{ID: 5}, Text: "/cancel"}})
	require.NoError(t, a.handleUpdate(c))
	assert.True(t, a.store.Get(5).Idle())
	assert.Equal(t, texts.ChooseOption, tr.Last().Message.Text)
}
