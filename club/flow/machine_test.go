package flow

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/clubbot/club/catalog"
	"github.com/m3rciful/clubbot/club/chat"
	"github.com/m3rciful/clubbot/club/chat/chattest"
	"github.com/m3rciful/clubbot/club/conversation"
	"github.com/m3rciful/clubbot/club/inbound"
	"github.com/m3rciful/clubbot/club/moderation"
	"github.com/m3rciful/clubbot/club/texts"
	"github.com/m3rciful/clubbot/core/telegram/state"
)

const (
	userID  int64 = 12345
	modChat int64 = -100777
)

type harness struct {
	m     *Machine
	tr    *chattest.Transport
	store *state.MemoryStore[conversation.State]
	mod   *moderation.Dispatcher
}

func newHarness(t *testing.T, cat *catalog.Catalog, links map[string]string) *harness {
	t.Helper()
	if cat == nil {
		var err error
		cat, err = catalog.Load("")
		require.NoError(t, err)
	}
	tr := &chattest.Transport{}
	store := conversation.NewMemoryStore()
	mod := moderation.NewDispatcher(tr, moderation.Config{ChatID: modChat, CoordinationLinks: links})
	h := &harness{
		m:     New(store, cat, tr, mod, Config{ScheduleLink: "https://example.org/schedule"}),
		tr:    tr,
		store: store,
		mod:   mod,
	}
	t.Cleanup(mod.Wait)
	return h
}

func (h *harness) step() conversation.Step {
	return h.store.Get(userID).Step
}

func (h *harness) send(ev inbound.Event) Outcome {
	return h.m.Handle(context.Background(), ev)
}

func text(s string) inbound.Event {
	return inbound.Event{Kind: inbound.KindText, UserID: userID, ChatID: userID, Text: s}
}

func command(s string) inbound.Event {
	return inbound.Event{Kind: inbound.KindCommand, UserID: userID, ChatID: userID, Text: s}
}

func contact(phone string) inbound.Event {
	return inbound.Event{Kind: inbound.KindContact, UserID: userID, ChatID: userID, Phone: phone}
}

func button(data string) inbound.Event {
	return inbound.Event{Kind: inbound.KindButton, UserID: userID, ChatID: userID, Data: data, CallbackID: "cb-" + data, MessageID: 10}
}

func inlineData(msg chat.Message) []string {
	var out []string
	for _, row := range msg.Inline {
		for _, b := range row {
			if b.Data != "" {
				out = append(out, b.Data)
			}
		}
	}
	return out
}

// toName drives a fresh user up to the NAME step through the catalog.
func (h *harness) toName(t *testing.T) {
	t.Helper()
	h.send(button(inbound.PayloadRegister))
	h.send(button("event_m1"))
	h.send(button(inbound.PayloadAcceptRules))
	require.Equal(t, conversation.StepName, h.step())
}

func TestHappyPath(t *testing.T) {
	h := newHarness(t, nil, nil)

	out := h.send(button(inbound.PayloadRegister))
	assert.Equal(t, conversation.StepPickEvent, out.To)
	list := h.tr.Last().Message
	assert.Equal(t, texts.PickEvent, list.Text)
	assert.Equal(t, []string{"event_m1", inbound.PayloadBackHome}, inlineData(list))

	h.send(button("event_m1"))
	assert.Equal(t, "m1", h.store.Get(userID).SelectedEventID)
	assert.Contains(t, h.tr.Last().Message.Text, texts.Rules)

	h.send(button(inbound.PayloadAcceptRules))
	assert.Equal(t, conversation.StepName, h.step())

	h.send(text("Alex Doe"))
	assert.Equal(t, conversation.StepPhone, h.step())
	assert.Equal(t, texts.ButtonSharePhone, h.tr.Last().Message.RequestContact)

	h.send(text("555-0100"))
	assert.Equal(t, conversation.StepLevel, h.step())

	h.send(button("lvl_B"))
	st := h.store.Get(userID)
	assert.Equal(t, conversation.StepNote, st.Step)
	assert.Equal(t, "Intermediate (B1–B2)", st.Level)
	prompt := h.tr.Last()
	assert.Equal(t, chattest.OpEdit, prompt.Op)
	assert.Equal(t, texts.AskNote, prompt.Message.Text)
	assert.Empty(t, prompt.Message.Inline)

	h.tr.Reset()
	out = h.send(text("-"))
	assert.Equal(t, inbound.NoteEntered, out.Transition.Kind)
	assert.Equal(t, conversation.StepNone, out.To)
	assert.Equal(t, conversation.State{}, h.store.Get(userID))
	assert.Zero(t, h.store.Len())

	toUser := h.tr.To(userID)
	require.Len(t, toUser, 1)
	assert.Contains(t, toUser[0].Message.Text, "Coffee & Conversation")
	assert.Contains(t, toUser[0].Message.Text, "Alex Doe")

	toMods := h.tr.To(modChat)
	require.Len(t, toMods, 1)
	assert.Equal(t, []string{"approve_12345_m1", "reject_12345_m1"}, inlineData(toMods[0].Message))
}

func TestEveryButtonIsAnsweredOnce(t *testing.T) {
	h := newHarness(t, nil, nil)
	for _, data := range []string{"noop", "faq", "support", "back_home", "list_events", "mystery"} {
		h.tr.Reset()
		h.send(button(data))
		var answers int
		for _, c := range h.tr.Calls() {
			if c.Op == chattest.OpAnswer {
				answers++
				assert.Equal(t, "cb-"+data, c.CallbackID)
				assert.False(t, c.Alert)
			}
		}
		assert.Equal(t, 1, answers, data)
	}
}

func TestInvalidNameRetry(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.toName(t)

	h.send(text("A"))
	assert.Equal(t, conversation.StepName, h.step())
	assert.Equal(t, texts.InvalidName, h.tr.Last().Message.Text)

	h.send(text("Ann Lee"))
	assert.Equal(t, conversation.StepPhone, h.step())
	assert.Equal(t, "Ann Lee", h.store.Get(userID).Name)
}

func TestNameBounds(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
	}{
		{"", false},
		{"   ", false},
		{"A", false},
		{"Al", true},
		{"  Al  ", true},
		{strings.Repeat("n", 60), true},
		{strings.Repeat("n", 61), false},
		{strings.Repeat("ä", 60), true},
	}
	for _, tc := range cases {
		h := newHarness(t, nil, nil)
		h.toName(t)
		h.send(text(tc.name))
		if tc.ok {
			assert.Equal(t, conversation.StepPhone, h.step(), "%q", tc.name)
			assert.Equal(t, strings.TrimSpace(tc.name), h.store.Get(userID).Name)
		} else {
			assert.Equal(t, conversation.StepName, h.step(), "%q", tc.name)
		}
	}
}

func TestResetFromEveryStep(t *testing.T) {
	resets := map[string]inbound.Event{
		"restart keyword": text(texts.KeywordRestart),
		"cancel keyword":  text(texts.KeywordCancel),
		"start command":   command("/start"),
		"cancel command":  command("/cancel"),
	}
	for _, step := range conversation.Steps() {
		for name, ev := range resets {
			h := newHarness(t, nil, nil)
			h.store.Set(userID, conversation.State{
				Step:            step,
				SelectedEventID: "m1",
				Name:            "Alex Doe",
				Phone:           "555-0100",
				Level:           "Advanced (C1+)",
				Note:            "hi",
			})

			out := h.send(ev)
			assert.Equal(t, step, out.From, name)
			assert.Equal(t, conversation.State{}, h.store.Get(userID), "%s from %s", name, step)
			assert.Equal(t, texts.ChooseOption, h.tr.Last().Message.Text)
		}
	}
}

func TestNavigationKeepsProgress(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.toName(t)
	h.send(text("Alex Doe"))
	before := h.store.Get(userID)

	h.tr.Reset()
	for _, data := range []string{"faq", "support", "back_home", "list_events", "noop"} {
		h.send(button(data))
	}
	assert.Equal(t, before, h.store.Get(userID))

	views := h.tr.To(userID)
	require.Len(t, views, 4)
	for _, c := range views {
		assert.Equal(t, chattest.OpEdit, c.Op)
		assert.Equal(t, 10, c.MessageID)
	}
	assert.Equal(t, texts.UpcomingEvents, views[3].Message.Text)

	h.tr.Reset()
	unanchored := button("faq")
	unanchored.MessageID = 0
	h.send(unanchored)
	sent := h.tr.To(userID)
	require.Len(t, sent, 1)
	assert.Equal(t, chattest.OpSend, sent[0].Op)
}

func TestLevelPressAfterFinalizeCannotSubmitEmptyRegistration(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.toName(t)
	h.send(text("Alex Doe"))
	h.send(text("555-0100"))
	h.send(button("lvl_B"))
	h.send(text("-"))
	require.Len(t, h.tr.To(modChat), 1)

	h.tr.Reset()
	h.send(button("lvl_A"))
	assert.Equal(t, conversation.StepNote, h.step())

	h.send(text("hello"))
	assert.Empty(t, h.tr.To(modChat))
	assert.Equal(t, conversation.State{}, h.store.Get(userID))
	sent := h.tr.To(userID)
	require.Len(t, sent, 3)
	assert.Equal(t, texts.Incomplete, sent[1].Message.Text)
	assert.Equal(t, texts.ChooseOption, sent[2].Message.Text)
}

func TestNoteAfterFinalizeIsIgnored(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.store.Set(userID, conversation.State{Step: conversation.StepNote, SelectedEventID: "m1", Name: "Alex Doe", Phone: "555-0100"})

	h.send(text("first"))
	h.tr.Reset()
	out := h.send(text("second"))
	assert.Equal(t, inbound.Ignore, out.Transition.Kind)
	assert.Empty(t, h.tr.Calls())
}

func TestFinalizeFallsBackToFirstEvent(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.store.Set(userID, conversation.State{Step: conversation.StepLevel, Name: "Alex Doe", Phone: "555-0100"})
	h.send(button("lvl_C"))
	assert.Equal(t, conversation.StepNote, h.step())

	h.send(text("no event picked"))
	toMods := h.tr.To(modChat)
	require.Len(t, toMods, 1)
	assert.Equal(t, []string{"approve_12345_m1", "reject_12345_m1"}, inlineData(toMods[0].Message))
}

func TestFinalizeClearsStateWhenDeliveryFails(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.store.Set(userID, conversation.State{Step: conversation.StepNote, Name: "Alex Doe", Phone: "555-0100"})
	h.tr.Err = assert.AnError

	h.send(text("-"))
	assert.Equal(t, conversation.State{}, h.store.Get(userID))
}

func TestMalformedCatalogStillRegisters(t *testing.T) {
	cat, err := catalog.Load(`{"not":"a list"}`)
	require.Error(t, err)
	h := newHarness(t, cat, map[string]string{"m1": "https://t.me/+coffee"})

	h.toName(t)
	h.send(text("Alex Doe"))
	h.send(contact("+15550100"))
	h.send(button("lvl_A"))
	h.send(text("-"))

	toMods := h.tr.To(modChat)
	require.Len(t, toMods, 1)
	assert.Contains(t, toMods[0].Message.Text, "Coffee")

	h.tr.Reset()
	decision := inbound.Event{
		Kind:        inbound.KindButton,
		UserID:      999,
		ChatID:      modChat,
		SenderName:  "Maria",
		Data:        "approve_12345_m1",
		CallbackID:  "cb-mod",
		MessageID:   55,
		MessageText: "request",
	}
	h.send(decision)
	toUser := h.tr.To(userID)
	require.Len(t, toUser, 1)
	assert.Equal(t, texts.ApprovedLink+"https://t.me/+coffee", toUser[0].Message.Text)
}

func TestPhoneSteps(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.store.Set(userID, conversation.State{Step: conversation.StepPhone, Name: "Alex Doe"})

	h.send(text("   "))
	assert.Equal(t, conversation.StepPhone, h.step())
	assert.Equal(t, texts.EmptyPhone, h.tr.Last().Message.Text)

	h.tr.Reset()
	h.send(contact("+15550100"))
	assert.Equal(t, conversation.StepLevel, h.step())
	assert.Equal(t, "+15550100", h.store.Get(userID).Phone)
	sent := h.tr.To(userID)
	require.Len(t, sent, 2)
	assert.True(t, sent[0].Message.RemoveReply)
	assert.Equal(t, []string{"lvl_A", "lvl_B", "lvl_C"}, inlineData(sent[1].Message))
}

func TestContactOutsidePhoneStepIsIgnored(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.toName(t)
	h.tr.Reset()
	out := h.send(contact("+15550100"))
	assert.Equal(t, inbound.Ignore, out.Transition.Kind)
	assert.Equal(t, conversation.StepName, h.step())
	assert.Empty(t, h.tr.Calls())
}

func TestUnclassifiableEventsAreSilent(t *testing.T) {
	h := newHarness(t, nil, nil)
	for _, ev := range []inbound.Event{text("hello"), command("/unknown"), contact("+1")} {
		out := h.send(ev)
		assert.Equal(t, inbound.Ignore, out.Transition.Kind)
	}
	h.send(button(inbound.PayloadRegister))
	h.tr.Reset()
	h.send(text("m1"))
	assert.Equal(t, conversation.StepPickEvent, h.step())
	assert.Empty(t, h.tr.Calls())
}

func TestLevelPayloadWinsAtAnyStep(t *testing.T) {
	for _, step := range conversation.Steps() {
		h := newHarness(t, nil, nil)
		h.store.Set(userID, conversation.State{Step: step, Name: "Alex Doe"})
		out := h.send(button("lvl_Z"))
		assert.Equal(t, inbound.LevelChosen, out.Transition.Kind)
		assert.Equal(t, conversation.StepNote, h.step())
		assert.Equal(t, conversation.UnknownLevel, h.store.Get(userID).Level)
	}
}

func TestEventCardAndUnknownEvent(t *testing.T) {
	h := newHarness(t, nil, nil)

	h.send(button("event_m1"))
	card := h.tr.Last().Message
	assert.True(t, card.Markdown)
	assert.Equal(t, []string{"register_m1", inbound.PayloadListEvents}, inlineData(card))
	assert.True(t, h.store.Get(userID).Idle())

	h.send(button("register_m1"))
	assert.Equal(t, "m1", h.store.Get(userID).SelectedEventID)

	h.tr.Reset()
	h.send(button("event_nope"))
	calls := h.tr.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, chattest.OpAnswer, calls[0].Op)
	assert.True(t, calls[0].Alert)
	assert.Equal(t, texts.EventNotFound, calls[0].Message.Text)
}

func TestMainMenuLayout(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.send(command("/start"))
	sent := h.tr.To(userID)
	require.Len(t, sent, 2)
	assert.Equal(t, texts.ReplyKeyboard, sent[0].Message.Reply)
	menu := sent[1].Message
	assert.Equal(t, []string{"list_events", "register", "faq", "support"}, inlineData(menu))
	assert.Equal(t, "https://example.org/schedule", menu.Inline[2][0].URL)
}

func TestApplyHandlesEveryTransition(t *testing.T) {
	h := newHarness(t, nil, nil)
	for _, kind := range inbound.TransitionKinds() {
		st := conversation.State{Step: conversation.StepNote}
		_, err := h.m.apply(&st, button("x"), inbound.Transition{Kind: kind, Arg: "m1"})
		assert.NoError(t, err, kind.String())
	}
	_, err := h.m.apply(&conversation.State{}, inbound.Event{}, inbound.Transition{Kind: -1})
	assert.ErrorIs(t, err, errUnhandled)
}
