package inbound

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/m3rciful/clubbot/club/conversation"
	"github.com/m3rciful/clubbot/club/texts"
)

func button(data string) Event { return Event{Kind: KindButton, Data: data, UserID: 1, ChatID: 1} }
func text(s string) Event { return Event{Kind: KindText, Text: s, UserID: 1, ChatID: 1} }
func command(s string) Event { return Event{Kind: KindCommand, Text: s, UserID: 1, ChatID: 1} }
func contact(phone string) Event { return Event{Kind: KindContact, Phone: phone, UserID: 1, ChatID: 1} }

func TestLevelPayloadWinsInEveryStep(t *testing.T) {
	for _, step := range conversation.Steps() {
		got := Classify(button("lvl_B"), step)
		assert.Equal(t, Transition{Kind: LevelChosen, Arg: "lvl_B"}, got, step.String())
	}
	assert.Equal(t, LevelChosen, Classify(button("lvl_"), conversation.StepNone).Kind)
}

func TestRestartAndCancelInEveryStep(t *testing.T) {
	for _, step := range conversation.Steps() {
		assert.Equal(t, Restart, Classify(text(texts.KeywordRestart), step).Kind, step.String())
		assert.Equal(t, Cancel, Classify(text(texts.KeywordCancel), step).Kind, step.String())
		assert.Equal(t, Restart, Classify(command("/start"), step).Kind, step.String())
		assert.Equal(t, Cancel, Classify(command("/cancel@EnglishClubBot"), step).Kind, step.String())
	}
}

func TestButtonPayloads(t *testing.T) {
	cases := map[string]Transition{
		"noop":            {Kind: Noop},
		"back_home":       {Kind: BackHome},
		"faq":             {Kind: FAQ},
		"support":         {Kind: Support},
		"list_events":     {Kind: ListEvents},
		"register":        {Kind: Register},
		"accept_rules":    {Kind: AcceptRules},
		"event_m1":        {Kind: EventSelected, Arg: "m1"},
		"event_m_2":       {Kind: EventSelected, Arg: "m_2"},
		"register_m1":     {Kind: RegisterEvent, Arg: "m1"},
		"approve_42_m1":   {Kind: Decision, Arg: "approve_42_m1"},
		"reject_42_m1":    {Kind: Decision, Arg: "reject_42_m1"},
		"approve_garbage": {Kind: Decision, Arg: "approve_garbage"},
		"event_":          {Kind: Ignore},
		"register_":       {Kind: Ignore},
		"delete_all":      {Kind: Ignore},
		"":                {Kind: Ignore},
	}
	for data, want := range cases {
		assert.Equal(t, want, Classify(button(data), conversation.StepName), data)
	}
}

func TestContactOnlyDuringPhoneStep(t *testing.T) {
	for _, step := range conversation.Steps() {
		got := Classify(contact("+15550100"), step)
		if step == conversation.StepPhone {
			assert.Equal(t, Transition{Kind: PhoneShared, Arg: "+15550100"}, got)
			continue
		}
		assert.Equal(t, Ignore, got.Kind, step.String())
	}
}

func TestTextByStep(t *testing.T) {
	want := map[conversation.Step]TransitionKind{
		conversation.StepNone:      Ignore,
		conversation.StepPickEvent: Ignore,
		conversation.StepName:      NameEntered,
		conversation.StepPhone:     PhoneTyped,
		conversation.StepLevel:     Ignore,
		conversation.StepNote:      NoteEntered,
	}
	for step, kind := range want {
		got := Classify(text("Alex Doe"), step)
		assert.Equal(t, kind, got.Kind, step.String())
		if kind != Ignore {
			assert.Equal(t, "Alex Doe", got.Arg)
		}
	}
}

func TestUnknownCommandsAreIgnoredAndHelpShowsFAQ(t *testing.T) {
	assert.Equal(t, Ignore, Classify(command("/settings"), conversation.StepName).Kind)
	assert.Equal(t, FAQ, Classify(command("/help"), conversation.StepNone).Kind)
	assert.Equal(t, Ignore, Classify(Event{}, conversation.StepNote).Kind)
}

func TestTransitionKindNames(t *testing.T) {
	for _, k := range TransitionKinds() {
		assert.NotEqual(t, "unknown", k.String())
	}
	assert.Equal(t, "unknown", TransitionKind(-1).String())
}
