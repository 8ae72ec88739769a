package inbound

import (
	"strings"

	"github.com/m3rciful/clubbot/club/conversation"
	"github.com/m3rciful/clubbot/club/texts"
)

// TransitionKind is the closed set of classified transitions.
type TransitionKind int

const (
	Ignore TransitionKind = iota
	LevelChosen
	Restart
	Cancel
	Noop
	BackHome
	FAQ
	Support
	ListEvents
	EventSelected
	Register
	RegisterEvent
	AcceptRules
	Decision
	PhoneShared
	NameEntered
	PhoneTyped
	NoteEntered
)

var transitionNames = [...]string{
	"ignore", "level_chosen", "restart", "cancel", "noop", "back_home", "faq",
	"support", "list_events", "event_selected", "register", "register_event",
	"accept_rules", "decision", "phone_shared", "name_entered", "phone_typed",
	"note_entered",
}

func (k TransitionKind) String() string {
	if k < 0 || int(k) >= len(transitionNames) {
		return "unknown"
	}
	return transitionNames[k]
}

// TransitionKinds lists every transition kind.
func TransitionKinds() []TransitionKind {
	out := make([]TransitionKind, len(transitionNames))
	for i := range out {
		out[i] = TransitionKind(i)
	}
	return out
}

// Transition is a classified event. Arg carries the event id, level or
// decision payload, entered text or shared phone, depending on Kind.
type Transition struct {
	Kind TransitionKind
	Arg  string
}

// Callback payload prefixes and fixed payloads.
const (
	PayloadNoop        = "noop"
	PayloadBackHome    = "back_home"
	PayloadFAQ         = "faq"
	PayloadSupport     = "support"
	PayloadListEvents  = "list_events"
	PayloadRegister    = "register"
	PayloadAcceptRules = "accept_rules"

	PrefixLevel    = "lvl_"
	PrefixEvent    = "event_"
	PrefixRegister = "register_"
	PrefixApprove  = "approve_"
	PrefixReject   = "reject_"
)

var fixedPayloads = map[string]TransitionKind{
	PayloadNoop:        Noop,
	PayloadBackHome:    BackHome,
	PayloadFAQ:         FAQ,
	PayloadSupport:     Support,
	PayloadListEvents:  ListEvents,
	PayloadRegister:    Register,
	PayloadAcceptRules: AcceptRules,
}

// Classify maps an event and the sender's current step to one transition.
// Rules are tried in a fixed order and the first match wins:
// level payloads, restart/cancel, other button payloads, contact shares,
// then plain text by step.
func Classify(ev Event, step conversation.Step) Transition {
	if ev.Kind == KindButton && strings.HasPrefix(ev.Data, PrefixLevel) {
		return Transition{Kind: LevelChosen, Arg: ev.Data}
	}

	if k, ok := resetKind(ev); ok {
		return Transition{Kind: k}
	}

	switch ev.Kind {
	case KindButton:
		return classifyButton(ev.Data)
	case KindContact:
		if step == conversation.StepPhone && ev.Phone != "" {
			return Transition{Kind: PhoneShared, Arg: ev.Phone}
		}
		return Transition{Kind: Ignore}
	case KindCommand:
		if commandName(ev.Text) == "/help" {
			return Transition{Kind: FAQ}
		}
		return Transition{Kind: Ignore}
	case KindText:
		return classifyText(ev.Text, step)
	}
	return Transition{Kind: Ignore}
}

func resetKind(ev Event) (TransitionKind, bool) {
	switch ev.Kind {
	case KindText:
		switch strings.TrimSpace(ev.Text) {
		case texts.KeywordRestart:
			return Restart, true
		case texts.KeywordCancel:
			return Cancel, true
		}
	case KindCommand:
		switch commandName(ev.Text) {
		case "/start":
			return Restart, true
		case "/cancel":
			return Cancel, true
		}
	}
	return Ignore, false
}

func classifyButton(data string) Transition {
	if k, ok := fixedPayloads[data]; ok {
		return Transition{Kind: k}
	}
	if id, ok := cutNonEmpty(data, PrefixEvent); ok {
		return Transition{Kind: EventSelected, Arg: id}
	}
	if id, ok := cutNonEmpty(data, PrefixRegister); ok {
		return Transition{Kind: RegisterEvent, Arg: id}
	}
	if strings.HasPrefix(data, PrefixApprove) || strings.HasPrefix(data, PrefixReject) {
		return Transition{Kind: Decision, Arg: data}
	}
	return Transition{Kind: Ignore}
}

func classifyText(text string, step conversation.Step) Transition {
	switch step {
	case conversation.StepName:
		return Transition{Kind: NameEntered, Arg: text}
	case conversation.StepPhone:
		return Transition{Kind: PhoneTyped, Arg: text}
	case conversation.StepNote:
		return Transition{Kind: NoteEntered, Arg: text}
	}
	return Transition{Kind: Ignore}
}

func cutNonEmpty(s, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(s, prefix)
	return rest, ok && rest != ""
}

// commandName strips arguments and the "@botname" suffix from a command.
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	name, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(name)
}
