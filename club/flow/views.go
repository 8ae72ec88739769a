package flow

import (
	"fmt"
	"strings"

	"github.com/m3rciful/clubbot/club/catalog"
	"github.com/m3rciful/clubbot/club/chat"
	"github.com/m3rciful/clubbot/club/conversation"
	"github.com/m3rciful/clubbot/club/inbound"
	"github.com/m3rciful/clubbot/club/texts"
	"github.com/m3rciful/clubbot/core/telegram/format"
)

func (m *Machine) welcome() chat.Message {
	return chat.Message{Text: texts.Welcome, Markdown: true, Reply: texts.ReplyKeyboard}
}

func (m *Machine) mainMenu() chat.Message {
	rows := [][]chat.Button{
		{{Text: texts.ButtonEvents, Data: inbound.PayloadListEvents}},
		{{Text: texts.ButtonRegister, Data: inbound.PayloadRegister}},
	}
	if link := strings.TrimSpace(m.cfg.ScheduleLink); link != "" {
		rows = append(rows, []chat.Button{{Text: texts.ButtonSchedule, URL: link}})
	}
	rows = append(rows, []chat.Button{
		{Text: texts.ButtonFAQ, Data: inbound.PayloadFAQ},
		{Text: texts.ButtonSupport, Data: inbound.PayloadSupport},
	})
	return chat.Message{Text: texts.ChooseOption, Inline: rows}
}

func backRow(payload string) []chat.Button {
	return []chat.Button{{Text: texts.ButtonBack, Data: payload}}
}

func (m *Machine) faq() chat.Message {
	return chat.Message{Text: texts.FAQ, Markdown: true, Inline: [][]chat.Button{backRow(inbound.PayloadBackHome)}}
}

func (m *Machine) support() chat.Message {
	contact := strings.TrimSpace(m.cfg.SupportContact)
	if contact == "" {
		contact = texts.DefaultSupportContact
	}
	return chat.Message{Text: texts.SupportPrefix + contact, Inline: [][]chat.Button{backRow(inbound.PayloadBackHome)}}
}

// catalogList renders one button per event followed by a back row.
func (m *Machine) catalogList(title string) chat.Message {
	events := m.catalog.List()
	rows := make([][]chat.Button, 0, len(events)+1)
	for _, ev := range events {
		rows = append(rows, []chat.Button{{Text: ev.Label(), Data: inbound.PrefixEvent + ev.ID}})
	}
	if len(rows) == 0 {
		rows = append(rows, []chat.Button{{Text: texts.NoEvents, Data: inbound.PayloadNoop}})
	}
	rows = append(rows, backRow(inbound.PayloadBackHome))
	return chat.Message{Text: title, Inline: rows}
}

func eventCard(ev catalog.Event) chat.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", format.Bold(ev.Title))
	fmt.Fprintf(&b, "📍 %s\n", format.Escape(ev.Location))
	fmt.Fprintf(&b, "🕒 %s\n", format.Escape(ev.Schedule))
	fmt.Fprintf(&b, "💶 %s", format.Escape(ev.Price))

	rows := [][]chat.Button{{{Text: texts.ButtonRegisterThis, Data: inbound.PrefixRegister + ev.ID}}}
	if ev.MapLink != "" {
		rows = append(rows, []chat.Button{{Text: texts.ButtonMap, URL: ev.MapLink}})
	}
	rows = append(rows, backRow(inbound.PayloadListEvents))
	return chat.Message{Text: b.String(), Markdown: true, Inline: rows}
}

func rulesGate(ev catalog.Event) chat.Message {
	return chat.Message{
		Text: texts.Rules + "\n📌 " + ev.Label(),
		Inline: [][]chat.Button{
			{{Text: texts.ButtonAcceptRules, Data: inbound.PayloadAcceptRules}},
			backRow(inbound.PayloadListEvents),
		},
	}
}

func askName() chat.Message {
	return chat.Message{Text: texts.AskName, Markdown: true}
}

func askPhone() chat.Message {
	return chat.Message{Text: texts.AskPhone, RequestContact: texts.ButtonSharePhone}
}

func askLevel() chat.Message {
	choices := conversation.Levels()
	rows := make([][]chat.Button, 0, len(choices))
	for _, l := range choices {
		rows = append(rows, []chat.Button{{Text: l.Label, Data: l.Payload}})
	}
	return chat.Message{Text: texts.AskLevel, Inline: rows}
}

func askNote() chat.Message {
	return chat.Message{Text: texts.AskNote, Markdown: true}
}
