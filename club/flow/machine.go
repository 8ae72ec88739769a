// Package flow is the registration state machine: it applies classified
// transitions to a user's conversation state and decides what to show next.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/m3rciful/clubbot/club/catalog"
	"github.com/m3rciful/clubbot/club/chat"
	"github.com/m3rciful/clubbot/club/conversation"
	"github.com/m3rciful/clubbot/club/inbound"
	"github.com/m3rciful/clubbot/club/moderation"
	"github.com/m3rciful/clubbot/club/texts"
	"github.com/m3rciful/clubbot/core/logger"
)

// Name length bounds, in characters, after trimming.
const (
	MinNameLen = 2
	MaxNameLen = 60
)

var errUnhandled = errors.New("flow: unhandled transition")

// Moderator receives finished registrations and moderators' decisions.
type Moderator interface {
	NewSubmission(s moderation.Submission) moderation.Submission
	Submit(ctx context.Context, s moderation.Submission)
	ResolveDecision(ctx context.Context, req moderation.DecisionRequest) error
}

// Config holds the view settings of the flow.
type Config struct {
	// ScheduleLink adds a public schedule button to the main menu when set.
	ScheduleLink   string
	SupportContact string
}

// Machine drives every user's registration.
type Machine struct {
	store   conversation.Store
	catalog *catalog.Catalog
	tr      chat.Transport
	mod     Moderator
	cfg     Config
	log     *slog.Logger
}

// New builds a machine.
func New(store conversation.Store, cat *catalog.Catalog, tr chat.Transport, mod Moderator, cfg Config) *Machine {
	return &Machine{
		store:   store,
		catalog: cat,
		tr:      tr,
		mod:     mod,
		cfg:     cfg,
		log:     logger.Component("flow"),
	}
}

// Outcome describes how one inbound event was handled.
type Outcome struct {
	Transition inbound.Transition
	From       conversation.Step
	To         conversation.Step
}

// effects are the outbound actions of one transition. They run after the
// state change is committed and never touch the store.
type effects struct {
	// alert, when set, answers the button press as a blocking alert.
	alert string
	// view replaces the message whose button was pressed, retiring its
	// keyboard. Without a pressed message it is sent instead.
	view     *chat.Message
	messages []chat.Message
	submit   *moderation.Submission
	decision *moderation.DecisionRequest
}

// Handle classifies ev against the sender's current step, applies the
// transition and delivers the resulting messages.
func (m *Machine) Handle(ctx context.Context, ev inbound.Event) Outcome {
	var (
		out Outcome
		fx  effects
		err error
	)
	m.store.Update(ev.UserID, func(st *conversation.State) {
		out.From = st.Step
		out.Transition = inbound.Classify(ev, st.Step)
		fx, err = m.apply(st, ev, out.Transition)
		out.To = st.Step
	})

	level := slog.LevelDebug
	attrs := []slog.Attr{
		slog.String("transition", out.Transition.Kind.String()),
		slog.String("step_from", out.From.String()),
		slog.String("step_to", out.To.String()),
		slog.String("input", ev.Kind.String()),
	}
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	logger.LogEvent(ctx, m.log, level, "flow.transition", attrs...)

	m.deliver(ctx, ev, fx)
	return out
}

func (m *Machine) apply(st *conversation.State, ev inbound.Event, t inbound.Transition) (effects, error) {
	switch t.Kind {
	case inbound.Ignore, inbound.Noop:
		return effects{}, nil

	case inbound.Restart:
		*st = conversation.State{}
		return effects{messages: []chat.Message{m.welcome(), m.mainMenu()}}, nil

	case inbound.Cancel:
		*st = conversation.State{}
		cancelled := chat.Message{Text: texts.Cancelled, Reply: texts.ReplyKeyboard}
		return effects{messages: []chat.Message{cancelled, m.mainMenu()}}, nil

	case inbound.BackHome:
		return show(m.mainMenu()), nil

	case inbound.FAQ:
		return show(m.faq()), nil

	case inbound.Support:
		return show(m.support()), nil

	case inbound.ListEvents:
		return show(m.catalogList(texts.UpcomingEvents)), nil

	case inbound.Register:
		st.Step = conversation.StepPickEvent
		return show(m.catalogList(texts.PickEvent)), nil

	case inbound.EventSelected:
		event, err := m.catalog.Lookup(t.Arg)
		if err != nil {
			return effects{alert: texts.EventNotFound}, nil
		}
		if st.Step != conversation.StepPickEvent {
			return show(eventCard(event)), nil
		}
		st.SelectedEventID = event.ID
		return show(rulesGate(event)), nil

	case inbound.RegisterEvent:
		event, err := m.catalog.Lookup(t.Arg)
		if err != nil {
			return effects{alert: texts.EventNotFound}, nil
		}
		st.SelectedEventID = event.ID
		return show(rulesGate(event)), nil

	case inbound.AcceptRules:
		st.Step = conversation.StepName
		return show(askName()), nil

	case inbound.NameEntered:
		name := strings.TrimSpace(t.Arg)
		if n := utf8.RuneCountInString(name); n < MinNameLen || n > MaxNameLen {
			return effects{messages: []chat.Message{{Text: texts.InvalidName}}}, nil
		}
		st.Name = name
		st.Step = conversation.StepPhone
		return effects{messages: []chat.Message{askPhone()}}, nil

	case inbound.PhoneTyped, inbound.PhoneShared:
		phone := strings.TrimSpace(t.Arg)
		if phone == "" {
			return effects{messages: []chat.Message{{Text: texts.EmptyPhone}}}, nil
		}
		st.Phone = phone
		st.Step = conversation.StepLevel
		saved := chat.Message{Text: texts.PhoneSaved, RemoveReply: true}
		return effects{messages: []chat.Message{saved, askLevel()}}, nil

	case inbound.LevelChosen:
		st.Level = conversation.LevelLabel(t.Arg)
		st.Step = conversation.StepNote
		return show(askNote()), nil

	case inbound.NoteEntered:
		// A level press on a retired prompt can reach NOTE without the
		// earlier answers; such a registration is dropped.
		if st.Name == "" || st.Phone == "" {
			*st = conversation.State{}
			incomplete := chat.Message{Text: texts.Incomplete}
			return effects{messages: []chat.Message{incomplete, m.mainMenu()}}, nil
		}
		st.Note = strings.TrimSpace(t.Arg)
		s := m.finalize(*st, ev)
		*st = conversation.State{}
		return effects{submit: &s}, nil

	case inbound.Decision:
		return effects{decision: &moderation.DecisionRequest{
			Payload:     t.Arg,
			Moderator:   ev.SenderName,
			ChatID:      ev.ChatID,
			CallbackID:  ev.CallbackID,
			Message:     chat.MessageRef{ChatID: ev.ChatID, MessageID: ev.MessageID},
			MessageText: ev.MessageText,
		}}, nil
	}
	return effects{}, fmt.Errorf("%w: %s", errUnhandled, t.Kind)
}

func show(msg chat.Message) effects {
	return effects{view: &msg}
}

// finalize builds the submission, falling back to the first catalog event
// when none was selected.
func (m *Machine) finalize(st conversation.State, ev inbound.Event) moderation.Submission {
	event, err := m.catalog.Lookup(st.SelectedEventID)
	if err != nil {
		event = m.catalog.First()
	}
	return m.mod.NewSubmission(moderation.Submission{
		UserID: ev.UserID,
		ChatID: ev.ChatID,
		Event:  event,
		Name:   st.Name,
		Phone:  st.Phone,
		Level:  st.Level,
		Note:   st.Note,
	})
}

func (m *Machine) deliver(ctx context.Context, ev inbound.Event, fx effects) {
	// Decisions are answered by the moderation dispatcher.
	if ev.Kind == inbound.KindButton && fx.decision == nil {
		if err := m.tr.Answer(ctx, ev.CallbackID, fx.alert, fx.alert != ""); err != nil {
			m.logFailure(ctx, "flow.answer", err)
		}
	}
	if fx.view != nil {
		var err error
		if ev.Kind == inbound.KindButton && ev.MessageID != 0 {
			err = m.tr.Edit(ctx, chat.MessageRef{ChatID: ev.ChatID, MessageID: ev.MessageID}, *fx.view)
		} else {
			err = m.tr.Send(ctx, ev.ChatID, *fx.view)
		}
		if err != nil {
			m.logFailure(ctx, "flow.view", err)
		}
	}
	for _, msg := range fx.messages {
		if err := m.tr.Send(ctx, ev.ChatID, msg); err != nil {
			m.logFailure(ctx, "flow.send", err)
		}
	}
	if fx.submit != nil {
		m.mod.Submit(ctx, *fx.submit)
	}
	if fx.decision != nil {
		if err := m.mod.ResolveDecision(ctx, *fx.decision); err != nil {
			logger.LogEvent(ctx, m.log, slog.LevelWarn, "flow.decision",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}
}

func (m *Machine) logFailure(ctx context.Context, event string, err error) {
	logger.LogEvent(ctx, m.log, slog.LevelWarn, event,
		slog.String("status", "fail"),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
}
