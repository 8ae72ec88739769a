// Package moderation routes finished registrations to the moderation chat
// and turns moderators' button presses into replies to the submitter.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/clubbot/club/catalog"
	"github.com/m3rciful/clubbot/club/chat"
	"github.com/m3rciful/clubbot/club/texts"
	"github.com/m3rciful/clubbot/core/logger"
	"github.com/m3rciful/clubbot/core/telegram/format"
)

// ErrForeignChat reports a decision pressed outside the moderation chat.
var ErrForeignChat = errors.New("moderation: decision outside moderation chat")

const recordTimeout = 30 * time.Second

// Submission is a completed registration.
type Submission struct {
	ID          uuid.UUID
	UserID      int64
	ChatID      int64
	Event       catalog.Event
	Name        string
	Phone       string
	Level       string
	Note        string
	SubmittedAt time.Time
}

// Verdict is a resolved moderation decision.
type Verdict struct {
	Decision
	Moderator string
	DecidedAt time.Time
}

// Recorder archives submissions and verdicts. Failures are logged and
// never reach users.
type Recorder interface {
	RecordSubmission(ctx context.Context, s Submission) error
	RecordDecision(ctx context.Context, v Verdict) error
}

// Config holds the moderation settings.
type Config struct {
	// ChatID is the moderation chat; 0 disables moderation requests.
	ChatID int64
	// CoordinationLinks maps event ids to private links sent on approval.
	CoordinationLinks map[string]string
}

// DecisionRequest is a moderator's button press.
type DecisionRequest struct {
	Payload    string
	Moderator  string
	ChatID     int64
	CallbackID string
	Message    chat.MessageRef
	// MessageText is the moderation request text, kept in the audit edit.
	MessageText string
}

// Dispatcher implements Submit and ResolveDecision.
type Dispatcher struct {
	tr  chat.Transport
	cfg Config
	rec Recorder
	now func() time.Time
	log *slog.Logger

	wg sync.WaitGroup
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithRecorder sets the archive for submissions and verdicts.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.rec = r }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher builds a dispatcher delivering through tr.
func NewDispatcher(tr chat.Transport, cfg Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		tr:  tr,
		cfg: cfg,
		now: time.Now,
		log: logger.Component("moderation"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Submit confirms the registration to the submitter, posts the decision
// request to the moderation chat and archives the submission in the
// background. Delivery failures are logged only.
func (d *Dispatcher) Submit(ctx context.Context, s Submission) {
	attrs := []slog.Attr{
		slog.String("submission_id", s.ID.String()),
		slog.Int64("user_id", s.UserID),
		slog.String("event_id", s.Event.ID),
	}

	confirm := chat.Message{Text: SubmitterSummary(s), Reply: texts.ReplyKeyboard}
	if err := d.tr.Send(ctx, s.ChatID, confirm); err != nil {
		d.logFailure(ctx, "moderation.confirm", err, attrs...)
	}

	if d.cfg.ChatID != 0 {
		// A request without decision buttons cannot be acted on.
		if req, err := d.moderationRequest(s); err != nil {
			d.logFailure(ctx, "moderation.encode", err, attrs...)
		} else if err := d.tr.Send(ctx, d.cfg.ChatID, req); err != nil {
			d.logFailure(ctx, "moderation.request", err, attrs...)
		}
	}

	logger.LogEvent(ctx, d.log, slog.LevelInfo, "moderation.submitted",
		append(attrs, slog.String("status", "ok"))...)

	d.record(ctx, "submission", func(ctx context.Context) error {
		return d.rec.RecordSubmission(ctx, s)
	})
}

// ResolveDecision decodes a moderator's button press and informs the
// submitter. Malformed payloads and presses outside the moderation chat
// only produce an alert for the moderator; the returned error is for logs.
func (d *Dispatcher) ResolveDecision(ctx context.Context, req DecisionRequest) error {
	if d.cfg.ChatID == 0 || req.ChatID != d.cfg.ChatID {
		d.alert(ctx, req.CallbackID, texts.ForeignChat)
		return fmt.Errorf("%w: chat %d", ErrForeignChat, req.ChatID)
	}

	dec, err := Decode(req.Payload)
	if err != nil {
		d.alert(ctx, req.CallbackID, texts.BadDecision)
		logger.LogEvent(ctx, d.log, slog.LevelWarn, "moderation.decode",
			slog.String("status", "fail"),
			slog.String("payload", logger.SanitizeLimit(req.Payload, MaxPayloadLen)),
			slog.String("err", err.Error()),
		)
		return err
	}

	if err := d.tr.Answer(ctx, req.CallbackID, "", false); err != nil {
		d.logFailure(ctx, "moderation.answer", err)
	}

	reply := chat.Message{Text: texts.Rejected}
	audit := texts.RejectedBy
	if dec.Action == Approve {
		audit = texts.ApprovedBy
		reply.Text = texts.Approved
		if link := strings.TrimSpace(d.cfg.CoordinationLinks[dec.EventID]); link != "" {
			reply.Text = texts.ApprovedLink + link
		}
	}
	if err := d.tr.Send(ctx, dec.UserID, reply); err != nil {
		d.logFailure(ctx, "moderation.reply", err, slog.Int64("user_id", dec.UserID))
	}

	moderator := strings.TrimSpace(req.Moderator)
	if moderator == "" {
		moderator = "moderator"
	}
	if req.Message.MessageID != 0 {
		edited := chat.Message{Text: strings.TrimRight(req.MessageText, "\n") + "\n\n" + audit + moderator}
		if err := d.tr.Edit(ctx, req.Message, edited); err != nil {
			d.logFailure(ctx, "moderation.audit", err)
		}
	}

	logger.LogEvent(ctx, d.log, slog.LevelInfo, "moderation.decided",
		slog.String("status", "ok"),
		slog.String("decision", dec.Action.String()),
		slog.Int64("user_id", dec.UserID),
		slog.String("event_id", dec.EventID),
	)

	v := Verdict{Decision: dec, Moderator: moderator, DecidedAt: d.now()}
	d.record(ctx, "decision", func(ctx context.Context) error {
		return d.rec.RecordDecision(ctx, v)
	})
	return nil
}

// Wait blocks until background recordings finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// NewSubmission stamps a submission with a fresh id and the dispatcher's clock.
func (d *Dispatcher) NewSubmission(s Submission) Submission {
	s.ID = uuid.New()
	s.SubmittedAt = d.now()
	return s
}

func (d *Dispatcher) moderationRequest(s Submission) (chat.Message, error) {
	msg := chat.Message{Text: ModerationSummary(s), Markdown: true}

	approve, err := Encode(Decision{Action: Approve, UserID: s.UserID, EventID: s.Event.ID})
	if err != nil {
		return msg, err
	}
	reject, err := Encode(Decision{Action: Reject, UserID: s.UserID, EventID: s.Event.ID})
	if err != nil {
		return msg, err
	}
	msg.Inline = [][]chat.Button{{
		{Text: texts.ButtonApprove, Data: approve},
		{Text: texts.ButtonReject, Data: reject},
	}}
	return msg, nil
}

func (d *Dispatcher) record(ctx context.Context, what string, fn func(context.Context) error) {
	if d.rec == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
		defer cancel()
		start := time.Now()
		if err := fn(ctx); err != nil {
			logger.LogEvent(ctx, logger.Component("recorder"), slog.LevelWarn, "recorder."+what,
				slog.String("status", "fail"),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
				slog.Duration("duration", logger.RoundMS(time.Since(start))),
			)
			return
		}
		logger.LogEvent(ctx, logger.Component("recorder"), slog.LevelDebug, "recorder."+what,
			slog.String("status", "ok"),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	}()
}

func (d *Dispatcher) alert(ctx context.Context, callbackID, text string) {
	if err := d.tr.Answer(ctx, callbackID, text, true); err != nil {
		d.logFailure(ctx, "moderation.alert", err)
	}
}

func (d *Dispatcher) logFailure(ctx context.Context, event string, err error, attrs ...slog.Attr) {
	attrs = append(attrs,
		slog.String("status", "fail"),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	)
	logger.LogEvent(ctx, d.log, slog.LevelWarn, event, attrs...)
}

// SubmitterSummary is the plain text confirmation sent to the submitter.
func SubmitterSummary(s Submission) string {
	var b strings.Builder
	b.WriteString("✅ Your registration request was recorded and sent to the organisers.\n\n")
	fmt.Fprintf(&b, "👤 Name: %s\n", orDash(s.Name))
	fmt.Fprintf(&b, "📱 Contact: %s\n", orDash(s.Phone))
	fmt.Fprintf(&b, "🗣️ Level: %s\n", orDash(s.Level))
	fmt.Fprintf(&b, "📝 Note: %s\n", orDash(s.Note))
	fmt.Fprintf(&b, "\n📌 Event: %s\n📍 Place: %s\n🕒 Time: %s\n", s.Event.Title, s.Event.Location, s.Event.Schedule)
	return b.String()
}

// ModerationSummary is the markdown text of the decision request.
func ModerationSummary(s Submission) string {
	var b strings.Builder
	b.WriteString(texts.ModerationTitle + "\n\n")
	fmt.Fprintf(&b, "👤 %s\n", format.Escape(orDash(s.Name)))
	fmt.Fprintf(&b, "📱 %s\n", format.Escape(orDash(s.Phone)))
	fmt.Fprintf(&b, "🗣️ %s\n", format.Escape(orDash(s.Level)))
	fmt.Fprintf(&b, "📝 %s\n", format.Escape(orDash(s.Note)))
	fmt.Fprintf(&b, "\n📌 %s", format.Escape(s.Event.Label()))
	return b.String()
}

func orDash(v string) string {
	if strings.TrimSpace(v) == "" {
		return "—"
	}
	return v
}
