// Package bot wires the registration flow to Telegram.
package bot

import (
	"context"
	"errors"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/clubbot/club/chat"
	"github.com/m3rciful/clubbot/club/config"
	"github.com/m3rciful/clubbot/club/conversation"
	"github.com/m3rciful/clubbot/club/flow"
	"github.com/m3rciful/clubbot/club/moderation"
	"github.com/m3rciful/clubbot/club/recorder"
	"github.com/m3rciful/clubbot/club/texts"
	"github.com/m3rciful/clubbot/core/bootstrap"
	"github.com/m3rciful/clubbot/core/logger"
	tg "github.com/m3rciful/clubbot/core/telegram"
	"github.com/m3rciful/clubbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/clubbot/core/telegram/helpers"
	"github.com/m3rciful/clubbot/core/telegram/router"
	"github.com/m3rciful/clubbot/core/telegram/sender"
	"github.com/m3rciful/clubbot/core/telegram/state"
)

// App is the club bot: configuration, infrastructure and the registration
// flow, ready to be run by the core Telegram runtime.
type App struct {
	cfg      *config.Config
	infra    *bootstrap.Result
	store    *state.MemoryStore[conversation.State]
	registry *tg.Registry
	recorder moderation.Recorder

	mod     *moderation.Dispatcher
	machine *flow.Machine
}

// New bootstraps logging and the optional archive database, then builds
// the recorders.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("bot: nil config")
	}
	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}
	return newApp(cfg, infra, buildRecorders(ctx, cfg, infra)), nil
}

func newApp(cfg *config.Config, infra *bootstrap.Result, rec moderation.Recorder) *App {
	a := &App{
		cfg:      cfg,
		infra:    infra,
		store:    conversation.NewMemoryStore(),
		registry: tg.NewRegistry(),
		recorder: rec,
	}
	a.registerCommands()
	return a
}

// buildRecorders collects the configured archives. A recorder that cannot
// be built is skipped; registrations never depend on it.
func buildRecorders(ctx context.Context, cfg *config.Config, infra *bootstrap.Result) moderation.Recorder {
	log := logger.Component("recorder")
	var recs recorder.Multi

	if cfg.Sheets.Enabled() {
		svc, err := recorder.NewSheetsService(ctx, cfg.Sheets.CredentialsJSON)
		if err != nil {
			logger.LogEvent(ctx, log, slog.LevelWarn, "recorder.sheets",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		} else {
			recs = append(recs, recorder.NewSheetRecorder(svc, cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName))
		}
	} else {
		logger.LogEvent(ctx, log, slog.LevelInfo, "recorder.sheets", slog.String("status", "disabled"))
	}

	if infra != nil && infra.DB != nil {
		recs = append(recs, recorder.NewArchive(infra.DB))
	}

	if len(recs) == 0 {
		return nil
	}
	return recs
}

func (a *App) registerCommands() {
	a.registry.RegisterCommand("/start", commands.Command{Handler: a.handleUpdate, Description: texts.CommandStart})
	a.registry.RegisterCommand("/cancel", commands.Command{Handler: a.handleUpdate, Description: texts.CommandCancel})
	a.registry.RegisterCommand("/help", commands.Command{Handler: a.handleUpdate, Description: texts.CommandHelp})
}

// TelegramRunOptions describes how the core runtime should run the bot.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	opts := tg.RunOptions{
		Config:   &a.cfg.Config,
		Registry: a.registry,
		DispatcherOptions: sender.Options{
			Workers:    a.cfg.Sender.Workers,
			QueueSize:  a.cfg.Sender.QueueSize,
			MaxRetries: a.cfg.Sender.MaxRetries,
		},
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, onLimited),
		Routes: func(rt tg.Runtime) ([]tg.Route, error) {
			a.wire(NewTransport(rt.Bot, rt.Dispatcher))
			routes := router.CommandRoutes(rt.Registry)
			return append(routes, router.UpdateRoutes(a.handleUpdate)...), nil
		},
		OnStop: func(context.Context, tg.Runtime) error {
			if a.mod != nil {
				a.mod.Wait()
			}
			return nil
		},
	}

	if ttl := a.cfg.Conversation.IdleTTL; ttl > 0 {
		interval := a.cfg.Conversation.SweepInterval()
		opts.Tasks = append(opts.Tasks, tg.Task{
			Name: "conversation.sweep",
			Run: func(ctx context.Context) error {
				a.store.RunJanitor(ctx, interval, ttl, func(n int) {
					if n > 0 {
						logger.Info(ctx, "flow", "conversation.sweep", slog.Int("removed", n))
					}
				})
				return nil
			},
		})
	}
	return opts, nil
}

// wire builds the moderation dispatcher and the state machine on top of tr.
func (a *App) wire(tr chat.Transport) {
	var opts []moderation.Option
	if a.recorder != nil {
		opts = append(opts, moderation.WithRecorder(a.recorder))
	}
	a.mod = moderation.NewDispatcher(tr, moderation.Config{
		ChatID:            a.cfg.Club.ModerationChatID,
		CoordinationLinks: a.cfg.CoordinationLinks,
	}, opts...)
	a.machine = flow.New(a.store, a.cfg.Catalog, tr, a.mod, flow.Config{
		ScheduleLink:   a.cfg.Club.ScheduleLink,
		SupportContact: a.cfg.Club.SupportContact,
	})
}

func (a *App) handleUpdate(c tele.Context) error {
	ev, ok := EventFromContext(c)
	if !ok || a.machine == nil {
		return nil
	}
	a.machine.Handle(tghelpers.BuildContext(c), ev)
	return nil
}

// Close releases the archive database.
func (a *App) Close() error {
	return a.infra.Close()
}

func onLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: texts.RateLimited})
	}
	return c.Send(texts.RateLimited)
}
