package telegram

import (
	"strings"
	"time"

	coreconfig "github.com/m3rciful/clubbot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10 * time.Second

// allowedUpdates limits Telegram deliveries to what the bot routes.
var allowedUpdates = []string{"message", "callback_query"}

// WebhookOptions declares how Telegram reaches the bot.
type WebhookOptions struct {
	// PublicURL is the full endpoint registered with setWebhook.
	PublicURL   string
	SecretToken string
}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions
}

// BuildPoller returns a Telebot poller based on provided options.
// The webhook poller never listens by itself: it is mounted as an
// http.Handler on the bot's HTTP server next to the liveness routes.
func BuildPoller(opts PollerOptions) tele.Poller {
	if strings.EqualFold(strings.TrimSpace(opts.RunMode), coreconfig.RunModeWebhook) {
		return &tele.Webhook{
			SecretToken:    opts.Webhook.SecretToken,
			AllowedUpdates: allowedUpdates,
			Endpoint:       &tele.WebhookEndpoint{PublicURL: opts.Webhook.PublicURL},
		}
	}

	timeout := defaultLongPollTimeout
	if opts.LongPollTimeoutSeconds > 0 {
		timeout = time.Duration(opts.LongPollTimeoutSeconds) * time.Second
	}
	return &tele.LongPoller{Timeout: timeout, AllowedUpdates: allowedUpdates}
}

// PollerOptionsFromConfig maps the core configuration onto poller options.
func PollerOptionsFromConfig(cfg *coreconfig.Config) PollerOptions {
	return PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			PublicURL:   cfg.Webhook.PublicEndpoint(),
			SecretToken: cfg.Webhook.SecretToken,
		},
	}
}
