package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/clubbot/core/config"
)

func TestBuildPollerWebhookDoesNotListen(t *testing.T) {
	cfg := &coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{Token: "t"},
		Webhook:  coreconfig.WebhookConfig{URL: "https://club.example.org", SecretToken: "s3"},
	}
	require.NoError(t, coreconfig.Normalize(cfg))

	p := BuildPoller(PollerOptionsFromConfig(cfg))
	wh, ok := p.(*tele.Webhook)
	require.True(t, ok)
	assert.Empty(t, wh.Listen)
	assert.Equal(t, "s3", wh.SecretToken)
	assert.Equal(t, "https://club.example.org/webhook", wh.Endpoint.PublicURL)
}

func TestBuildPollerLongpollTimeout(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: coreconfig.RunModeLongpoll})
	lp, ok := p.(*tele.LongPoller)
	require.True(t, ok)
	assert.Equal(t, defaultLongPollTimeout, lp.Timeout)

	p = BuildPoller(PollerOptions{RunMode: "LONGPOLL", LongPollTimeoutSeconds: 3})
	assert.Equal(t, 3*time.Second, p.(*tele.LongPoller).Timeout)
}
