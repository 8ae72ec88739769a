package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/clubbot/core/telegram"
	"github.com/m3rciful/clubbot/core/telegram/commands"
)

type codedErr struct{}

func (codedErr) Error() string { return "coded" }
func (codedErr) Code() string  { return "queue full" }

func TestCallbackName(t *testing.T) {
	assert.Equal(t, "callback.event", callbackName("event_m1"))
	assert.Equal(t, "callback.approve", callbackName("approve_42_m_1"))
	assert.Equal(t, "callback.faq", callbackName("faq"))
	assert.Equal(t, "callback.unknown", callbackName(""))
}

func TestDeriveErrorCode(t *testing.T) {
	assert.Equal(t, "QUEUE_FULL", deriveErrorCode(codedErr{}))
	assert.Equal(t, "ERRORSTRING", deriveErrorCode(errors.New("x")))
	assert.Empty(t, deriveErrorCode(nil))
}

func TestUpdateRoutesDispatchToSingleHandler(t *testing.T) {
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)

	var seen []string
	routes := UpdateRoutes(func(c tele.Context) error {
		if cb := c.Callback(); cb != nil {
			seen = append(seen, cb.Data)
			return nil
		}
		seen = append(seen, c.Text())
		return nil
	})
	require.Len(t, routes, 3)

	byEndpoint := map[any]tele.HandlerFunc{}
	for _, r := range routes {
		byEndpoint[r.Endpoint] = r.Handler
	}
	user := &tele.User{ID: 3}
	chat := &tele.Chat{ID: 3}
	require.NoError(t, byEndpoint[tele.OnText](b.NewContext(tele.Update{ID: 1, Message: &tele.Message{Sender: user, Chat: chat, Text: "Alex"}})))
	require.NoError(t, byEndpoint[tele.OnCallback](b.NewContext(tele.Update{ID: 2, Callback: &tele.Callback{Sender: user, Data: "lvl_B"}})))
	assert.Equal(t, []string{"Alex", "lvl_B"}, seen)
}

func TestCommandRoutesWrapEveryCommand(t *testing.T) {
	reg := tg.NewRegistry()
	calls := 0
	reg.RegisterCommand("/start", commands.Command{Description: "start", Handler: func(tele.Context) error { calls++; return nil }})
	routes := CommandRoutes(reg)
	require.Len(t, routes, 1)
	assert.Equal(t, "/start", routes[0].Endpoint)

	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	require.NoError(t, routes[0].Handler(b.NewContext(tele.Update{ID: 1, Message: &tele.Message{Sender: &tele.User{ID: 1}, Chat: &tele.Chat{ID: 1}, Text: "/start"}})))
	assert.Equal(t, 1, calls)
}
