// Package state provides per-user conversation storage for Telegram bots.
// It is domain-agnostic: bots choose the value type they keep per user.
package state
