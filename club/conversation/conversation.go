// Package conversation models the per-user registration dialogue state.
package conversation

import (
	"time"

	"github.com/m3rciful/clubbot/core/telegram/state"
)

// Step is the position of a user in the registration flow.
type Step int

const (
	StepNone Step = iota
	StepPickEvent
	StepName
	StepPhone
	StepLevel
	StepNote
)

var stepNames = [...]string{"none", "pick_event", "name", "phone", "level", "note"}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "unknown"
	}
	return stepNames[s]
}

// Steps lists every step in flow order.
func Steps() []Step {
	return []Step{StepNone, StepPickEvent, StepName, StepPhone, StepLevel, StepNote}
}

// State is what the bot remembers about one user's registration attempt.
// Fields are filled in step order and discarded as a whole.
type State struct {
	Step            Step
	SelectedEventID string
	Name            string
	Phone           string
	Level           string
	Note            string
}

// Idle reports whether the state carries nothing worth keeping.
func (s State) Idle() bool {
	return s == State{}
}

// Store keeps one State per user id.
type Store = state.Store[State]

// NewMemoryStore returns an in-process store that forgets idle users.
func NewMemoryStore() *state.MemoryStore[State] {
	return state.NewMemoryStore(
		func() State { return State{} },
		state.WithIdle(State.Idle),
	)
}

// NewMemoryStoreWithClock is NewMemoryStore with an injected clock, used
// by the idle sweep tests.
func NewMemoryStoreWithClock(now func() time.Time) *state.MemoryStore[State] {
	return state.NewMemoryStore(
		func() State { return State{} },
		state.WithIdle(State.Idle),
		state.WithClock[State](now),
	)
}
