// Package catalog holds the immutable list of club events offered for
// registration.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// MaxIDLen bounds event ids so that every callback payload carrying one
// stays within Telegram's 64 byte callback data limit.
const MaxIDLen = 32

// ErrNotFound reports an unknown event id.
var ErrNotFound = errors.New("catalog: event not found")

// Event is a single meetup. JSON keys follow the EVENTS_JSON contract.
type Event struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Schedule string `json:"when"`
	Location string `json:"place"`
	MapLink  string `json:"maps"`
	Price    string `json:"price"`
}

// Label is the one-line form used on catalog buttons.
func (e Event) Label() string {
	return e.Title + " | " + e.Location + " | " + e.Schedule
}

// Default is the built-in event used when no valid catalog is configured.
func Default() Event {
	return Event{
		ID:       "m1",
		Title:    "Coffee & Conversation",
		Schedule: "2025-10-12 18:30",
		Location: "Café République",
		MapLink:  "https://maps.google.com/?q=Café+République",
		Price:    "Free",
	}
}

// Catalog is safe for concurrent use; it never changes after construction.
type Catalog struct {
	events []Event
	byID   map[string]int
}

// New validates events and builds a catalog preserving their order.
func New(events []Event) (*Catalog, error) {
	if len(events) == 0 {
		return nil, errors.New("catalog: no events")
	}
	c := &Catalog{
		events: make([]Event, len(events)),
		byID:   make(map[string]int, len(events)),
	}
	for i, ev := range events {
		if err := validateID(ev.ID); err != nil {
			return nil, fmt.Errorf("catalog: event %d: %w", i, err)
		}
		if strings.TrimSpace(ev.Title) == "" {
			return nil, fmt.Errorf("catalog: event %q: empty title", ev.ID)
		}
		if _, dup := c.byID[ev.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate event id %q", ev.ID)
		}
		if ev.Price == "" {
			ev.Price = "Free"
		}
		c.events[i] = ev
		c.byID[ev.ID] = i
	}
	return c, nil
}

// Parse decodes a JSON array of events.
func Parse(raw string) (*Catalog, error) {
	var events []Event
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	return New(events)
}

// Load parses raw and falls back to the single default event when raw is
// empty or invalid. The returned error reports why the fallback was used
// and is nil when raw was empty or valid.
func Load(raw string) (*Catalog, error) {
	fallback, _ := New([]Event{Default()})
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	c, err := Parse(raw)
	if err != nil {
		return fallback, err
	}
	return c, nil
}

// Lookup finds an event by id.
func (c *Catalog) Lookup(id string) (Event, error) {
	i, ok := c.byID[id]
	if !ok {
		return Event{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c.events[i], nil
}

// List returns the events in display order.
func (c *Catalog) List() []Event {
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// First is the event used when a submission never selected one.
func (c *Catalog) First() Event {
	return c.events[0]
}

// Len reports the number of events.
func (c *Catalog) Len() int {
	return len(c.events)
}

func validateID(id string) error {
	switch {
	case id == "":
		return errors.New("empty id")
	case len(id) > MaxIDLen:
		return fmt.Errorf("id %q longer than %d bytes", id, MaxIDLen)
	case strings.IndexFunc(id, unicode.IsSpace) >= 0:
		return fmt.Errorf("id %q contains whitespace", id)
	}
	return nil
}
