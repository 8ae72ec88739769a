// Package config loads the club bot configuration on top of the core one.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/m3rciful/clubbot/club/catalog"
	"github.com/m3rciful/clubbot/club/recorder"
	coreconfig "github.com/m3rciful/clubbot/core/config"
	coredatabase "github.com/m3rciful/clubbot/core/database"
)

// DefaultSheetName is the registrations tab used when SHEET_NAME is unset.
const DefaultSheetName = "EnglishClubRegistrations"

// ClubConfig holds the registration settings.
type ClubConfig struct {
	// ModerationChatID is where registrations are reviewed; 0 disables moderation.
	ModerationChatID int64  `yaml:"moderation_chat_id" envconfig:"GROUP_CHAT_ID"`
	ScheduleLink     string `yaml:"schedule_link" envconfig:"SHEET_LINK"`
	// EventsJSON overrides the built-in catalog with a JSON array of events.
	EventsJSON string `yaml:"events_json" envconfig:"EVENTS_JSON"`
	// CoordinationLinksJSON is a JSON object of event id to private link.
	CoordinationLinksJSON string `yaml:"coordination_links_json" envconfig:"MEETUP_LINKS_JSON"`
	SupportContact        string `yaml:"support_contact" envconfig:"SUPPORT_CONTACT"`
}

// ConversationConfig tunes the in-memory conversation store.
type ConversationConfig struct {
	// IdleTTL drops conversations untouched for this long; 0 keeps them forever.
	IdleTTL time.Duration `yaml:"idle_ttl" envconfig:"CONVERSATION_IDLE_TTL"`
}

// SweepInterval is how often idle conversations are looked for.
func (c ConversationConfig) SweepInterval() time.Duration {
	if c.IdleTTL <= 0 {
		return 0
	}
	iv := c.IdleTTL / 4
	if iv < time.Minute {
		iv = time.Minute
	}
	return iv
}

// Config is the full bot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Club         ClubConfig            `yaml:"club"`
	Sheets       recorder.SheetsConfig `yaml:"sheets"`
	Database     coredatabase.Config   `yaml:"database"`
	Conversation ConversationConfig    `yaml:"conversation"`

	// Catalog and CoordinationLinks are parsed from the JSON settings.
	Catalog           *catalog.Catalog  `yaml:"-" ignored:"true"`
	CoordinationLinks map[string]string `yaml:"-" ignored:"true"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads the file at path (optional) and the environment.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the configuration and parses the JSON settings.
// Malformed JSON settings fall back to defaults and are only logged.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}
	if err := cfg.Database.Normalize(); err != nil {
		return err
	}
	if cfg.Conversation.IdleTTL < 0 {
		return fmt.Errorf("conversation.idle_ttl must be >= 0")
	}

	if strings.TrimSpace(cfg.Sheets.SheetName) == "" {
		cfg.Sheets.SheetName = DefaultSheetName
	}
	if cfg.Club.ModerationChatID == 0 {
		log.Printf("config: GROUP_CHAT_ID not set, registrations will not reach moderators")
	}

	cat, err := catalog.Load(cfg.Club.EventsJSON)
	if err != nil {
		log.Printf("config: EVENTS_JSON ignored, using the default event: %v", err)
	}
	cfg.Catalog = cat

	links, err := ParseLinks(cfg.Club.CoordinationLinksJSON)
	if err != nil {
		log.Printf("config: MEETUP_LINKS_JSON ignored: %v", err)
	}
	cfg.CoordinationLinks = links
	return nil
}

// ParseLinks decodes an event id to link map. It always returns a usable
// map, empty when raw is empty or malformed.
func ParseLinks(raw string) (map[string]string, error) {
	links := map[string]string{}
	if strings.TrimSpace(raw) == "" {
		return links, nil
	}
	var parsed map[string]string
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return links, fmt.Errorf("decode links: %w", err)
	}
	for id, link := range parsed {
		if link = strings.TrimSpace(link); link != "" {
			links[id] = link
		}
	}
	return links, nil
}
