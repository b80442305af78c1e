package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

const configFileName = "config.yml"

// AIProviderType represents the type of AI provider
type AIProviderType string

const (
	AIProviderTypeCLI AIProviderType = "cli" // CLI tool (claude, codex, gemini, ollama)
	AIProviderTypeAPI AIProviderType = "api" // OpenAI-compatible HTTP API
)

// AIProvider represents a unified AI provider configuration
// Providers are tried in order from first to last
type AIProvider struct {
	Type    AIProviderType `yaml:"type"`               // "cli" or "api"
	Name    string         `yaml:"name"`               // CLI name (codex, gemini, claude) or friendly name for API
	Model   string         `yaml:"model"`              // model to use (required)
	BaseURL string         `yaml:"base_url,omitempty"` // API base URL (required for type: api)
	APIKey  string         `yaml:"api_key,omitempty"`  // API key (required for type: api)
}

// Storage backends
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// StorageConfig selects where events are persisted
type StorageConfig struct {
	Backend string `yaml:"backend" json:"backend"`     // "json" or "sqlite"
	Path    string `yaml:"path,omitempty" json:"path"` // empty means inside the config dir
}

// CalendarConfig is a named calendar events can be filed under
type CalendarConfig struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

// NativeNotificationConfig configures native OS notifications
type NativeNotificationConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// NotificationConfig configures reminder delivery
type NotificationConfig struct {
	Native NativeNotificationConfig `yaml:"native" json:"native"`
	// URLs are shoutrrr service URLs (telegram://, discord://, ntfy://, ...)
	URLs []string `yaml:"urls,omitempty" json:"urls,omitempty"`
}

// UpdateConfig configures self-update
type UpdateConfig struct {
	Repository string `yaml:"repository" json:"repository"` // owner/name on GitHub
}

type Config struct {
	Theme                  string `yaml:"theme" json:"theme"`
	Language               string `yaml:"language,omitempty" json:"language,omitempty"` // empty means auto-detect
	WeekStart              string `yaml:"week_start" json:"week_start"`                 // "sunday" or "monday"
	TimeFormat             string `yaml:"time_format" json:"time_format"`               // "24h" or "12h"
	DefaultDurationMinutes int    `yaml:"default_duration_minutes" json:"default_duration_minutes"`
	DefaultReminderMinutes int    `yaml:"default_reminder_minutes" json:"default_reminder_minutes"`
	LogLevel               string `yaml:"log_level,omitempty" json:"log_level,omitempty"`

	Storage   StorageConfig    `yaml:"storage" json:"storage"`
	Calendars []CalendarConfig `yaml:"calendars,omitempty" json:"calendars,omitempty"`

	// AI providers - tried in order from first to last
	AIProviders []AIProvider `yaml:"ai_providers,omitempty" json:"ai_providers,omitempty"`

	Notifications *NotificationConfig `yaml:"notifications,omitempty" json:"notifications,omitempty"`
	Update        UpdateConfig        `yaml:"update" json:"update"`
}

func DefaultConfig() Config {
	return Config{
		Theme:                  "default",
		WeekStart:              "sunday",
		TimeFormat:             "24h",
		DefaultDurationMinutes: 60,
		Storage:                StorageConfig{Backend: BackendJSON},
		Update:                 UpdateConfig{Repository: "termcal/termcal"},
	}
}

func Load() (Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return DefaultConfig(), err
	}

	configPath := filepath.Join(configDir, configFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), err
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills zero values and normalizes enum-like fields
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Theme == "" {
		c.Theme = def.Theme
	}
	c.WeekStart = strings.ToLower(c.WeekStart)
	if c.WeekStart != "monday" {
		c.WeekStart = def.WeekStart
	}
	c.TimeFormat = strings.ToLower(c.TimeFormat)
	if c.TimeFormat != "12h" {
		c.TimeFormat = def.TimeFormat
	}
	if c.DefaultDurationMinutes <= 0 {
		c.DefaultDurationMinutes = def.DefaultDurationMinutes
	}
	if c.DefaultReminderMinutes < 0 {
		c.DefaultReminderMinutes = 0
	}
	c.Storage.Backend = strings.ToLower(c.Storage.Backend)
	if c.Storage.Backend != BackendSQLite {
		c.Storage.Backend = BackendJSON
	}
	if c.Update.Repository == "" {
		c.Update.Repository = def.Update.Repository
	}
}

func (c Config) Save() error {
	configDir, err := getConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	configPath := filepath.Join(configDir, configFileName)
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return renameio.WriteFile(configPath, data, 0600)
}

// FirstWeekday returns the weekday the calendar grid starts on
func (c Config) FirstWeekday() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

// TimeLayout returns the Go layout used to display clock times
func (c Config) TimeLayout() string {
	if c.TimeFormat == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}

// DefaultDuration returns the duration for events created without an end time
func (c Config) DefaultDuration() time.Duration {
	return time.Duration(c.DefaultDurationMinutes) * time.Minute
}

// StoragePath resolves the storage location for the configured backend
func (c Config) StoragePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	configDir, err := getConfigDir()
	if err != nil {
		return "", err
	}
	if c.Storage.Backend == BackendSQLite {
		return filepath.Join(configDir, "termcal.db"), nil
	}
	return filepath.Join(configDir, "events"), nil
}

// CalendarTitle returns the display title for a calendar ID
func (c Config) CalendarTitle(id string) string {
	for _, cal := range c.Calendars {
		if cal.ID == id {
			return cal.Title
		}
	}
	return id
}

func getConfigDir() (string, error) {
	if dir := os.Getenv("TERMCAL_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "termcal"), nil
}

func GetConfigDir() (string, error) {
	return getConfigDir()
}

// ConfigPath returns the full path of the config file
func ConfigPath() (string, error) {
	dir, err := getConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}
