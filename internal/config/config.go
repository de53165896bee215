package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// ChatConfig holds chat-session settings
type ChatConfig struct {
	// TypingIntervalMs is the delay between revealed characters
	TypingIntervalMs int `json:"typing_interval_ms"`

	// Suggestions are the canned queries offered on the welcome screen
	Suggestions []string `json:"suggestions,omitempty"`
}

// ThemeConfig holds theme file settings
type ThemeConfig struct {
	// Dir is the directory holding YAML theme files (default: <configdir>/themes)
	Dir string `json:"dir,omitempty"`

	// Light and Dark name the theme files used by the mode toggle
	Light string `json:"light"`
	Dark  string `json:"dark"`
}

// Config holds all configuration for the inboxq client
type Config struct {
	// ServerURL is the base URL of the email-assistant backend
	ServerURL string `json:"server_url"`

	// UserID is the account identity established at login (out of band)
	UserID string `json:"user_id,omitempty"`

	Chat  ChatConfig  `json:"chat"`
	Theme ThemeConfig `json:"theme"`

	// DBPath overrides the default SQLite database location
	DBPath string `json:"db_path,omitempty"`

	// Logging
	LogFile string `json:"log_file,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ServerURL: "http://localhost:5000",
		Chat: ChatConfig{
			TypingIntervalMs: 50,
			Suggestions: []string{
				"Summarize my latest email",
				"Find emails from last week",
				"Who emailed me today?",
			},
		},
		Theme: ThemeConfig{
			Light: "light.yaml",
			Dark:  "dark.yaml",
		},
		LogFile: "",
	}
}

// DefaultConfigPath returns ~/.config/inboxq/config.json or "" if home is unknown
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "inboxq", "config.json")
}

// DefaultDBPath returns the default SQLite database path
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "inboxq", "inboxq.db")
}

// LoadConfig loads configuration from the given path, falling back to defaults
// for anything the file does not set
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	return cfg, nil
}

// SaveConfig writes the configuration as indented JSON
func (c *Config) SaveConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// GetTypingInterval returns the reveal delay per character
func (c *Config) GetTypingInterval() time.Duration {
	if c.Chat.TypingIntervalMs <= 0 {
		return 50 * time.Millisecond
	}
	return time.Duration(c.Chat.TypingIntervalMs) * time.Millisecond
}
