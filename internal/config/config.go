package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LLMConfig selects the OpenAI-compatible endpoint used for extraction.
// The API key is deliberately not stored here; it comes from the
// OPENAI_API_KEY environment variable (or a .env file).
type LLMConfig struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	BaseURL string `yaml:"base_url"`
	// Model is the chat model name.
	Model string `yaml:"model"`
	// MaxBodyChars caps the email body length embedded in the prompt.
	MaxBodyChars int `yaml:"max_body_chars"`
}

// Config is the top-level application configuration.
type Config struct {
	// Query is the Gmail search query used to pick candidate emails.
	Query string `yaml:"query"`

	// MaxEmails is the maximum number of emails fetched per run.
	MaxEmails int64 `yaml:"max_emails"`

	// Timezone is the IANA zone attached to timed calendar events
	// (e.g. "Asia/Tokyo").
	Timezone string `yaml:"timezone"`

	// CalendarID is the target calendar, "primary" by default.
	CalendarID string `yaml:"calendar_id"`

	// TimedOnly rejects extracted events that have no start time instead of
	// demoting them to all-day entries.
	TimedOnly bool `yaml:"timed_only"`

	LLM LLMConfig `yaml:"llm"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Query:      "label:inbox is:read",
		MaxEmails:  10,
		Timezone:   "Asia/Tokyo",
		CalendarID: "primary",
		TimedOnly:  false,
		LLM: LLMConfig{
			BaseURL:      "https://api.openai.com/v1",
			Model:        "gpt-4o-mini",
			MaxBodyChars: 4000,
		},
	}
}

// Normalize fills in missing/zero values so partially-filled configs still
// behave correctly.
func (c *Config) Normalize() {
	if c.Query == "" {
		c.Query = "label:inbox is:read"
	}
	if c.MaxEmails <= 0 {
		c.MaxEmails = 10
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Tokyo"
	}
	if c.CalendarID == "" {
		c.CalendarID = "primary"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.MaxBodyChars <= 0 {
		c.LLM.MaxBodyChars = 4000
	}
}

// Load loads configuration from the given YAML path. If the file does not
// exist, a default config is written there (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".mailcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
