package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// envPrefix marks environment overrides, e.g. DIAMONDDESK_CHAT__MODEL.
const envPrefix = "DIAMONDDESK_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (DIAMONDDESK_*). A double underscore
// separates nested keys: DIAMONDDESK_MODEL__ENDPOINT -> model.endpoint.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	if c.Model.Artifact == "" && c.Model.Endpoint == "" {
		return fmt.Errorf("model.artifact or model.endpoint is required")
	}
	if c.Model.TimeoutSeconds < 0 {
		return fmt.Errorf("model.timeout_seconds must be non-negative")
	}

	if c.Chat.Model == "" {
		return fmt.Errorf("chat.model is required")
	}
	if len(c.Chat.Styles) == 0 {
		return fmt.Errorf("chat.styles must not be empty")
	}
	if !slices.Contains(c.Chat.Styles, c.Chat.DefaultStyle) {
		return fmt.Errorf("invalid chat.default_style %q: must be one of %s", c.Chat.DefaultStyle, strings.Join(c.Chat.Styles, ", "))
	}
	if !slices.Contains(ReplyLengths, c.Chat.DefaultLength) {
		return fmt.Errorf("invalid chat.default_length %d: must be one of 300, 600, 900", c.Chat.DefaultLength)
	}
	if c.Chat.DefaultTemperature < 0 || c.Chat.DefaultTemperature > 2 {
		return fmt.Errorf("chat.default_temperature must be between 0 and 2")
	}
	if c.Chat.RequestsPerMinute < 0 {
		return fmt.Errorf("chat.requests_per_minute must be non-negative")
	}
	if c.Chat.IdleMinutes < 0 {
		return fmt.Errorf("chat.idle_minutes must be non-negative")
	}

	return nil
}
