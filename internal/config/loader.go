package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Load reads configuration from environment variables and validates it.
// Missing required Letta settings are the only fatal condition.
func Load() (*Config, error) {
	cfg, err := LoadLenient()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadLenient reads configuration without the required-field validation.
// Used by status-style commands that report on partial configuration.
func LoadLenient() (*Config, error) {
	LoadEnvFileCandidates()

	cfg := &Config{}

	groups := []struct {
		prefix string
		target any
	}{
		{"LETTA", &cfg.Letta},
		{"GRAPHITI", &cfg.Graphiti},
		{"GRAPHPOLL", &cfg.Poller},
		{"GRAPHPOLL", &cfg.History},
		{"GRAPHPOLL", &cfg.Mirror},
		{"GRAPHPOLL", &cfg.Notify},
		{"GRAPHPOLL", &cfg.Log},
	}
	for _, g := range groups {
		if err := envconfig.Process(g.prefix, g.target); err != nil {
			return nil, fmt.Errorf("process %s env: %w", g.prefix, err)
		}
	}

	normalize(cfg)
	return cfg, nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.Letta.BaseURL == "" {
		return fmt.Errorf("missing required environment variable: LETTA_BASE_URL")
	}
	if c.Letta.Password == "" {
		return fmt.Errorf("missing required environment variable: LETTA_PASSWORD")
	}
	if c.Letta.PageLimit <= 0 {
		return fmt.Errorf("LETTA_PAGE_LIMIT must be positive, got %d", c.Letta.PageLimit)
	}
	return nil
}

// normalize trims whitespace and drops empty exclusion entries so an unset
// or blank GRAPHITI_EXCLUDED_AGENT_IDS means "exclude nothing".
func normalize(cfg *Config) {
	cfg.Letta.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Letta.BaseURL), "/")
	cfg.Graphiti.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Graphiti.Endpoint), "/")
	cfg.Graphiti.ExcludedAgentIDs = cleanList(cfg.Graphiti.ExcludedAgentIDs)
	cfg.Poller.ExcludedNamePatterns = cleanList(cfg.Poller.ExcludedNamePatterns)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// SlogLevel maps the configured level string to a slog.Level, defaulting to
// info on unknown values.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
