// Package config provides configuration types and loading for graphpoll.
package config

import "time"

// Config is the root configuration struct. Everything is driven by
// environment variables; groups map to env prefixes (LETTA_*, GRAPHITI_*,
// GRAPHPOLL_*).
type Config struct {
	Letta    LettaConfig
	Graphiti GraphitiConfig
	Poller   PollerConfig
	History  HistoryConfig
	Mirror   MirrorConfig
	Notify   NotifyConfig
	Log      LogConfig
}

// ---------------------------------------------------------------------------
// Letta – upstream agent server
// ---------------------------------------------------------------------------

// LettaConfig holds the connection settings for the Letta API.
type LettaConfig struct {
	// BaseURL is the server root without the /v1 suffix. Required.
	BaseURL string `envconfig:"BASE_URL"`
	// Password is the shared server secret. Required. It is sent both as
	// an X-BARE-PASSWORD header and as a bearer token.
	Password  string        `envconfig:"PASSWORD"`
	PageLimit int           `envconfig:"PAGE_LIMIT" default:"100"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

// ---------------------------------------------------------------------------
// Graphiti – knowledge graph ingestion sink
// ---------------------------------------------------------------------------

// GraphitiConfig holds the ingestion endpoint settings.
type GraphitiConfig struct {
	Endpoint string        `envconfig:"ENDPOINT" default:"http://localhost:8003"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"30s"`
	// ExcludedAgentIDs lists agent IDs whose conversations are never
	// forwarded to the knowledge graph.
	ExcludedAgentIDs []string `envconfig:"EXCLUDED_AGENT_IDS"`
}

// ---------------------------------------------------------------------------
// Poller – run behaviour and on-disk artifacts
// ---------------------------------------------------------------------------

// PollerConfig groups the run-loop settings.
type PollerConfig struct {
	StateFile    string `envconfig:"STATE_FILE" default:"state/polling_state.json"`
	SnapshotFile string `envconfig:"SNAPSHOT_FILE" default:"all_agent_messages.json"`
	// ExcludedNamePatterns excludes agents whose name contains any of
	// these substrings, case-insensitively.
	ExcludedNamePatterns []string `envconfig:"EXCLUDED_NAME_PATTERNS" default:"sleeptime"`
}

// HistoryConfig enables the sqlite run-history store when Path is set.
type HistoryConfig struct {
	Path string `envconfig:"HISTORY_PATH"`
}

// MirrorConfig enables mirroring forwarded envelopes to a Kafka topic when
// both Brokers and Topic are set.
type MirrorConfig struct {
	Brokers string `envconfig:"MIRROR_BROKERS"`
	Topic   string `envconfig:"MIRROR_TOPIC"`
}

// NotifyConfig enables a Slack run summary when both Token and Channel are
// set.
type NotifyConfig struct {
	Token   string `envconfig:"SLACK_TOKEN"`
	Channel string `envconfig:"SLACK_CHANNEL"`
}

// LogConfig controls slog output.
type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

// HistoryEnabled reports whether the run-history store is configured.
func (c *Config) HistoryEnabled() bool { return c.History.Path != "" }

// MirrorEnabled reports whether the Kafka mirror is configured.
func (c *Config) MirrorEnabled() bool { return c.Mirror.Brokers != "" && c.Mirror.Topic != "" }

// NotifyEnabled reports whether the Slack summary is configured.
func (c *Config) NotifyEnabled() bool { return c.Notify.Token != "" && c.Notify.Channel != "" }
