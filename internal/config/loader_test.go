package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("LETTA_BASE_URL", "")
	t.Setenv("LETTA_PASSWORD", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "LETTA_BASE_URL") {
		t.Fatalf("expected missing LETTA_BASE_URL error, got %v", err)
	}

	t.Setenv("LETTA_BASE_URL", "http://localhost:8283")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "LETTA_PASSWORD") {
		t.Fatalf("expected missing LETTA_PASSWORD error, got %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LETTA_BASE_URL", "http://localhost:8283/")
	t.Setenv("LETTA_PASSWORD", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Letta.BaseURL != "http://localhost:8283" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.Letta.BaseURL)
	}
	if cfg.Letta.PageLimit != 100 {
		t.Errorf("expected default page limit 100, got %d", cfg.Letta.PageLimit)
	}
	if cfg.Letta.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %s", cfg.Letta.Timeout)
	}
	if cfg.Graphiti.Endpoint != "http://localhost:8003" {
		t.Errorf("unexpected default endpoint %q", cfg.Graphiti.Endpoint)
	}
	if cfg.Poller.StateFile != "state/polling_state.json" {
		t.Errorf("unexpected default state file %q", cfg.Poller.StateFile)
	}
	if len(cfg.Poller.ExcludedNamePatterns) != 1 || cfg.Poller.ExcludedNamePatterns[0] != "sleeptime" {
		t.Errorf("unexpected default name patterns %v", cfg.Poller.ExcludedNamePatterns)
	}
	if cfg.HistoryEnabled() || cfg.MirrorEnabled() || cfg.NotifyEnabled() {
		t.Error("optional subsystems must be disabled by default")
	}
}

func TestLoad_ExcludedAgentIDs(t *testing.T) {
	t.Setenv("LETTA_BASE_URL", "http://localhost:8283")
	t.Setenv("LETTA_PASSWORD", "secret")
	t.Setenv("GRAPHITI_EXCLUDED_AGENT_IDS", "agent-1, ,agent-2,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []string{"agent-1", "agent-2"}
	if len(cfg.Graphiti.ExcludedAgentIDs) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.Graphiti.ExcludedAgentIDs)
	}
	for i, id := range want {
		if cfg.Graphiti.ExcludedAgentIDs[i] != id {
			t.Errorf("expected %v, got %v", want, cfg.Graphiti.ExcludedAgentIDs)
		}
	}
}

func TestLoad_OptionalSubsystems(t *testing.T) {
	t.Setenv("LETTA_BASE_URL", "http://localhost:8283")
	t.Setenv("LETTA_PASSWORD", "secret")
	t.Setenv("GRAPHPOLL_HISTORY_PATH", "/tmp/history.db")
	t.Setenv("GRAPHPOLL_MIRROR_BROKERS", "localhost:9092")
	t.Setenv("GRAPHPOLL_MIRROR_TOPIC", "graphpoll.messages")
	t.Setenv("GRAPHPOLL_SLACK_TOKEN", "xoxb-test")
	t.Setenv("GRAPHPOLL_SLACK_CHANNEL", "#knowledge")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.HistoryEnabled() || !cfg.MirrorEnabled() || !cfg.NotifyEnabled() {
		t.Error("expected all optional subsystems enabled")
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{Log: LogConfig{Level: tt.level}}
		if got := cfg.SlogLevel(); got != tt.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
