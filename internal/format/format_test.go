package format

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/oculair/graphpoll/internal/letta"
)

func TestFormat_AssistantMessageWithAPIFieldNames(t *testing.T) {
	// The server returns message_type/date rather than type/created_at.
	env, err := Format(letta.RawMessage{
		ID:          "message-003",
		MessageType: letta.TypeAssistant,
		Content:     json.RawMessage(`"Test response from agent"`),
		Date:        "2024-01-01T12:00:00Z",
	}, nil)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if env.RoleType != "assistant" {
		t.Errorf("expected role_type assistant, got %q", env.RoleType)
	}
	if !strings.Contains(env.Content, "Test response") {
		t.Errorf("expected content to contain the response, got %q", env.Content)
	}
	if !strings.HasSuffix(env.Timestamp, "+00:00") {
		t.Errorf("expected timestamp ending in +00:00, got %q", env.Timestamp)
	}
	if env.Role != "Agent" || env.Name != "Agent Message" {
		t.Errorf("unexpected role labels: role=%q name=%q", env.Role, env.Name)
	}
	if env.SourceDescription != "Letta assistant_message" {
		t.Errorf("unexpected source: %q", env.SourceDescription)
	}
}

func TestFormat_UserMessageResolvesAdminName(t *testing.T) {
	users := map[string]letta.User{
		"user-123": {ID: "user-123", Name: "Alice"},
	}
	env, err := Format(letta.RawMessage{
		ID:        "message-001",
		Type:      letta.TypeUser,
		Content:   json.RawMessage(`[{"type":"text","text":"Hello agent"}]`),
		CreatedAt: "2024-01-01T12:00:00Z",
		UserID:    "user-123",
	}, users)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if env.RoleType != "user" {
		t.Errorf("expected role_type user, got %q", env.RoleType)
	}
	if env.Content != "Hello agent" {
		t.Errorf("expected joined part text, got %q", env.Content)
	}
	if env.Role != "Alice" {
		t.Errorf("expected resolved name Alice, got %q", env.Role)
	}
}

func TestFormat_UserNameFallbacks(t *testing.T) {
	// Unknown sender ID gets a synthetic label.
	env, err := Format(letta.RawMessage{
		ID:       "message-002",
		Type:     letta.TypeUser,
		Content:  json.RawMessage(`"hi"`),
		SenderID: "user-456",
	}, nil)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if env.Role != "User user-456" {
		t.Errorf("expected synthetic label, got %q", env.Role)
	}

	// No sender at all (explicit user type) gets the unknown label.
	env, err = Format(letta.RawMessage{
		ID:      "message-003",
		Type:    letta.TypeUser,
		Content: json.RawMessage(`"hi"`),
	}, nil)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if env.Role != "Unknown User" {
		t.Errorf("expected Unknown User, got %q", env.Role)
	}
}

func TestFormat_ToolReturnSkipped(t *testing.T) {
	_, err := Format(letta.RawMessage{
		ID:      "message-004",
		Type:    letta.TypeToolReturn,
		Content: json.RawMessage(`"tool output"`),
	}, nil)
	if !errors.Is(err, ErrSkippedType) {
		t.Fatalf("expected ErrSkippedType, got %v", err)
	}
}

func TestFormat_ReasoningMessage(t *testing.T) {
	env, err := Format(letta.RawMessage{
		ID:        "message-005",
		Type:      letta.TypeReasoning,
		Reasoning: json.RawMessage(`"Let me think about this..."`),
		CreatedAt: "2024-01-01T12:00:03Z",
	}, nil)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if env.RoleType != "system" {
		t.Errorf("expected role_type system, got %q", env.RoleType)
	}
	if env.Content != "Let me think about this..." {
		t.Errorf("expected reasoning string as content, got %q", env.Content)
	}
	if env.Role != "Agent (Reasoning)" {
		t.Errorf("unexpected role label %q", env.Role)
	}
}

func TestFormat_EmptyContentDropped(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty string", `""`},
		{"whitespace", `"   "`},
		{"empty object sentinel", `"{}"`},
		{"none sentinel", `"None"`},
		{"no-text sentinel", `"[No text content]"`},
		{"quoted empty sentinel", `"\"\""`},
		{"empty part list", `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Format(letta.RawMessage{
				ID:      "message-006",
				Type:    letta.TypeAssistant,
				Content: json.RawMessage(tt.content),
			}, nil)
			if !errors.Is(err, ErrEmptyContent) {
				t.Fatalf("expected ErrEmptyContent, got %v", err)
			}
		})
	}
}

func TestFormat_UnclassifiablePropagates(t *testing.T) {
	_, err := Format(letta.RawMessage{ID: "message-007"}, nil)
	if !errors.Is(err, letta.ErrUnclassifiable) {
		t.Fatalf("expected ErrUnclassifiable, got %v", err)
	}
}

func TestFormat_MissingTimestampGetsCurrentTime(t *testing.T) {
	env, err := Format(letta.RawMessage{
		ID:      "message-008",
		Type:    letta.TypeAssistant,
		Content: json.RawMessage(`"hello"`),
	}, nil)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if env.Timestamp == "" {
		t.Error("expected a generated timestamp")
	}
	if strings.HasSuffix(env.Timestamp, "Z") {
		t.Errorf("expected no trailing Z, got %q", env.Timestamp)
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	if got := normalizeTimestamp("2024-01-01T12:00:00Z"); got != "2024-01-01T12:00:00+00:00" {
		t.Errorf("got %q", got)
	}
	if got := normalizeTimestamp("2024-01-01T12:00:00+02:00"); got != "2024-01-01T12:00:00+02:00" {
		t.Errorf("offset timestamps must pass through, got %q", got)
	}
}
