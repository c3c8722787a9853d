// Package format normalizes Letta messages into Graphiti envelopes.
package format

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oculair/graphpoll/internal/graphiti"
	"github.com/oculair/graphpoll/internal/letta"
)

// ErrSkippedType marks message kinds that are classified but deliberately
// not forwarded (tool output).
var ErrSkippedType = errors.New("skipped message type")

// ErrEmptyContent marks messages dropped because they carry no usable text.
var ErrEmptyContent = errors.New("empty content")

// emptySentinels are content strings that mean "nothing" once trimmed.
var emptySentinels = map[string]struct{}{
	"{}":                {},
	"None":              {},
	"[No text content]": {},
	`""`:                {},
}

// Format converts one raw message into an ingestion envelope. Messages that
// should not be forwarded return an error wrapping ErrSkippedType,
// ErrEmptyContent, letta.ErrUnsupportedType, or letta.ErrUnclassifiable.
func Format(raw letta.RawMessage, users map[string]letta.User) (*graphiti.Envelope, error) {
	msg, err := letta.Classify(raw)
	if err != nil {
		return nil, err
	}

	var content, roleType, roleName string
	switch m := msg.(type) {
	case letta.UserMessage:
		roleType = "user"
		content = letta.ContentText(m.Content)
		roleName = resolveUserName(m.SenderID, users)
	case letta.AssistantMessage:
		roleType = "assistant"
		content = letta.ContentText(m.Content)
		roleName = "Agent"
	case letta.ReasoningMessage:
		roleType = "system"
		content = letta.ReasoningText(m.Reasoning)
		roleName = "Agent (Reasoning)"
	case letta.ToolReturnMessage:
		return nil, fmt.Errorf("message %s: %w: %s", m.ID, ErrSkippedType, m.TypeName())
	default:
		return nil, fmt.Errorf("message %s: %w: %s", msg.MessageID(), letta.ErrUnsupportedType, msg.TypeName())
	}

	if isEmpty(content) {
		return nil, fmt.Errorf("message %s: %w", msg.MessageID(), ErrEmptyContent)
	}

	return &graphiti.Envelope{
		Content:           content,
		Name:              roleName + " Message",
		RoleType:          roleType,
		Role:              roleName,
		Timestamp:         normalizeTimestamp(raw.Timestamp()),
		SourceDescription: "Letta " + msg.TypeName(),
	}, nil
}

// resolveUserName maps a sender ID to a display name through the admin user
// directory, degrading to a synthetic label when the directory has no entry.
func resolveUserName(senderID string, users map[string]letta.User) string {
	if senderID == "" {
		return "Unknown User"
	}
	if u, ok := users[senderID]; ok && u.Name != "" {
		return u.Name
	}
	return "User " + senderID
}

func isEmpty(content string) bool {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return true
	}
	_, sentinel := emptySentinels[trimmed]
	return sentinel
}

// normalizeTimestamp keeps the message's own timestamp when present,
// rewriting a trailing "Z" to an explicit zero offset. Messages without a
// timestamp get the current time.
func normalizeTimestamp(ts string) string {
	if ts == "" {
		ts = time.Now().Format(time.RFC3339Nano)
	}
	if strings.HasSuffix(ts, "Z") {
		return strings.TrimSuffix(ts, "Z") + "+00:00"
	}
	return ts
}
