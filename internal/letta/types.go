package letta

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Wire names for the message kinds the poller understands.
const (
	TypeUser       = "user_message"
	TypeAssistant  = "assistant_message"
	TypeReasoning  = "reasoning_message"
	TypeToolReturn = "tool_return_message"
)

// Agent is one entry from the agent directory.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DisplayName returns the agent name, or a placeholder when the server
// returned none.
func (a Agent) DisplayName() string {
	if strings.TrimSpace(a.Name) == "" {
		return "Unnamed Agent"
	}
	return a.Name
}

// User is one entry from the admin user directory, used to resolve sender
// IDs on user-authored messages into display names.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Identity is a single identity record. Not part of the run loop; exposed
// for ad-hoc lookups.
type Identity struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	IdentityType string `json:"identity_type"`
}

// RawMessage is a message record as the server returns it. The API has
// shipped two spellings for several fields (type/message_type,
// created_at/date, user_id/sender_id); both are carried so either server
// version decodes. Content and reasoning payloads are kept raw because
// their shape varies by message kind.
type RawMessage struct {
	ID          string          `json:"id"`
	Type        string          `json:"type,omitempty"`
	MessageType string          `json:"message_type,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
	Date        string          `json:"date,omitempty"`
	UserID      string          `json:"user_id,omitempty"`
	SenderID    string          `json:"sender_id,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
	Reasoning   json.RawMessage `json:"reasoning,omitempty"`
}

// TypeName returns the explicit message type, preferring the legacy "type"
// field over "message_type". Empty when neither is set.
func (m RawMessage) TypeName() string {
	if m.Type != "" {
		return m.Type
	}
	return m.MessageType
}

// Timestamp returns the message time string, preferring "created_at" over
// "date". Empty when neither is set.
func (m RawMessage) Timestamp() string {
	if m.CreatedAt != "" {
		return m.CreatedAt
	}
	return m.Date
}

// Sender returns the authoring user ID, preferring "user_id" over
// "sender_id". Empty for agent-authored messages.
func (m RawMessage) Sender() string {
	if m.UserID != "" {
		return m.UserID
	}
	return m.SenderID
}

func (m RawMessage) hasContent() bool   { return jsonPresent(m.Content) }
func (m RawMessage) hasReasoning() bool { return jsonPresent(m.Reasoning) }

func jsonPresent(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && string(raw) != "null"
}

// Message is a classified agent message. The concrete type identifies the
// message kind; each variant carries only the fields that kind uses.
type Message interface {
	// MessageID returns the upstream message identifier.
	MessageID() string
	// TypeName returns the wire name of the message kind.
	TypeName() string
}

// UserMessage is a message authored by a human user.
type UserMessage struct {
	ID        string
	SenderID  string
	Timestamp string
	Content   json.RawMessage
}

func (m UserMessage) MessageID() string { return m.ID }
func (m UserMessage) TypeName() string  { return TypeUser }

// AssistantMessage is a message authored by the agent.
type AssistantMessage struct {
	ID        string
	Timestamp string
	Content   json.RawMessage
}

func (m AssistantMessage) MessageID() string { return m.ID }
func (m AssistantMessage) TypeName() string  { return TypeAssistant }

// ReasoningMessage is the agent's internal reasoning trace.
type ReasoningMessage struct {
	ID        string
	Timestamp string
	Reasoning json.RawMessage
}

func (m ReasoningMessage) MessageID() string { return m.ID }
func (m ReasoningMessage) TypeName() string  { return TypeReasoning }

// ToolReturnMessage is tool output. It is classified so callers can skip it
// deliberately rather than failing on it.
type ToolReturnMessage struct {
	ID string
}

func (m ToolReturnMessage) MessageID() string { return m.ID }
func (m ToolReturnMessage) TypeName() string  { return TypeToolReturn }

// ErrUnsupportedType marks messages whose explicit type is outside the
// known set.
var ErrUnsupportedType = errors.New("unsupported message type")

// ErrUnclassifiable marks messages with no explicit type and no
// recognizable shape.
var ErrUnclassifiable = errors.New("unclassifiable message")

// Classify maps a raw record to one of the closed set of message variants.
// The explicit type field wins when present; otherwise the kind is inferred
// from field presence: a reasoning payload means reasoning, sender plus
// content means user, content alone means assistant.
func Classify(raw RawMessage) (Message, error) {
	typ := raw.TypeName()
	if typ == "" {
		switch {
		case raw.hasReasoning():
			typ = TypeReasoning
		case raw.Sender() != "" && raw.hasContent():
			typ = TypeUser
		case raw.hasContent():
			typ = TypeAssistant
		default:
			return nil, fmt.Errorf("message %s: %w", raw.ID, ErrUnclassifiable)
		}
	}

	switch typ {
	case TypeUser:
		return UserMessage{ID: raw.ID, SenderID: raw.Sender(), Timestamp: raw.Timestamp(), Content: raw.Content}, nil
	case TypeAssistant:
		return AssistantMessage{ID: raw.ID, Timestamp: raw.Timestamp(), Content: raw.Content}, nil
	case TypeReasoning:
		return ReasoningMessage{ID: raw.ID, Timestamp: raw.Timestamp(), Reasoning: raw.Reasoning}, nil
	case TypeToolReturn:
		return ToolReturnMessage{ID: raw.ID}, nil
	default:
		return nil, fmt.Errorf("message %s: %w: %q", raw.ID, ErrUnsupportedType, typ)
	}
}

// ContentText flattens a heterogeneous content payload to plain text. Part
// lists concatenate their text-typed parts with single spaces; objects
// prefer an embedded "text" field and otherwise serialize as-is; anything
// else is taken literally.
func ContentText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
	case '[':
		var items []json.RawMessage
		if json.Unmarshal(raw, &items) == nil {
			var texts []string
			for _, item := range items {
				var part struct {
					Type string `json:"type"`
					Text string `json:"text"`
				}
				if json.Unmarshal(item, &part) == nil && part.Type == "text" {
					texts = append(texts, part.Text)
				}
			}
			return strings.Join(texts, " ")
		}
	case '{':
		var obj map[string]json.RawMessage
		if json.Unmarshal(raw, &obj) == nil {
			if text, ok := obj["text"]; ok {
				var s string
				if json.Unmarshal(text, &s) == nil {
					return s
				}
			}
			return string(raw)
		}
	}
	return string(raw)
}

// ReasoningText flattens a reasoning payload: plain strings are returned
// as-is, structured payloads are serialized to JSON text.
func ReasoningText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
	}
	return string(raw)
}
