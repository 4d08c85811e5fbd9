package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role discriminates the two thread message variants.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ThreadMessage is a sealed tagged union over UserMessage and
// AssistantMessage, discriminated by the role field.
type ThreadMessage interface {
	ThreadRole() Role
	ID() string
	threadMessage()
}

// UserMessage is a single prompt submitted by the user. MessageID is
// assigned server-side only; ids from the client are never accepted.
type UserMessage struct {
	Role      Role   `json:"role"`
	MessageID string `json:"messageId"`
	Prompt    string `json:"prompt"`
	Timestamp string `json:"timestamp"`
}

func (UserMessage) threadMessage()     {}
func (m UserMessage) ThreadRole() Role { return RoleUser }
func (m UserMessage) ID() string       { return m.MessageID }

// AssistantMessage is the assistant's side of a turn. SearchResponse may
// be set while C1Response is still empty: that is a valid persisted
// intermediate state (search done, generation in flight or aborted).
type AssistantMessage struct {
	Role           Role            `json:"role"`
	MessageID      string          `json:"messageId"`
	SearchResponse json.RawMessage `json:"searchResponse,omitempty"`
	C1Response     string          `json:"c1Response,omitempty"`
	Timestamp      string          `json:"timestamp"`
}

func (AssistantMessage) threadMessage()     {}
func (m AssistantMessage) ThreadRole() Role { return RoleAssistant }
func (m AssistantMessage) ID() string       { return m.MessageID }

// Thread is the ordered list of messages stored under one thread id.
// The model tolerates any role ordering; alternation is not enforced.
type Thread []ThreadMessage

// NewUserMessage builds a user message with a fresh server-side id.
func NewUserMessage(prompt string) UserMessage {
	return UserMessage{
		Role:      RoleUser,
		MessageID: uuid.NewString(),
		Prompt:    prompt,
		Timestamp: now(),
	}
}

// AssistantSeed optionally pre-populates a new assistant message.
type AssistantSeed struct {
	SearchResponse json.RawMessage
	C1Response     string
}

// NewAssistantMessage builds an assistant message with a fresh
// server-side id, optionally seeded with initial data.
func NewAssistantMessage(seed *AssistantSeed) AssistantMessage {
	msg := AssistantMessage{
		Role:      RoleAssistant,
		MessageID: uuid.NewString(),
		Timestamp: now(),
	}
	if seed != nil {
		msg.SearchResponse = seed.SearchResponse
		msg.C1Response = seed.C1Response
	}
	return msg
}

// AssistantUpdate carries a shallow merge for an assistant message.
// Nil fields are left untouched; role, messageId and timestamp are
// never modified.
type AssistantUpdate struct {
	SearchResponse json.RawMessage
	C1Response     *string
}

// Apply merges the update into the message.
func (m *AssistantMessage) Apply(u AssistantUpdate) {
	if u.SearchResponse != nil {
		m.SearchResponse = u.SearchResponse
	}
	if u.C1Response != nil {
		m.C1Response = *u.C1Response
	}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// UnmarshalJSON decodes the serialized message list, dispatching each
// element on its role field.
func (t *Thread) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Thread, 0, len(raw))
	for _, item := range raw {
		var probe struct {
			Role Role `json:"role"`
		}
		if err := json.Unmarshal(item, &probe); err != nil {
			return err
		}
		switch probe.Role {
		case RoleUser:
			var msg UserMessage
			if err := json.Unmarshal(item, &msg); err != nil {
				return err
			}
			out = append(out, msg)
		case RoleAssistant:
			var msg AssistantMessage
			if err := json.Unmarshal(item, &msg); err != nil {
				return err
			}
			out = append(out, msg)
		default:
			return fmt.Errorf("unknown thread message role %q", probe.Role)
		}
	}
	*t = out
	return nil
}
