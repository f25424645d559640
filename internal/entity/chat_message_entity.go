package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
)

type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Role          string
	Chat          string
	// ResultMeta carries structured analysis output attached to assistant
	// messages. The sync core passes it through untouched.
	ResultMeta map[string]interface{}
	CreatedAt  time.Time
}
