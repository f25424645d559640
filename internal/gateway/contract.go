package gateway

import (
	"context"

	"ai-analytics-client/internal/entity"

	"github.com/google/uuid"
)

// MessagePage is one page of a session's history, newest-first as returned
// by the backend.
type MessagePage struct {
	Items   []*entity.ChatMessage
	HasNext bool
}

// SendResult pairs the echoed user message with the assistant reply.
type SendResult struct {
	Sent  *entity.ChatMessage
	Reply *entity.ChatMessage
}

// IGateway is the remote data gateway boundary. Every call is a network
// round trip; callers decide about caching and coalescing.
type IGateway interface {
	GetContext(ctx context.Context, workspaceId uuid.UUID) (*entity.ContextSnapshot, error)
	GetDatasources(ctx context.Context, workspaceId uuid.UUID) ([]*entity.Datasource, error)
	GetSessions(ctx context.Context, datasourceId uuid.UUID) ([]*entity.ChatSession, error)
	GetMessages(ctx context.Context, sessionId uuid.UUID, page, pageSize int) (*MessagePage, error)
	UpdateContextState(ctx context.Context, workspaceId uuid.UUID, fields map[string]interface{}) error
	CreateSession(ctx context.Context, datasourceId uuid.UUID, title string) (*entity.ChatSession, error)
	DeleteSession(ctx context.Context, sessionId uuid.UUID) error
	SendMessage(ctx context.Context, sessionId uuid.UUID, chat string) (*SendResult, error)
}
