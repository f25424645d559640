package dto

import (
	"time"

	"github.com/google/uuid"
)

// Payloads exchanged with the remote data gateway. List endpoints return
// items plus a has_next indicator; the message endpoint is newest-first.

type ContextSnapshotResponse struct {
	WorkspaceId         uuid.UUID  `json:"workspace_id"`
	LastActiveDatasetId *uuid.UUID `json:"last_active_dataset_id"`
	LastActiveSessionId *uuid.UUID `json:"last_active_session_id"`
	UpdatedAt           *time.Time `json:"updated_at"`
}

type WorkspaceResponse struct {
	Id        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	IsDefault bool       `json:"is_default"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type DatasourceResponse struct {
	Id          uuid.UUID  `json:"id"`
	WorkspaceId uuid.UUID  `json:"workspace_id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

type DatasourceListResponse struct {
	Items []DatasourceResponse `json:"items"`
}

type ChatSessionResponse struct {
	Id           uuid.UUID  `json:"id"`
	DatasourceId uuid.UUID  `json:"datasource_id"`
	Title        string     `json:"title"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	IsDeleted    bool       `json:"is_deleted,omitempty"`
}

type ChatSessionListResponse struct {
	Items []ChatSessionResponse `json:"items"`
}

type ChatMessageResponse struct {
	Id            uuid.UUID              `json:"id"`
	ChatSessionId uuid.UUID              `json:"chat_session_id"`
	Role          string                 `json:"role"`
	Chat          string                 `json:"chat"`
	ResultMeta    map[string]interface{} `json:"result_meta,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

type ChatMessagePageResponse struct {
	Items   []ChatMessageResponse `json:"items"`
	HasNext bool                  `json:"has_next"`
}

type UpdateContextStateRequest struct {
	Fields map[string]interface{} `json:"fields" validate:"required,min=1"`
}

type CreateSessionRequest struct {
	DatasourceId uuid.UUID `json:"datasource_id" validate:"required"`
	Title        string    `json:"title"`
}

type SendChatRequest struct {
	Chat string `json:"chat" validate:"required"`
}

type SendChatResponse struct {
	Sent  *ChatMessageResponse `json:"sent"`
	Reply *ChatMessageResponse `json:"reply"`
}
