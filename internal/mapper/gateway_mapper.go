package mapper

import (
	"ai-analytics-client/internal/dto"
	"ai-analytics-client/internal/entity"
)

type GatewayMapper struct{}

func NewGatewayMapper() *GatewayMapper {
	return &GatewayMapper{}
}

func (m *GatewayMapper) ToContextSnapshot(r *dto.ContextSnapshotResponse) *entity.ContextSnapshot {
	return &entity.ContextSnapshot{
		WorkspaceId:         r.WorkspaceId,
		LastActiveDatasetId: r.LastActiveDatasetId,
		LastActiveSessionId: r.LastActiveSessionId,
		UpdatedAt:           r.UpdatedAt,
	}
}

func (m *GatewayMapper) ToDatasource(r *dto.DatasourceResponse) *entity.Datasource {
	return &entity.Datasource{
		Id:          r.Id,
		WorkspaceId: r.WorkspaceId,
		Name:        r.Name,
		Status:      entity.DatasourceStatus(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (m *GatewayMapper) ToDatasources(rs []dto.DatasourceResponse) []*entity.Datasource {
	out := make([]*entity.Datasource, len(rs))
	for i := range rs {
		out[i] = m.ToDatasource(&rs[i])
	}
	return out
}

func (m *GatewayMapper) ToChatSession(r *dto.ChatSessionResponse) *entity.ChatSession {
	return &entity.ChatSession{
		Id:           r.Id,
		DatasourceId: r.DatasourceId,
		Title:        r.Title,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		DeletedAt:    r.DeletedAt,
		IsDeleted:    r.IsDeleted,
	}
}

func (m *GatewayMapper) ToChatSessions(rs []dto.ChatSessionResponse) []*entity.ChatSession {
	out := make([]*entity.ChatSession, len(rs))
	for i := range rs {
		out[i] = m.ToChatSession(&rs[i])
	}
	return out
}

func (m *GatewayMapper) ToChatMessage(r *dto.ChatMessageResponse) *entity.ChatMessage {
	return &entity.ChatMessage{
		Id:            r.Id,
		ChatSessionId: r.ChatSessionId,
		Role:          r.Role,
		Chat:          r.Chat,
		ResultMeta:    r.ResultMeta,
		CreatedAt:     r.CreatedAt,
	}
}

func (m *GatewayMapper) ToChatMessages(rs []dto.ChatMessageResponse) []*entity.ChatMessage {
	out := make([]*entity.ChatMessage, len(rs))
	for i := range rs {
		out[i] = m.ToChatMessage(&rs[i])
	}
	return out
}
