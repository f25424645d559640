package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-analytics-client/internal/dto"
	"ai-analytics-client/internal/entity"
	"ai-analytics-client/internal/mapper"
	"ai-analytics-client/internal/pkg/logger"

	"github.com/google/uuid"
)

// HTTPGateway implements IGateway over the backend's JSON API.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	tokens  TokenProvider
	mapper  *mapper.GatewayMapper
	logger  logger.ILogger
}

func NewHTTPGateway(baseURL string, timeout time.Duration, tokens TokenProvider, log logger.ILogger) *HTTPGateway {
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		tokens:  tokens,
		mapper:  mapper.NewGatewayMapper(),
		logger:  log,
	}
}

func (g *HTTPGateway) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.tokens != nil {
		token, err := g.tokens.Token()
		if err != nil {
			return fmt.Errorf("token provider: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(bodyBytes)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return fmt.Errorf("gateway %s %s: status %d: %s", method, path, resp.StatusCode, snippet)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(bodyBytes, out)
}

func (g *HTTPGateway) GetContext(ctx context.Context, workspaceId uuid.UUID) (*entity.ContextSnapshot, error) {
	var resp dto.ContextSnapshotResponse
	path := fmt.Sprintf("/v1/workspaces/%s/context", workspaceId)
	if err := g.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return g.mapper.ToContextSnapshot(&resp), nil
}

func (g *HTTPGateway) GetDatasources(ctx context.Context, workspaceId uuid.UUID) ([]*entity.Datasource, error) {
	var resp dto.DatasourceListResponse
	path := fmt.Sprintf("/v1/workspaces/%s/datasources", workspaceId)
	if err := g.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return g.mapper.ToDatasources(resp.Items), nil
}

func (g *HTTPGateway) GetSessions(ctx context.Context, datasourceId uuid.UUID) ([]*entity.ChatSession, error) {
	var resp dto.ChatSessionListResponse
	path := fmt.Sprintf("/v1/datasources/%s/sessions", datasourceId)
	if err := g.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return g.mapper.ToChatSessions(resp.Items), nil
}

func (g *HTTPGateway) GetMessages(ctx context.Context, sessionId uuid.UUID, page, pageSize int) (*MessagePage, error) {
	var resp dto.ChatMessagePageResponse
	path := fmt.Sprintf("/v1/sessions/%s/messages?page=%d&page_size=%d", sessionId, page, pageSize)
	if err := g.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &MessagePage{
		Items:   g.mapper.ToChatMessages(resp.Items),
		HasNext: resp.HasNext,
	}, nil
}

func (g *HTTPGateway) UpdateContextState(ctx context.Context, workspaceId uuid.UUID, fields map[string]interface{}) error {
	path := fmt.Sprintf("/v1/workspaces/%s/context", workspaceId)
	return g.doJSON(ctx, http.MethodPatch, path, dto.UpdateContextStateRequest{Fields: fields}, nil)
}

func (g *HTTPGateway) CreateSession(ctx context.Context, datasourceId uuid.UUID, title string) (*entity.ChatSession, error) {
	var resp dto.ChatSessionResponse
	path := fmt.Sprintf("/v1/datasources/%s/sessions", datasourceId)
	req := dto.CreateSessionRequest{DatasourceId: datasourceId, Title: title}
	if err := g.doJSON(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return g.mapper.ToChatSession(&resp), nil
}

func (g *HTTPGateway) DeleteSession(ctx context.Context, sessionId uuid.UUID) error {
	path := fmt.Sprintf("/v1/sessions/%s", sessionId)
	return g.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (g *HTTPGateway) SendMessage(ctx context.Context, sessionId uuid.UUID, chat string) (*SendResult, error) {
	var resp dto.SendChatResponse
	path := fmt.Sprintf("/v1/sessions/%s/messages", sessionId)
	if err := g.doJSON(ctx, http.MethodPost, path, dto.SendChatRequest{Chat: chat}, &resp); err != nil {
		return nil, err
	}
	result := &SendResult{}
	if resp.Sent != nil {
		result.Sent = g.mapper.ToChatMessage(resp.Sent)
	}
	if resp.Reply != nil {
		result.Reply = g.mapper.ToChatMessage(resp.Reply)
	}
	return result, nil
}
