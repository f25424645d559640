// Command stubgateway serves the remote data gateway API from in-memory
// fixtures so the client can be exercised locally end to end:
//
//	go run ./cmd/stubgateway &
//	go run ./cmd/syncctl <workspace-id>
package main

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"ai-analytics-client/internal/dto"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type workspaceFixture struct {
	context     dto.ContextSnapshotResponse
	datasources []dto.DatasourceResponse
	sessions    map[uuid.UUID][]dto.ChatSessionResponse
	messages    map[uuid.UUID][]dto.ChatMessageResponse
}

type fixtureStore struct {
	mu         sync.Mutex
	workspaces map[uuid.UUID]*workspaceFixture
}

func newFixtureStore() *fixtureStore {
	return &fixtureStore{workspaces: make(map[uuid.UUID]*workspaceFixture)}
}

// fixtureFor lazily seeds a workspace: one PROCESSING datasource updated
// yesterday, one READY datasource updated today holding a session with 45
// messages (so three pages at the default size of 20).
func (s *fixtureStore) fixtureFor(workspaceId uuid.UUID) *workspaceFixture {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.workspaces[workspaceId]; ok {
		return f
	}

	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)

	processing := dto.DatasourceResponse{
		Id: uuid.New(), WorkspaceId: workspaceId, Name: "uploads.csv",
		Status: "PROCESSING", CreatedAt: yesterday, UpdatedAt: &yesterday,
	}
	ready := dto.DatasourceResponse{
		Id: uuid.New(), WorkspaceId: workspaceId, Name: "sales-2026.parquet",
		Status: "READY", CreatedAt: yesterday, UpdatedAt: &now,
	}

	session := dto.ChatSessionResponse{
		Id: uuid.New(), DatasourceId: ready.Id, Title: "Quarterly revenue drill-down",
		CreatedAt: yesterday,
	}

	messages := make([]dto.ChatMessageResponse, 0, 45)
	for i := 0; i < 45; i++ {
		role := "user"
		chat := fmt.Sprintf("question #%d", i+1)
		if i%2 == 1 {
			role = "assistant"
			chat = fmt.Sprintf("answer #%d", i+1)
		}
		messages = append(messages, dto.ChatMessageResponse{
			Id: uuid.New(), ChatSessionId: session.Id, Role: role, Chat: chat,
			CreatedAt: yesterday.Add(time.Duration(i) * time.Minute),
		})
	}

	f := &workspaceFixture{
		context:     dto.ContextSnapshotResponse{WorkspaceId: workspaceId},
		datasources: []dto.DatasourceResponse{processing, ready},
		sessions:    map[uuid.UUID][]dto.ChatSessionResponse{ready.Id: {session}},
		messages:    map[uuid.UUID][]dto.ChatMessageResponse{session.Id: messages},
	}
	s.workspaces[workspaceId] = f
	return f
}

func main() {
	store := newFixtureStore()
	app := fiber.New()

	app.Get("/v1/workspaces/:id/context", func(c *fiber.Ctx) error {
		workspaceId, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid workspace id")
		}
		f := store.fixtureFor(workspaceId)
		store.mu.Lock()
		defer store.mu.Unlock()
		return c.JSON(f.context)
	})

	app.Patch("/v1/workspaces/:id/context", func(c *fiber.Ctx) error {
		workspaceId, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid workspace id")
		}
		var req dto.UpdateContextStateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
		f := store.fixtureFor(workspaceId)
		store.mu.Lock()
		defer store.mu.Unlock()
		if raw, ok := req.Fields["last_active_dataset_id"]; ok {
			f.context.LastActiveDatasetId = parseOptionalId(raw)
		}
		if raw, ok := req.Fields["last_active_session_id"]; ok {
			f.context.LastActiveSessionId = parseOptionalId(raw)
		}
		now := time.Now()
		f.context.UpdatedAt = &now
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Get("/v1/workspaces/:id/datasources", func(c *fiber.Ctx) error {
		workspaceId, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid workspace id")
		}
		f := store.fixtureFor(workspaceId)
		store.mu.Lock()
		defer store.mu.Unlock()
		return c.JSON(dto.DatasourceListResponse{Items: f.datasources})
	})

	app.Get("/v1/datasources/:id/sessions", func(c *fiber.Ctx) error {
		datasourceId, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid datasource id")
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		for _, f := range store.workspaces {
			if sessions, ok := f.sessions[datasourceId]; ok {
				return c.JSON(dto.ChatSessionListResponse{Items: sessions})
			}
		}
		return c.JSON(dto.ChatSessionListResponse{Items: []dto.ChatSessionResponse{}})
	})

	app.Post("/v1/datasources/:id/sessions", func(c *fiber.Ctx) error {
		datasourceId, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid datasource id")
		}
		var req dto.CreateSessionRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
		title := req.Title
		if title == "" {
			title = "New analysis"
		}
		session := dto.ChatSessionResponse{
			Id: uuid.New(), DatasourceId: datasourceId, Title: title, CreatedAt: time.Now(),
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		for _, f := range store.workspaces {
			for _, d := range f.datasources {
				if d.Id != datasourceId {
					continue
				}
				// Newest-first, matching the real backend's ordering.
				f.sessions[datasourceId] = append([]dto.ChatSessionResponse{session}, f.sessions[datasourceId]...)
				f.messages[session.Id] = []dto.ChatMessageResponse{}
				return c.Status(fiber.StatusCreated).JSON(session)
			}
		}
		return fiber.NewError(fiber.StatusNotFound, "unknown datasource")
	})

	app.Delete("/v1/sessions/:id", func(c *fiber.Ctx) error {
		sessionId, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		for _, f := range store.workspaces {
			for datasourceId, sessions := range f.sessions {
				for i, s := range sessions {
					if s.Id != sessionId {
						continue
					}
					f.sessions[datasourceId] = append(sessions[:i], sessions[i+1:]...)
					delete(f.messages, sessionId)
					return c.SendStatus(fiber.StatusNoContent)
				}
			}
		}
		return fiber.NewError(fiber.StatusNotFound, "unknown session")
	})

	app.Post("/v1/sessions/:id/messages", func(c *fiber.Ctx) error {
		sessionId, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
		}
		var req dto.SendChatRequest
		if err := c.BodyParser(&req); err != nil || req.Chat == "" {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		for _, f := range store.workspaces {
			if _, ok := f.messages[sessionId]; !ok {
				continue
			}
			now := time.Now()
			sent := dto.ChatMessageResponse{
				Id: uuid.New(), ChatSessionId: sessionId, Role: "user",
				Chat: req.Chat, CreatedAt: now,
			}
			reply := dto.ChatMessageResponse{
				Id: uuid.New(), ChatSessionId: sessionId, Role: "assistant",
				Chat:       fmt.Sprintf("Across 128,450 rows, here is what I found for %q.", req.Chat),
				ResultMeta: map[string]interface{}{"row_count": 128450},
				CreatedAt:  now.Add(time.Second),
			}
			f.messages[sessionId] = append(f.messages[sessionId], sent, reply)
			return c.JSON(dto.SendChatResponse{Sent: &sent, Reply: &reply})
		}
		return fiber.NewError(fiber.StatusNotFound, "unknown session")
	})

	app.Get("/v1/sessions/:id/messages", func(c *fiber.Ctx) error {
		sessionId, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
		}
		page := c.QueryInt("page", 1)
		pageSize := c.QueryInt("page_size", 20)
		if page < 1 || pageSize < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "invalid paging")
		}

		store.mu.Lock()
		defer store.mu.Unlock()
		for _, f := range store.workspaces {
			msgs, ok := f.messages[sessionId]
			if !ok {
				continue
			}
			// Stored oldest-first; serve newest-first pages.
			newestFirst := make([]dto.ChatMessageResponse, len(msgs))
			for i, m := range msgs {
				newestFirst[len(msgs)-1-i] = m
			}
			start := (page - 1) * pageSize
			if start >= len(newestFirst) {
				return c.JSON(dto.ChatMessagePageResponse{Items: []dto.ChatMessageResponse{}, HasNext: false})
			}
			end := start + pageSize
			if end > len(newestFirst) {
				end = len(newestFirst)
			}
			return c.JSON(dto.ChatMessagePageResponse{
				Items:   newestFirst[start:end],
				HasNext: end < len(newestFirst),
			})
		}
		return c.JSON(dto.ChatMessagePageResponse{Items: []dto.ChatMessageResponse{}, HasNext: false})
	})

	port := os.Getenv("STUB_GATEWAY_PORT")
	if port == "" {
		port = "3000"
	}
	log.Printf("[INFO] Stub gateway listening on :%s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("[FATAL] Stub gateway stopped: %v", err)
	}
}

func parseOptionalId(raw interface{}) *uuid.UUID {
	str, ok := raw.(string)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return nil
	}
	return &id
}
