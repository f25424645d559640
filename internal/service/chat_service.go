package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"ai-analytics-client/internal/entity"
	"ai-analytics-client/internal/gateway"
	"ai-analytics-client/internal/localstore"
	"ai-analytics-client/internal/pkg/logger"
	"ai-analytics-client/pkg/sync/cache"
	"ai-analytics-client/pkg/sync/hydrate"
	"ai-analytics-client/pkg/sync/paging"
	"ai-analytics-client/pkg/sync/persist"

	"github.com/google/uuid"
)

var (
	ErrNoActiveSession = errors.New("no active chat session")
	ErrNoActiveDataset = errors.New("no active datasource")
)

// IChatService covers the user-initiated operations. Unlike background
// sync, these propagate errors synchronously for explicit display.
type IChatService interface {
	ApplyHydration(res *hydrate.Result)
	ActiveSelection() (workspaceId, datasetId, sessionId *uuid.UUID)
	SendMessage(ctx context.Context, chat string) (*gateway.SendResult, error)
	CreateSession(ctx context.Context, title string) (*entity.ChatSession, error)
	DeleteSession(ctx context.Context, sessionId uuid.UUID) error
}

// chatService owns the optimistic local selection: it is the source of
// truth for current rendering, reconciled one-directionally to the remote
// via the persister. The remote snapshot only matters again on the next
// hydration.
type chatService struct {
	mu        sync.Mutex
	workspace *uuid.UUID
	dataset   *uuid.UUID
	session   *uuid.UUID

	gw        gateway.IGateway
	cache     *cache.Store
	threads   *paging.Manager
	persister *persist.Persister
	local     localstore.KeyValueStore
	logger    logger.ILogger
}

func NewChatService(
	gw gateway.IGateway,
	cacheStore *cache.Store,
	threads *paging.Manager,
	persister *persist.Persister,
	local localstore.KeyValueStore,
	log logger.ILogger,
) IChatService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &chatService{
		gw:        gw,
		cache:     cacheStore,
		threads:   threads,
		persister: persister,
		local:     local,
		logger:    log,
	}
}

// ApplyHydration adopts a completed hydration run's selection as the
// current one. Stale runs never reach this point; the pipeline already
// discarded them.
func (s *chatService) ApplyHydration(res *hydrate.Result) {
	if res == nil || res.Context == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	workspaceId := res.Context.WorkspaceId
	s.workspace = &workspaceId
	s.dataset = res.DatasetID
	s.session = res.SessionID
}

func (s *chatService) ActiveSelection() (*uuid.UUID, *uuid.UUID, *uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyId(s.workspace), copyId(s.dataset), copyId(s.session)
}

// SendMessage posts to the active session and appends the echoed pair to
// the thread tail. The tail append is serialized with any in-progress
// older-page prepend by the thread itself.
func (s *chatService) SendMessage(ctx context.Context, chat string) (*gateway.SendResult, error) {
	s.mu.Lock()
	sessionId := copyId(s.session)
	datasetId := copyId(s.dataset)
	s.mu.Unlock()
	if sessionId == nil {
		return nil, ErrNoActiveSession
	}

	result, err := s.gw.SendMessage(ctx, *sessionId, chat)
	if err != nil {
		return nil, err
	}

	thread := s.threads.ThreadFor(*sessionId)
	thread.Append(result.Sent)
	thread.Append(result.Reply)

	// The cached first page predates the send; a re-hydration inside the
	// TTL would replace the thread with it and lose the new pair.
	s.cache.Invalidate(cache.ResourceMessages, sessionId.String(), "1")

	// The backend may retitle the session off the first message; drop the
	// cached list so the sidebar picks it up on next read.
	if datasetId != nil {
		s.cache.Invalidate(cache.ResourceSessions, datasetId.String())
	}
	return result, nil
}

// CreateSession creates a session under the active datasource and makes
// it the optimistic current selection.
func (s *chatService) CreateSession(ctx context.Context, title string) (*entity.ChatSession, error) {
	s.mu.Lock()
	workspaceId := copyId(s.workspace)
	datasetId := copyId(s.dataset)
	s.mu.Unlock()
	if datasetId == nil {
		return nil, ErrNoActiveDataset
	}

	session, err := s.gw.CreateSession(ctx, *datasetId, title)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(cache.ResourceSessions, datasetId.String())

	s.mu.Lock()
	sessionId := session.Id
	s.session = &sessionId
	s.mu.Unlock()

	s.rememberSession(workspaceId, *datasetId, &sessionId)
	return session, nil
}

// DeleteSession removes a session. When it was the active one, the first
// remaining session (newest-first) is selected, or none.
func (s *chatService) DeleteSession(ctx context.Context, sessionId uuid.UUID) error {
	if err := s.gw.DeleteSession(ctx, sessionId); err != nil {
		return err
	}

	s.threads.Drop(sessionId)
	s.cache.Invalidate(cache.ResourceMessages, sessionId.String(), "1")

	s.mu.Lock()
	workspaceId := copyId(s.workspace)
	datasetId := copyId(s.dataset)
	wasActive := s.session != nil && *s.session == sessionId
	s.mu.Unlock()

	if datasetId != nil {
		s.cache.Invalidate(cache.ResourceSessions, datasetId.String())
	}
	if !wasActive || datasetId == nil {
		return nil
	}

	sessions, err := s.refreshSessions(ctx, *datasetId)
	if err != nil {
		// Deletion itself succeeded; selection catches up on next hydration.
		s.logger.Warn("ChatService", "Could not reselect after delete", map[string]interface{}{
			"datasource_id": datasetId.String(), "error": err.Error(),
		})
		sessions = nil
	}

	var nextId *uuid.UUID
	if next := hydrate.SelectSession(sessions, nil); next != nil {
		id := next.Id
		nextId = &id
	}

	s.mu.Lock()
	s.session = nextId
	s.mu.Unlock()

	s.rememberSession(workspaceId, *datasetId, nextId)
	return nil
}

func (s *chatService) refreshSessions(ctx context.Context, datasetId uuid.UUID) ([]*entity.ChatSession, error) {
	force := time.Duration(0)
	v, err := s.cache.Fetch(ctx, cache.ResourceSessions, []string{datasetId.String()}, func(ctx context.Context) (interface{}, error) {
		return s.gw.GetSessions(ctx, datasetId)
	}, &cache.Options{TTLOverride: &force})
	if err != nil {
		return nil, err
	}
	return v.([]*entity.ChatSession), nil
}

// rememberSession converges the remote pointer and local mirror to the
// optimistic selection.
func (s *chatService) rememberSession(workspaceId *uuid.UUID, datasetId uuid.UUID, sessionId *uuid.UUID) {
	if workspaceId != nil {
		var value interface{}
		if sessionId != nil {
			value = sessionId.String()
		}
		s.persister.Schedule(*workspaceId, map[string]interface{}{
			"last_active_session_id": value,
		})
	}
	if s.local != nil {
		if sessionId != nil {
			s.local.Set(localstore.SessionKey(datasetId), sessionId.String())
		} else {
			s.local.Delete(localstore.SessionKey(datasetId))
		}
	}
}

func copyId(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
