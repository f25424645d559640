package paging

import (
	"sync"

	"ai-analytics-client/internal/pkg/logger"
	"ai-analytics-client/pkg/events"

	"github.com/google/uuid"
)

// Manager hands out one Thread per session for the application lifetime.
type Manager struct {
	mu       sync.Mutex
	threads  map[uuid.UUID]*Thread
	fetch    Fetcher
	pageSize int
	bus      *events.Bus
	logger   logger.ILogger
}

func NewManager(fetch Fetcher, pageSize int, bus *events.Bus, log logger.ILogger) *Manager {
	return &Manager{
		threads:  make(map[uuid.UUID]*Thread),
		fetch:    fetch,
		pageSize: pageSize,
		bus:      bus,
		logger:   log,
	}
}

// ThreadFor returns the session's thread, creating it on first use.
func (m *Manager) ThreadFor(sessionId uuid.UUID) *Thread {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.threads[sessionId]; ok {
		return t
	}
	t := NewThread(sessionId, m.fetch, m.pageSize, m.bus, m.logger)
	m.threads[sessionId] = t
	return t
}

// Drop forgets a session's thread, e.g. after deletion.
func (m *Manager) Drop(sessionId uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.threads, sessionId)
}

// Reset forgets every thread. Used on sign-out together with the cache
// store's ClearAll.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads = make(map[uuid.UUID]*Thread)
}
