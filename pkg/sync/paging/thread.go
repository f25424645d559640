package paging

import (
	"context"
	"sync"
	"time"

	"ai-analytics-client/internal/entity"
	"ai-analytics-client/internal/pkg/logger"
	"ai-analytics-client/pkg/events"

	"github.com/google/uuid"
)

// Fetcher loads one page of a session's history, newest-first.
type Fetcher func(ctx context.Context, sessionId uuid.UUID, page, pageSize int) (items []*entity.ChatMessage, hasNext bool, err error)

// Thread owns the materialized message list of one session. Its mutex is
// the defined merge order between the two mutation paths: prepend-older
// (pagination) and append-new (send). Display order is oldest-first.
type Thread struct {
	mu          sync.Mutex
	sessionId   uuid.UUID
	fetch       Fetcher
	pageSize    int
	page        int
	hasNext     bool
	loadingMore bool
	messages    []*entity.ChatMessage
	// pendingTail buffers messages appended while LoadOlder is measuring
	// the viewport, so the anchor delta reflects the prepend alone.
	pendingTail []*entity.ChatMessage
	seen        map[uuid.UUID]struct{}

	bus    *events.Bus
	logger logger.ILogger
}

func NewThread(sessionId uuid.UUID, fetch Fetcher, pageSize int, bus *events.Bus, log logger.ILogger) *Thread {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Thread{
		sessionId: sessionId,
		fetch:     fetch,
		pageSize:  pageSize,
		seen:      make(map[uuid.UUID]struct{}),
		bus:       bus,
		logger:    log,
	}
}

// LoadInitial fetches page 1 and replaces the list with its reversal
// (oldest-first for display). Emits the page-loaded signal so the view
// can scroll to the bottom.
func (t *Thread) LoadInitial(ctx context.Context) error {
	items, hasNext, err := t.fetch(ctx, t.sessionId, 1, t.pageSize)
	if err != nil {
		return err
	}
	t.Replace(items, hasNext)
	return nil
}

// Replace commits an already fetched first page (newest-first) as the
// whole thread. Split out from LoadInitial so the hydration pipeline can
// gate on its generation token between fetch and commit.
func (t *Thread) Replace(items []*entity.ChatMessage, hasNext bool) {
	t.mu.Lock()
	t.messages = reverse(items)
	t.seen = make(map[uuid.UUID]struct{}, len(items))
	for _, m := range items {
		t.seen[m.Id] = struct{}{}
	}
	t.page = 1
	t.hasNext = hasNext
	t.loadingMore = false
	t.pendingTail = nil
	count := len(t.messages)
	t.mu.Unlock()

	if err := t.bus.Publish(events.TopicMessagesLoaded,
		events.NewMessagesLoadedEvent(t.sessionId.String(), count, time.Now())); err != nil {
		t.logger.Warn("Paging", "Failed to publish page-loaded signal", map[string]interface{}{
			"session_id": t.sessionId.String(), "error": err.Error(),
		})
	}
}

// LoadOlder fetches the next older page and prepends it, then adjusts the
// viewport offset by the rendered height delta so the previously visible
// content does not jump. No-op while a load is already running or when
// there is nothing older.
func (t *Thread) LoadOlder(ctx context.Context, vp Viewport) error {
	t.mu.Lock()
	if t.loadingMore || !t.hasNext {
		t.mu.Unlock()
		return nil
	}
	t.loadingMore = true
	nextPage := t.page + 1
	t.mu.Unlock()

	// Capture the anchor before any mutation.
	oldHeight := vp.ContentHeight()
	oldOffset := vp.ScrollOffset()

	items, hasNext, err := t.fetch(ctx, t.sessionId, nextPage, t.pageSize)

	t.mu.Lock()
	if err != nil {
		t.finishLoadLocked()
		t.mu.Unlock()
		return err
	}
	older := make([]*entity.ChatMessage, 0, len(items))
	for _, m := range reverse(items) {
		// Page drift after sends can echo an already materialized id.
		if _, dup := t.seen[m.Id]; dup {
			continue
		}
		t.seen[m.Id] = struct{}{}
		older = append(older, m)
	}
	t.messages = append(older, t.messages...)
	t.page = nextPage
	t.hasNext = hasNext
	t.mu.Unlock()

	// loadingMore stays set until the anchor is restored: a concurrent
	// Append would otherwise inflate the height delta by its own rows.
	delta := vp.ContentHeight() - oldHeight
	vp.SetScrollOffset(oldOffset + delta)

	t.mu.Lock()
	t.finishLoadLocked()
	t.mu.Unlock()

	if err := t.bus.Publish(events.TopicScrollAdjust,
		events.NewScrollAdjustEvent(t.sessionId.String(), delta, time.Now())); err != nil {
		t.logger.Warn("Paging", "Failed to publish scroll-adjust signal", map[string]interface{}{
			"session_id": t.sessionId.String(), "error": err.Error(),
		})
	}
	return nil
}

// Append adds a newly sent or received message to the tail. While a
// LoadOlder is in flight it lands in pendingTail and is committed right
// after the anchor adjustment.
func (t *Thread) Append(msg *entity.ChatMessage) {
	if msg == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, dup := t.seen[msg.Id]; dup {
		return
	}
	t.seen[msg.Id] = struct{}{}
	if t.loadingMore {
		t.pendingTail = append(t.pendingTail, msg)
		return
	}
	t.messages = append(t.messages, msg)
}

// finishLoadLocked clears the load guard and commits appends that arrived
// mid-load. Caller holds t.mu.
func (t *Thread) finishLoadLocked() {
	t.loadingMore = false
	if len(t.pendingTail) > 0 {
		t.messages = append(t.messages, t.pendingTail...)
		t.pendingTail = nil
	}
}

// Messages returns a snapshot of the display-ordered list.
func (t *Thread) Messages() []*entity.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*entity.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Thread) HasMore() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hasNext
}

func (t *Thread) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

func reverse(in []*entity.ChatMessage) []*entity.ChatMessage {
	out := make([]*entity.ChatMessage, len(in))
	for i, m := range in {
		out[len(in)-1-i] = m
	}
	return out
}
