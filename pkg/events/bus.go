package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Topics carried on the in-process signal bus. The rendering layer
// subscribes to these; the sync core only emits.
const (
	TopicSyncState      = "sync.state.changed"
	TopicMessagesLoaded = "chat.messages.page_loaded"
	TopicScrollAdjust   = "chat.scroll.adjust"
)

// Bus is a thin wrapper over watermill's in-process pub/sub. One instance
// lives for the application lifetime.
type Bus struct {
	pubSub *gochannel.GoChannel
}

func NewBus() *Bus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NopLogger{},
	)
	return &Bus{pubSub: pubSub}
}

// Publish marshals the event payload and emits it on the given topic.
// Publishing on a nil bus is a no-op so components can run bus-less in tests.
func (b *Bus) Publish(topic string, evt Event) error {
	if b == nil {
		return nil
	}
	envelope := map[string]interface{}{
		"type":        evt.EventType(),
		"payload":     evt.Payload(),
		"occurred_at": evt.Timestamp().Format(time.RFC3339Nano),
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	return b.pubSub.Publish(topic, msg)
}

// Subscribe returns a channel of raw messages for a topic.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubSub.Subscribe(ctx, topic)
}

func (b *Bus) Close() error {
	if b == nil {
		return nil
	}
	return b.pubSub.Close()
}

// NewSyncStateEvent signals a hydration outcome for a workspace.
func NewSyncStateEvent(workspaceId, state string, now time.Time) Event {
	return BaseEvent{
		Type:       "SYNC_STATE_CHANGED",
		Data:       map[string]interface{}{"workspace_id": workspaceId, "state": state},
		OccurredAt: now,
	}
}

// NewMessagesLoadedEvent signals that an initial page replaced the thread.
func NewMessagesLoadedEvent(sessionId string, count int, now time.Time) Event {
	return BaseEvent{
		Type:       "MESSAGES_PAGE_LOADED",
		Data:       map[string]interface{}{"session_id": sessionId, "count": count},
		OccurredAt: now,
	}
}

// NewScrollAdjustEvent signals the offset delta applied after a prepend.
func NewScrollAdjustEvent(sessionId string, delta float64, now time.Time) Event {
	return BaseEvent{
		Type:       "SCROLL_ADJUSTED",
		Data:       map[string]interface{}{"session_id": sessionId, "delta": delta},
		OccurredAt: now,
	}
}
