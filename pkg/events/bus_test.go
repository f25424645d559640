package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversEnvelopeToSubscriber(t *testing.T) {
	bus := NewBus()
	t.Cleanup(func() { bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	messages, err := bus.Subscribe(ctx, TopicSyncState)
	require.NoError(t, err)

	workspaceId := uuid.New().String()
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	require.NoError(t, bus.Publish(TopicSyncState, NewSyncStateEvent(workspaceId, "synced", now)))

	select {
	case msg := <-messages:
		msg.Ack()
		var envelope struct {
			Type       string                 `json:"type"`
			Payload    map[string]interface{} `json:"payload"`
			OccurredAt string                 `json:"occurred_at"`
		}
		require.NoError(t, json.Unmarshal(msg.Payload, &envelope))
		assert.Equal(t, "SYNC_STATE_CHANGED", envelope.Type)
		assert.Equal(t, workspaceId, envelope.Payload["workspace_id"])
		assert.Equal(t, "synced", envelope.Payload["state"])
		assert.Equal(t, now.Format(time.RFC3339Nano), envelope.OccurredAt)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the published event")
	}
}

func TestNilBusIsSafe(t *testing.T) {
	var bus *Bus
	assert.NoError(t, bus.Publish(TopicScrollAdjust, NewScrollAdjustEvent("s", 600, time.Now())))
	assert.NoError(t, bus.Close())
}
