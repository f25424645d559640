package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-analytics-client/internal/dto"
	"ai-analytics-client/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	auth   string
	body   []byte
}

func newRecordingServer(t *testing.T, status int, response interface{}) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.auth = r.Header.Get("Authorization")
		rec.body = make([]byte, r.ContentLength)
		if r.ContentLength > 0 {
			r.Body.Read(rec.body)
		}
		w.WriteHeader(status)
		if response != nil {
			json.NewEncoder(w).Encode(response)
		}
	}))
	t.Cleanup(server.Close)
	return server, rec
}

type fixedToken string

func (t fixedToken) Token() (string, error) { return string(t), nil }

func TestGetContextSendsBearerAndMapsResponse(t *testing.T) {
	workspaceId := uuid.New()
	datasetId := uuid.New()
	server, rec := newRecordingServer(t, http.StatusOK, dto.ContextSnapshotResponse{
		WorkspaceId:         workspaceId,
		LastActiveDatasetId: &datasetId,
	})

	gw := NewHTTPGateway(server.URL, 5*time.Second, fixedToken("abc123"), logger.NewNopLogger())
	snap, err := gw.GetContext(context.Background(), workspaceId)
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/v1/workspaces/"+workspaceId.String()+"/context", rec.path)
	assert.Equal(t, "Bearer abc123", rec.auth)
	assert.Equal(t, workspaceId, snap.WorkspaceId)
	require.NotNil(t, snap.LastActiveDatasetId)
	assert.Equal(t, datasetId, *snap.LastActiveDatasetId)
	assert.Nil(t, snap.LastActiveSessionId)
}

func TestGetMessagesPassesPagingParams(t *testing.T) {
	sessionId := uuid.New()
	server, rec := newRecordingServer(t, http.StatusOK, dto.ChatMessagePageResponse{
		Items: []dto.ChatMessageResponse{
			{Id: uuid.New(), ChatSessionId: sessionId, Role: "user", Chat: "hello"},
		},
		HasNext: true,
	})

	gw := NewHTTPGateway(server.URL, 5*time.Second, nil, logger.NewNopLogger())
	page, err := gw.GetMessages(context.Background(), sessionId, 3, 20)
	require.NoError(t, err)

	assert.Equal(t, "/v1/sessions/"+sessionId.String()+"/messages", rec.path)
	assert.Equal(t, "page=3&page_size=20", rec.query)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "hello", page.Items[0].Chat)
	assert.True(t, page.HasNext)
}

func TestUpdateContextStatePatchesFields(t *testing.T) {
	workspaceId := uuid.New()
	server, rec := newRecordingServer(t, http.StatusNoContent, nil)

	gw := NewHTTPGateway(server.URL, 5*time.Second, nil, logger.NewNopLogger())
	err := gw.UpdateContextState(context.Background(), workspaceId, map[string]interface{}{
		"last_active_session_id": nil,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, rec.method)
	assert.Equal(t, "/v1/workspaces/"+workspaceId.String()+"/context", rec.path)

	var req dto.UpdateContextStateRequest
	require.NoError(t, json.Unmarshal(rec.body, &req))
	v, ok := req.Fields["last_active_session_id"]
	require.True(t, ok, "an explicit nil field clear must be serialized")
	assert.Nil(t, v)
}

func TestDeleteSessionUsesDeleteVerb(t *testing.T) {
	sessionId := uuid.New()
	server, rec := newRecordingServer(t, http.StatusNoContent, nil)

	gw := NewHTTPGateway(server.URL, 5*time.Second, nil, logger.NewNopLogger())
	require.NoError(t, gw.DeleteSession(context.Background(), sessionId))

	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/v1/sessions/"+sessionId.String(), rec.path)
}

func TestNon2xxSurfacesStatusAndBodySnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"upstream down"}`))
	}))
	t.Cleanup(server.Close)

	gw := NewHTTPGateway(server.URL, 5*time.Second, nil, logger.NewNopLogger())
	_, err := gw.GetDatasources(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Contains(t, err.Error(), "upstream down")
}

func TestRequestHonorsContextCancellation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	}))
	t.Cleanup(func() { close(release); server.Close() })

	gw := NewHTTPGateway(server.URL, time.Minute, nil, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := gw.GetSessions(ctx, uuid.New())
		errc <- err
	}()

	<-started
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled request did not return")
	}
}
