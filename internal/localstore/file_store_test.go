package localstore

import (
	"path/filepath"
	"testing"

	"ai-analytics-client/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selection.cache")
	store := NewFileStore(path, logger.NewNopLogger())

	_, ok := store.Get("missing")
	assert.False(t, ok)

	store.Set("k", "v")
	v, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	store.Delete("k")
	_, ok = store.Get("k")
	assert.False(t, ok)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selection.cache")

	store := NewFileStore(path, logger.NewNopLogger())
	store.Set("dataset", "d1")
	store.Set("session", "s1")
	require.NoError(t, store.Close())

	reopened := NewFileStore(path, logger.NewNopLogger())
	v, ok := reopened.Get("dataset")
	require.True(t, ok)
	assert.Equal(t, "d1", v)
	v, ok = reopened.Get("session")
	require.True(t, ok)
	assert.Equal(t, "s1", v)
}

func TestSelectionKeys(t *testing.T) {
	workspaceId := uuid.New()
	datasourceId := uuid.New()

	assert.Equal(t, "selection:workspace:"+workspaceId.String()+":dataset", DatasetKey(workspaceId))
	assert.Equal(t, "selection:datasource:"+datasourceId.String()+":session", SessionKey(datasourceId))
}
