package client

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemStoreRoundTrip(t *testing.T) {
	store := NewMemStore()

	_, ok := store.Get(KeyToken)
	require.False(t, ok)

	require.NoError(t, store.Set(KeyToken, "tok"))
	value, ok := store.Get(KeyToken)
	require.True(t, ok)
	require.Equal(t, "tok", value)

	require.NoError(t, store.Delete(KeyToken))
	_, ok = store.Get(KeyToken)
	require.False(t, ok)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyToken, "tok-789"))
	require.NoError(t, store.Set(KeyConversationID, "c-42"))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	token, ok := reopened.Get(KeyToken)
	require.True(t, ok)
	require.Equal(t, "tok-789", token)

	id, ok := reopened.Get(KeyConversationID)
	require.True(t, ok)
	require.Equal(t, "c-42", id)
}

func TestFileStoreDeletePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(KeyConversationID, "c-1"))
	require.NoError(t, store.Delete(KeyConversationID))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	_, ok := reopened.Get(KeyConversationID)
	require.False(t, ok)
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	_, ok := store.Get(KeyToken)
	require.False(t, ok)
}
