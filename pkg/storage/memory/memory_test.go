package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayworks/eventserver-go/pkg/storage"
)

var _ storage.ObjectStore = (*MemoryStore)(nil)

func TestPutExistsGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	exists, err := store.Exists(ctx, "events/2026/08/abc.json")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Put(ctx, "events/2026/08/abc.json", []byte(`{"a":1}`), "application/json"))

	exists, err = store.Exists(ctx, "events/2026/08/abc.json")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, store.Len())

	data, contentType, ok := store.Get("events/2026/08/abc.json")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"a":1}`), data)
	assert.Equal(t, "application/json", contentType)
}

func TestPutCopiesData(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("original")
	require.NoError(t, store.Put(ctx, "k", data, "text/plain"))
	data[0] = 'X'

	stored, _, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("original"), stored)
}

func TestClosedStoreRejectsOperations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.HealthCheck(ctx))

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	assert.Error(t, store.HealthCheck(ctx))
	assert.Error(t, store.Put(ctx, "k", nil, ""))
	_, err := store.Exists(ctx, "k")
	assert.Error(t, err)
}
