package events

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relayworks/eventserver-go/pkg/apperror"
	"github.com/relayworks/eventserver-go/pkg/storage/memory"
	"github.com/relayworks/eventserver-go/pkg/types"
)

var hexHash = regexp.MustCompile(`^[0-9a-f]{64}$`)

func testPackage() *types.EventPackage {
	createdBy := "test_user"
	return &types.EventPackage{
		ID:      uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		Version: "1.0",
		Annotations: []types.EventAnnotation{
			{
				LabelID:   "test_label",
				Value:     types.StringValue("test_value"),
				Timestamp: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		Metadata: types.EventMetadata{
			CreatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			CreatedBy: &createdBy,
			Source:    types.EventSourceWeb,
		},
	}
}

func TestEventHash(t *testing.T) {
	ep := testPackage()

	h1, err := EventHash(ep)
	require.NoError(t, err)
	h2, err := EventHash(ep)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Regexp(t, hexHash, h1)
}

func TestEventHashChangesWithContent(t *testing.T) {
	ep := testPackage()
	base, err := EventHash(ep)
	require.NoError(t, err)

	withMedia := testPackage()
	withMedia.Media = &types.EventMedia{
		Type: types.MediaTypeJPEG,
		Data: "SGVsbG8=",
		Name: "photo.jpg",
		Size: 5,
	}
	mediaHash, err := EventHash(withMedia)
	require.NoError(t, err)
	assert.NotEqual(t, base, mediaHash)

	otherID := testPackage()
	otherID.ID = uuid.MustParse("650e8400-e29b-41d4-a716-446655440000")
	idHash, err := EventHash(otherID)
	require.NoError(t, err)
	assert.NotEqual(t, base, idHash)
}

func TestEventHashIgnoresVersion(t *testing.T) {
	// only {id, annotations, media, createdAt} enter the hash
	ep := testPackage()
	h1, err := EventHash(ep)
	require.NoError(t, err)

	ep.Version = "2.0"
	h2, err := EventHash(ep)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

func TestProcessEvent(t *testing.T) {
	store := memory.NewMemoryStore()
	svc := NewService(store, zap.NewNop())

	ep := testPackage()
	result, err := svc.ProcessEvent(context.Background(), ep, "relay-1")
	require.NoError(t, err)

	assert.Equal(t, ep.ID, result.EventID)
	assert.Regexp(t, hexHash, result.Hash)

	now := time.Now().UTC()
	wantKey := fmt.Sprintf("events/%04d/%02d/%s.json", now.Year(), int(now.Month()), result.Hash)
	assert.Equal(t, wantKey, result.StorageLocation)

	data, contentType, ok := store.Get(result.StorageLocation)
	require.True(t, ok)
	assert.Equal(t, "application/json", contentType)

	var stored types.EventPackage
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, ep.ID, stored.ID)
}

func TestProcessEventInvalidPackage(t *testing.T) {
	store := memory.NewMemoryStore()
	svc := NewService(store, zap.NewNop())

	ep := testPackage()
	ep.Version = ""
	ep.Annotations = nil

	_, err := svc.ProcessEvent(context.Background(), ep, "relay-1")
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Equal(t, 0, store.Len())
}

func TestProcessEventPackage(t *testing.T) {
	store := memory.NewMemoryStore()
	svc := NewService(store, zap.NewNop())

	ep := testPackage()
	result, err := svc.ProcessEventPackage(context.Background(), ep, "relay-1")
	require.NoError(t, err)

	assert.Equal(t, "success", result.Status)
	assert.Equal(t, ep.ID, result.EventID)
	assert.Greater(t, result.ZipSize, 0)

	data, contentType, ok := store.Get(result.StorageLocation)
	require.True(t, ok)
	assert.Equal(t, "application/zip", contentType)
	assert.Len(t, data, result.ZipSize)
}

func TestVerifyEventHash(t *testing.T) {
	store := memory.NewMemoryStore()
	svc := NewService(store, zap.NewNop())

	exists, err := svc.VerifyEventHash(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.False(t, exists)

	result, err := svc.ProcessEvent(context.Background(), testPackage(), "relay-1")
	require.NoError(t, err)

	exists, err = svc.VerifyEventHash(context.Background(), result.Hash)
	require.NoError(t, err)
	assert.True(t, exists)
}
