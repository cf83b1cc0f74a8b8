package events

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/relayworks/eventserver-go/pkg/types"
)

func readZipEntries(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	entries := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		entries[f.Name] = content
	}
	return entries
}

func TestZipPackagerWithoutMedia(t *testing.T) {
	p := NewZipPackager(zap.NewNop())
	ep := testPackage()

	data, err := p.Create(ep, DefaultZipOptions())
	require.NoError(t, err)

	entries := readZipEntries(t, data)
	require.Contains(t, entries, "metadata.json")
	require.Contains(t, entries, "annotations.json")
	assert.NotContains(t, entries, "media_metadata.json")

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(entries["metadata.json"], &meta))
	assert.Equal(t, ep.ID.String(), meta["id"])
	assert.Equal(t, "1.0", meta["version"])
	assert.Equal(t, float64(1), meta["annotationCount"])
	assert.Equal(t, false, meta["hasMedia"])

	var annotations []types.EventAnnotation
	require.NoError(t, json.Unmarshal(entries["annotations.json"], &annotations))
	require.Len(t, annotations, 1)
	assert.Equal(t, "test_label", annotations[0].LabelID)
}

func TestZipPackagerWithMedia(t *testing.T) {
	p := NewZipPackager(zap.NewNop())
	ep := testPackage()
	ep.Media = &types.EventMedia{
		Type:         types.MediaTypeJPEG,
		Data:         "SGVsbG8gV29ybGQ=",
		Name:         "photo.jpg",
		Size:         11,
		LastModified: 1700000000000,
	}

	data, err := p.Create(ep, DefaultZipOptions())
	require.NoError(t, err)

	entries := readZipEntries(t, data)
	require.Contains(t, entries, "media.jpg")
	assert.Equal(t, []byte("Hello World"), entries["media.jpg"])

	require.Contains(t, entries, "media_metadata.json")
	var mediaMeta map[string]interface{}
	require.NoError(t, json.Unmarshal(entries["media_metadata.json"], &mediaMeta))
	assert.Equal(t, "photo.jpg", mediaMeta["originalName"])
	assert.Equal(t, "image/jpeg", mediaMeta["type"])
}

func TestZipPackagerSkipsBadMedia(t *testing.T) {
	p := NewZipPackager(zap.NewNop())
	ep := testPackage()
	ep.Media = &types.EventMedia{
		Type: types.MediaTypePNG,
		Data: "%%%not-base64%%%",
		Name: "broken.png",
		Size: 1,
	}

	data, err := p.Create(ep, DefaultZipOptions())
	require.NoError(t, err)

	entries := readZipEntries(t, data)
	assert.Contains(t, entries, "annotations.json")
	assert.NotContains(t, entries, "media.png")
}

func TestZipPackagerMetadataOptional(t *testing.T) {
	p := NewZipPackager(zap.NewNop())

	data, err := p.Create(testPackage(), ZipOptions{IncludeMetadata: false, IncludeMedia: true})
	require.NoError(t, err)

	entries := readZipEntries(t, data)
	assert.NotContains(t, entries, "metadata.json")
	assert.Contains(t, entries, "annotations.json")
}

func TestDecodeMediaData(t *testing.T) {
	decoded, err := DecodeMediaData("data:image/jpeg;base64,SGVsbG8gV29ybGQ=")
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello World"), decoded)

	decoded, err = DecodeMediaData("SGVsbG8gV29ybGQ=")
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello World"), decoded)

	_, err = DecodeMediaData("%%%")
	require.Error(t, err)
}
