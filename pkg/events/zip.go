package events

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/relayworks/eventserver-go/pkg/apperror"
	"github.com/relayworks/eventserver-go/pkg/types"
	"github.com/relayworks/eventserver-go/pkg/util"
)

// ZipOptions controls which entries the archive contains
type ZipOptions struct {
	IncludeMetadata bool
	IncludeMedia    bool
}

// DefaultZipOptions includes everything
func DefaultZipOptions() ZipOptions {
	return ZipOptions{IncludeMetadata: true, IncludeMedia: true}
}

// ZipPackager builds ZIP archives from event packages. The layout matches
// the client-side exporter: metadata.json, annotations.json, media.<ext>,
// media_metadata.json.
type ZipPackager struct {
	logger *zap.Logger
}

func NewZipPackager(logger *zap.Logger) *ZipPackager {
	return &ZipPackager{logger: logger}
}

type zipMetadata struct {
	ID              uuid.UUID         `json:"id"`
	Version         string            `json:"version"`
	CreatedAt       time.Time         `json:"createdAt"`
	CreatedBy       *string           `json:"createdBy"`
	Source          types.EventSource `json:"source"`
	AnnotationCount int               `json:"annotationCount"`
	HasMedia        bool              `json:"hasMedia"`
}

type zipMediaMetadata struct {
	OriginalName string          `json:"originalName"`
	Type         types.MediaType `json:"type"`
	Size         uint64          `json:"size"`
	LastModified string          `json:"lastModified"`
}

// Create builds the archive in memory and returns its bytes
func (p *ZipPackager) Create(ep *types.EventPackage, opts ZipOptions) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	if opts.IncludeMetadata {
		meta := zipMetadata{
			ID:              ep.ID,
			Version:         ep.Version,
			CreatedAt:       ep.Metadata.CreatedAt,
			CreatedBy:       ep.Metadata.CreatedBy,
			Source:          ep.Metadata.Source,
			AnnotationCount: len(ep.Annotations),
			HasMedia:        ep.Media != nil,
		}
		if err := writeJSONEntry(zw, "metadata.json", meta); err != nil {
			return nil, err
		}
	}

	if err := writeJSONEntry(zw, "annotations.json", ep.Annotations); err != nil {
		return nil, err
	}

	if opts.IncludeMedia && ep.Media != nil {
		// a bad media blob is logged and skipped, matching the exporter
		if err := p.addMedia(zw, ep.Media, opts.IncludeMetadata); err != nil {
			p.logger.Sugar().Warnw("Failed to add media to ZIP", "event_id", ep.ID, "error", err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, apperror.Storage(err, "failed to finalize ZIP")
	}

	p.logger.Sugar().Debugw("Created ZIP package", "event_id", ep.ID, "zip_size", buf.Len())
	return buf.Bytes(), nil
}

func (p *ZipPackager) addMedia(zw *zip.Writer, media *types.EventMedia, includeMetadata bool) error {
	data, err := DecodeMediaData(media.Data)
	if err != nil {
		return err
	}

	if err := writeEntry(zw, "media."+media.Type.Ext(), data); err != nil {
		return err
	}

	if includeMetadata {
		meta := zipMediaMetadata{
			OriginalName: media.Name,
			Type:         media.Type,
			Size:         media.Size,
			LastModified: time.UnixMilli(int64(media.LastModified)).UTC().Format(time.RFC3339),
		}
		if err := writeJSONEntry(zw, "media_metadata.json", meta); err != nil {
			return err
		}
	}

	return nil
}

// DecodeMediaData decodes base64 media, tolerating a data-URL prefix such
// as "data:image/jpeg;base64,"
func DecodeMediaData(data string) ([]byte, error) {
	if _, rest, ok := strings.Cut(data, "base64,"); ok {
		data = rest
	}
	decoded, err := util.Base64Decode(data)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, err, "failed to decode base64 media")
	}
	return decoded, nil
}

func writeJSONEntry(zw *zip.Writer, name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperror.Internal(err, "failed to serialize "+name)
	}
	return writeEntry(zw, name, data)
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	header := &zip.FileHeader{
		Name:   name,
		Method: zip.Deflate,
	}
	header.SetMode(0o644)

	w, err := zw.CreateHeader(header)
	if err != nil {
		return apperror.Storage(err, "failed to create "+name)
	}
	if _, err := w.Write(data); err != nil {
		return apperror.Storage(err, "failed to write "+name)
	}
	return nil
}
