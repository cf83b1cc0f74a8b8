package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/relayworks/eventserver-go/pkg/apperror"
	"github.com/relayworks/eventserver-go/pkg/storage"
	"github.com/relayworks/eventserver-go/pkg/types"
	"github.com/relayworks/eventserver-go/pkg/util"
)

// Service processes verified event packages. It is stateless: every call is
// independent and touches only the object store.
type Service struct {
	store    storage.ObjectStore
	packager *ZipPackager
	logger   *zap.Logger
}

// NewService creates an event service over the given object store
func NewService(store storage.ObjectStore, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		packager: NewZipPackager(logger),
		logger:   logger,
	}
}

// hashMedia is the media subset entering the canonical hash
type hashMedia struct {
	Type types.MediaType `json:"type"`
	Size uint64          `json:"size"`
	Name string          `json:"name"`
}

// hashInput fixes the field order of the canonical hash document
type hashInput struct {
	ID          uuid.UUID               `json:"id"`
	Annotations []types.EventAnnotation `json:"annotations"`
	Media       *hashMedia              `json:"media"`
	CreatedAt   time.Time               `json:"createdAt"`
}

// EventHash computes the canonical event hash: lowercase hex SHA-256 of the
// compact JSON of {id, annotations, media:{type,size,name}|null, createdAt}
func EventHash(ep *types.EventPackage) (string, error) {
	in := hashInput{
		ID:          ep.ID,
		Annotations: ep.Annotations,
		CreatedAt:   ep.Metadata.CreatedAt,
	}
	if ep.Media != nil {
		in.Media = &hashMedia{
			Type: ep.Media.Type,
			Size: ep.Media.Size,
			Name: ep.Media.Name,
		}
	}

	data, err := json.Marshal(in)
	if err != nil {
		return "", apperror.Internal(err, "failed to serialize event for hashing")
	}
	return util.Sha256Hex(data), nil
}

// ProcessEvent validates, hashes and stores a single event as a JSON object
func (s *Service) ProcessEvent(ctx context.Context, ep *types.EventPackage, relayID string) (*types.ProcessingResult, error) {
	s.logger.Sugar().Infow("Processing event package", "event_id", ep.ID, "relay_id", relayID)

	if validation := ep.Validate(); !validation.IsValid {
		return nil, apperror.Validation(strings.Join(validation.Errors, ", "))
	}

	hash, err := EventHash(ep)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(ep)
	if err != nil {
		return nil, apperror.Internal(err, "failed to serialize event")
	}

	now := time.Now().UTC()
	key := storage.EventKey(now, hash, "json")
	if err := s.store.Put(ctx, key, data, "application/json"); err != nil {
		return nil, apperror.Storage(err, "failed to store event")
	}

	s.logger.Sugar().Infow("Event stored", "event_id", ep.ID, "hash", hash, "location", key)
	return &types.ProcessingResult{
		EventID:         ep.ID,
		Hash:            hash,
		StorageLocation: key,
		ProcessedAt:     now,
	}, nil
}

// ProcessEventPackage validates an event, packages it as a ZIP archive and
// uploads the archive
func (s *Service) ProcessEventPackage(ctx context.Context, ep *types.EventPackage, relayID string) (*types.PackageProcessingResult, error) {
	s.logger.Sugar().Infow("Packaging event", "event_id", ep.ID, "relay_id", relayID)

	if validation := ep.Validate(); !validation.IsValid {
		return nil, apperror.Validation(strings.Join(validation.Errors, ", "))
	}

	hash, err := EventHash(ep)
	if err != nil {
		return nil, err
	}

	zipData, err := s.packager.Create(ep, DefaultZipOptions())
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	key := storage.EventKey(now, hash, "zip")
	if err := s.store.Put(ctx, key, zipData, "application/zip"); err != nil {
		return nil, apperror.Storage(err, "failed to upload event package")
	}

	s.logger.Sugar().Infow("Event package uploaded",
		"event_id", ep.ID, "hash", hash, "location", key, "zip_size", len(zipData))
	return &types.PackageProcessingResult{
		Status:          "success",
		EventID:         ep.ID,
		StorageLocation: key,
		ZipSize:         len(zipData),
		ProcessedAt:     now,
	}, nil
}

// VerifyEventHash reports whether an object for the hash exists. The key
// scheme is date-partitioned, so only the current month's partitions are
// probed; the check is advisory.
func (s *Service) VerifyEventHash(ctx context.Context, hash string) (bool, error) {
	now := time.Now().UTC()
	for _, ext := range []string{"json", "zip"} {
		exists, err := s.store.Exists(ctx, storage.EventKey(now, hash, ext))
		if err != nil {
			return false, apperror.Storage(err, "failed to check event hash")
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}
