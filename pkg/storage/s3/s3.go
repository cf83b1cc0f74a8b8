package s3

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	internalaws "github.com/relayworks/eventserver-go/internal/aws"
	"github.com/relayworks/eventserver-go/pkg/config"
)

// Store is an ObjectStore backed by an S3-compatible service. A custom
// endpoint with path-style addressing targets MinIO and similar stores.
type Store struct {
	client *awss3.Client
	bucket string
	logger *zap.Logger
}

// NewStore builds the S3 client from configuration and verifies nothing;
// call HealthCheck to probe the bucket.
func NewStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*Store, error) {
	awsCfg, err := internalaws.LoadStorageConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS configuration")
	}

	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &Store{
		client: client,
		bucket: cfg.Bucket,
		logger: logger,
	}, nil
}

// Put writes an object under key
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return errors.Wrapf(err, "failed to store object %s", key)
	}

	s.logger.Sugar().Debugw("Stored object", "bucket", s.bucket, "key", key, "size", len(data))
	return nil
}

// Exists reports whether an object is present under key
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *s3types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, errors.Wrapf(err, "failed to check object %s", key)
	}
	return true, nil
}

// HealthCheck probes the bucket
func (s *Store) HealthCheck(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &awss3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return errors.Wrapf(err, "bucket %s is not reachable", s.bucket)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources needing release
func (s *Store) Close() error {
	return nil
}
