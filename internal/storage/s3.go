package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"blog-server/internal/config"
)

// BlobStore uploads binary objects (аватары, обложки) and returns their
// public URLs.
type BlobStore interface {
	Upload(ctx context.Context, folder, contentType string, body io.Reader) (string, error)
}

// Compile-time check
var _ BlobStore = (*s3BlobStore)(nil)

type s3BlobStore struct {
	client   *s3.Client
	bucket   string
	endpoint string
	region   string
	logger   *zap.Logger
}

// NewS3BlobStore creates a BlobStore backed by an S3-compatible bucket.
// Пустой endpoint означает стандартный AWS endpoint региона.
func NewS3BlobStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (BlobStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			// MinIO и прочие совместимые хранилища работают по path-style
			o.UsePathStyle = true
		}
	})

	return &s3BlobStore{
		client:   client,
		bucket:   cfg.S3Bucket,
		endpoint: strings.TrimSuffix(cfg.S3Endpoint, "/"),
		region:   cfg.S3Region,
		logger:   logger.Named("S3BlobStore"),
	}, nil
}

// storageKey derives a collision-free object key inside folder.
func storageKey(folder string) string {
	d := time.Now()
	return fmt.Sprintf("%s/%d/%02d/%02d/%s", folder, d.Year(), d.Month(), d.Day(), uuid.New())
}

// Upload puts the object into the bucket and returns its public URL.
func (s *s3BlobStore) Upload(ctx context.Context, folder, contentType string, body io.Reader) (string, error) {
	key := storageKey(folder)
	s.logger.Debug("Uploading object to blob store", zap.String("bucket", s.bucket), zap.String("key", key))

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.logger.Error("Failed to upload object to blob store", zap.Error(err), zap.String("key", key))
		return "", fmt.Errorf("failed to upload object %q: %w", key, err)
	}

	url := s.objectURL(key)
	s.logger.Info("Object uploaded to blob store", zap.String("key", key), zap.String("url", url))
	return url, nil
}

func (s *s3BlobStore) objectURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
