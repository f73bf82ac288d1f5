package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinIOSink ships debug artifacts to an object store so they survive
// container restarts and can be shared.
type MinIOSink struct {
	client *miniogo.Client
	bucket string
	logger *zap.Logger
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

func NewMinIOSink(cfg MinIOConfig, logger *zap.Logger) (*MinIOSink, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOSink{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// EnsureBucket creates the artifact bucket if it does not exist.
func (s *MinIOSink) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, miniogo.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

func (s *MinIOSink) Dir(filename, operation string) string {
	short := uuid.NewString()[:8]
	stamp := time.Now().UTC().Format("20060102T150405")
	return path.Join(sanitize(filename), fmt.Sprintf("%s_%s_%s", operation, stamp, short))
}

func (s *MinIOSink) SaveImage(ctx context.Context, dir, name string, data []byte) error {
	return s.put(ctx, path.Join(dir, name), data, mimeFor(name))
}

func (s *MinIOSink) SaveJSON(ctx context.Context, dir, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact %s: %w", name, err)
	}
	return s.put(ctx, path.Join(dir, name), data, "application/json")
}

func (s *MinIOSink) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		miniogo.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("upload artifact %s: %w", key, err)
	}
	s.logger.Debug("debug artifact uploaded",
		zap.String("bucket", s.bucket),
		zap.String("key", key))
	return nil
}

func mimeFor(name string) string {
	switch {
	case strings.HasSuffix(name, ".png"):
		return "image/png"
	case strings.HasSuffix(name, ".jpg"), strings.HasSuffix(name, ".jpeg"):
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
