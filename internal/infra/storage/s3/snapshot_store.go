package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"staydesk/internal/app/snapshot"
)

const defaultObjectKey = "snapshots/calendar.json"

// SnapshotStore keeps the calendar snapshot as one object in an S3-compatible bucket.
type SnapshotStore struct {
	bucket         string
	key            string
	client         *minio.Client
	logger         *slog.Logger
	bucketInitOnce sync.Once
	bucketInitErr  error
}

// NewSnapshotStore configures the store using the provided endpoint and credentials.
func NewSnapshotStore(endpoint string, useSSL bool, accessKey, secretKey, bucket, key string, logger *slog.Logger) (*SnapshotStore, error) {
	cleanEndpoint := strings.TrimSpace(endpoint)
	if cleanEndpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	if bucket = strings.TrimSpace(bucket); bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	key = strings.Trim(strings.TrimSpace(key), "/")
	if key == "" {
		key = defaultObjectKey
	}

	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(accessKey), strings.TrimSpace(secretKey), ""),
		Secure: useSSL,
	}
	minioClient, err := minio.New(parseEndpoint(cleanEndpoint), opts)
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}
	return &SnapshotStore{bucket: bucket, key: key, client: minioClient, logger: logger}, nil
}

func (s *SnapshotStore) Load(ctx context.Context) ([]byte, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.translate(err)
	}
	defer obj.Close()
	if _, err := obj.Stat(); err != nil {
		return nil, s.translate(err)
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.translate(err)
	}
	return data, nil
}

func (s *SnapshotStore) Save(ctx context.Context, data []byte) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, s.bucket, s.key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("s3: put object: %w", err)
	}
	if s.logger != nil {
		s.logger.Debug("snapshot uploaded", "bucket", s.bucket, "key", s.key, "bytes", len(data))
	}
	return nil
}

func (s *SnapshotStore) translate(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return snapshot.ErrNoSnapshot
	}
	return fmt.Errorf("s3: get object: %w", err)
}

func (s *SnapshotStore) ensureBucket(ctx context.Context) error {
	s.bucketInitOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			s.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
		}
	})
	return s.bucketInitErr
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

var _ snapshot.Store = (*SnapshotStore)(nil)
