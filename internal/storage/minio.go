package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/crashgame/backend/internal/config"
)

// minioWriter uploads archive objects to any S3-compatible store.
type minioWriter struct {
	client *minio.Client
	bucket string
}

func newMinioWriter(cfg config.ArchiveConfig) (*minioWriter, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &minioWriter{client: client, bucket: cfg.Bucket}, nil
}

func (w *minioWriter) Put(ctx context.Context, key string, data []byte) error {
	_, err := w.client.PutObject(ctx, w.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}
