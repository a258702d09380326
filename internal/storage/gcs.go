package storage

import (
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/crashgame/backend/internal/config"
)

// gcsWriter uploads archive objects to a Google Cloud Storage bucket.
type gcsWriter struct {
	bucket *gcs.BucketHandle
}

func newGCSWriter(cfg config.ArchiveConfig) (*gcsWriter, error) {
	var opts []option.ClientOption
	if cfg.GCSCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCSCredentials))
	}
	client, err := gcs.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &gcsWriter{bucket: client.Bucket(cfg.Bucket)}, nil
}

func (w *gcsWriter) Put(ctx context.Context, key string, data []byte) error {
	obj := w.bucket.Object(key).NewWriter(ctx)
	obj.ContentType = "application/json"
	if _, err := obj.Write(data); err != nil {
		_ = obj.Close()
		return fmt.Errorf("failed to write object %s: %w", key, err)
	}
	if err := obj.Close(); err != nil {
		return fmt.Errorf("failed to finalize object %s: %w", key, err)
	}
	return nil
}
