package storage

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// FrameStore uploads frame artifacts and returns durable public URLs.
// The completion capability fetches frames by URL, so objects must be
// publicly readable.
type FrameStore interface {
	Upload(ctx context.Context, localPath, objectName string) (string, error)
}

// GCSStore stores frames in a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore creates a store backed by the given bucket. When keyPath
// is empty, ambient credentials are used.
func NewGCSStore(ctx context.Context, bucket, prefix, keyPath string) (*GCSStore, error) {
	var opts []option.ClientOption
	if keyPath != "" {
		if _, err := os.Stat(keyPath); err != nil {
			return nil, fmt.Errorf("service account key not found at %s: %w", keyPath, err)
		}
		opts = append(opts, option.WithCredentialsFile(keyPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &GCSStore{client: client, bucket: bucket, prefix: prefix}, nil
}

// Upload copies a local file into the bucket and returns its public URL.
func (s *GCSStore) Upload(ctx context.Context, localPath, objectName string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	objectPath := objectName
	if s.prefix != "" {
		objectPath = s.prefix + "/" + objectName
	}

	obj := s.client.Bucket(s.bucket).Object(objectPath)
	writer := obj.NewWriter(ctx)
	writer.ContentType = "image/png"
	writer.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := io.Copy(writer, f); err != nil {
		writer.Close()
		return "", fmt.Errorf("copying %s to object %s: %w", localPath, objectPath, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing writer for %s: %w", objectPath, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectPath), nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
