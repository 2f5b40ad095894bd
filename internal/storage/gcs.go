package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
)

const gcsWriteTimeout = 2 * time.Minute

// GCSBackend keeps the snapshot as one object in a Cloud Storage bucket.
// It assumes Application Default Credentials are configured.
type GCSBackend struct {
	client *gcs.Client
	bucket string
	object string
}

// NewGCS creates a backend for gs://bucket/object.
func NewGCS(ctx context.Context, bucket, object string) (*GCSBackend, error) {
	if bucket == "" || object == "" {
		return nil, fmt.Errorf("NewGCS: bucket and object are required")
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCS: create storage client: %w", err)
	}
	return &GCSBackend{client: client, bucket: bucket, object: object}, nil
}

// ParseURI splits "gs://bucket/path/to/object" into bucket and object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// Close releases the storage client.
func (g *GCSBackend) Close() error {
	return g.client.Close()
}

func (g *GCSBackend) Read(ctx context.Context) ([]byte, error) {
	rc, err := g.client.Bucket(g.bucket).Object(g.object).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", g.bucket, g.object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read object bytes: %w", err)
	}
	return data, nil
}

func (g *GCSBackend) Write(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, gcsWriteTimeout)
	defer cancel()

	w := g.client.Bucket(g.bucket).Object(g.object).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s/%s: %w", g.bucket, g.object, err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}
	return nil
}
