package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore implements ContentStore on a Google Cloud Storage bucket.
type GCSStore struct {
	client       *storage.Client
	bucket       string
	objectPrefix string
}

var _ ContentStore = (*GCSStore)(nil)

// NewGCSStore creates a new GCSStore. Without a credentials file the client
// falls back to application default credentials.
func NewGCSStore(ctx context.Context, bucketName, objectPrefix, credentialsFile string) (*GCSStore, error) {
	var client *storage.Client
	var err error

	if credentialsFile != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStore{
		client:       client,
		bucket:       bucketName,
		objectPrefix: objectPrefix,
	}, nil
}

func (s *GCSStore) Put(ctx context.Context, data []byte) (string, error) {
	cid := CIDFor(data)
	obj := s.client.Bucket(s.bucket).Object(objectName(s.objectPrefix, cid))

	ctx, cancel := context.WithTimeout(ctx, time.Minute*5)
	defer cancel()

	// Identical content is already present under the same name.
	wc := obj.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	wc.ContentType = "application/octet-stream"
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return "", fmt.Errorf("failed to write object to GCS: %w", err)
	}
	if err := wc.Close(); err != nil {
		if isPreconditionFailed(err) {
			return cid, nil
		}
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return cid, nil
}

func (s *GCSStore) Get(ctx context.Context, cid string) ([]byte, error) {
	if err := ValidateCID(cid); err != nil {
		return nil, err
	}

	r, err := s.client.Bucket(s.bucket).Object(objectName(s.objectPrefix, cid)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object: %w", err)
	}
	return data, nil
}

// Close closes the GCS client
func (s *GCSStore) Close() error {
	return s.client.Close()
}
