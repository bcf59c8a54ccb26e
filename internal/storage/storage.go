package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jaki95/streampay/config"
)

var (
	ErrNotFound   = errors.New("content not found")
	ErrInvalidCID = errors.New("invalid content id")
)

// ContentStore persists opaque blobs and addresses them by content id.
// Storing the same bytes twice yields the same id.
type ContentStore interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, cid string) ([]byte, error)
	Close() error
}

// CIDFor returns the content id of data: the lowercase hex sha256 digest.
func CIDFor(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ValidateCID reports whether cid could have been produced by CIDFor.
func ValidateCID(cid string) error {
	if len(cid) != sha256.Size*2 {
		return fmt.Errorf("%w: %q", ErrInvalidCID, cid)
	}
	for i := 0; i < len(cid); i++ {
		c := cid[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return fmt.Errorf("%w: %q", ErrInvalidCID, cid)
		}
	}
	return nil
}

// New builds the content store selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (ContentStore, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStore(cfg.OutputDir)
	case "memory":
		return NewMemoryStore(), nil
	case "gcs":
		return NewGCSStore(ctx, cfg.Bucket, cfg.ObjectPrefix, cfg.CredentialsFile)
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:       cfg.Bucket,
			ObjectPrefix: cfg.ObjectPrefix,
			Region:       cfg.Region,
			Endpoint:     cfg.Endpoint,
			UsePathStyle: cfg.UsePathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

func objectName(prefix, cid string) string {
	if prefix == "" {
		return cid
	}
	return prefix + "/" + cid
}
