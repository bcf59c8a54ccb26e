package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore implements ContentStore on the local filesystem. Blobs are
// fanned out into two levels of directories keyed by the id prefix.
type LocalStore struct {
	baseDir string
}

var _ ContentStore = (*LocalStore)(nil)

// NewLocalStore creates a new local store rooted at baseDir.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", baseDir, err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

func (s *LocalStore) path(cid string) string {
	return filepath.Join(s.baseDir, cid[0:2], cid[2:4], cid)
}

// Put writes to a temp file first and renames it into place so readers never
// observe a partial blob.
func (s *LocalStore) Put(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cid := CIDFor(data)
	finalPath := s.path(cid)

	if _, err := os.Stat(finalPath); err == nil {
		return cid, nil
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.baseDir, "upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		return "", fmt.Errorf("failed to move blob into place: %w", err)
	}
	return cid, nil
}

func (s *LocalStore) Get(ctx context.Context, cid string) ([]byte, error) {
	if err := ValidateCID(cid); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(cid))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", cid, err)
	}
	return data, nil
}

func (s *LocalStore) Close() error { return nil }
