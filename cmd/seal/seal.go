package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"

	"github.com/jaki95/streampay/internal/crypt"
	"github.com/jaki95/streampay/internal/storage"
)

type sealed struct {
	Path     string
	CID      string
	NonceHex string
	TagHex   string
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan][1/1][reset] Sealing files..."),
	)
}

// sealFiles encrypts and stores each file with at most maxWorkers in flight.
// Results keep the order of paths. The first failure cancels the rest, and a
// cancelled ctx fails the whole batch.
func sealFiles(ctx context.Context, cipher *crypt.Cipher, store storage.ContentStore, paths []string, maxWorkers int, bar *progressbar.ProgressBar) ([]sealed, error) {
	if maxWorkers < 1 || maxWorkers > 16 {
		slog.Warn("invalid max workers, defaulting to 1", "maxWorkers", maxWorkers)
		maxWorkers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]sealed, len(paths))
	semaphore := make(chan struct{}, maxWorkers)
	errCh := make(chan error, 1)
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				return
			}

			r, err := sealFile(ctx, cipher, store, path)
			if err != nil {
				select {
				case errCh <- err:
					cancel()
				default:
				}
				return
			}
			results[i] = r
			if bar != nil {
				bar.Add(1)
			}
		}()
	}

	wg.Wait()
	close(errCh)
	if err := <-errCh; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func sealFile(ctx context.Context, cipher *crypt.Cipher, store storage.ContentStore, path string) (sealed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sealed{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return sealed{}, fmt.Errorf("refusing to seal empty file %s", path)
	}

	payload, err := cipher.Encrypt(data)
	if err != nil {
		return sealed{}, fmt.Errorf("failed to encrypt %s: %w", path, err)
	}
	cid, err := store.Put(ctx, payload.Bytes())
	if err != nil {
		return sealed{}, fmt.Errorf("failed to store %s: %w", path, err)
	}
	slog.Debug("Sealed file", "path", path, "cid", cid, "bytes", len(data))

	return sealed{Path: path, CID: cid, NonceHex: payload.NonceHex(), TagHex: payload.TagHex()}, nil
}

// openSealed fetches a stored payload and decrypts it.
func openSealed(ctx context.Context, cipher *crypt.Cipher, store storage.ContentStore, cid string) ([]byte, error) {
	data, err := store.Get(ctx, cid)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", cid, err)
	}
	plain, err := cipher.Decrypt(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt %s: %w", cid, err)
	}
	return plain, nil
}
