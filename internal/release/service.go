package release

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/jaki95/streampay/internal/catalog"
	"github.com/jaki95/streampay/internal/crypt"
	"github.com/jaki95/streampay/internal/domain"
	"github.com/jaki95/streampay/internal/pricing"
	"github.com/jaki95/streampay/internal/storage"
)

// Publisher persists a fully stored release.
type Publisher interface {
	PublishRelease(ctx context.Context, p catalog.Publication) (int64, []domain.Track, error)
}

// Service encrypts and stores the files of a release and publishes it to the
// catalog. Nothing reaches the catalog unless every blob was stored.
type Service struct {
	cipher       *crypt.Cipher
	store        storage.ContentStore
	catalog      Publisher
	defaultPrice int64
}

// NewService builds a Service. defaultPrice is the per-minute price used for
// tracks that carry none.
func NewService(cipher *crypt.Cipher, store storage.ContentStore, catalog Publisher, defaultPrice int64) *Service {
	return &Service{
		cipher:       cipher,
		store:        store,
		catalog:      catalog,
		defaultPrice: pricing.NormalizePricePerMinute(defaultPrice),
	}
}

type storedTrack struct {
	audioCID  string
	lyricsCID string
	nonceHex  string
	tagHex    string
}

// Publish stores the cover, every track's audio and lyrics, and the manifest,
// then writes the catalog rows in one transaction.
func (s *Service) Publish(ctx context.Context, req Request) (*Result, error) {
	tracks := req.Tracks
	if req.Release.Mode == domain.ModeSingle && len(tracks) > 1 {
		tracks = tracks[:1]
	}
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}
	for i, t := range tracks {
		if t.Audio != nil && len(t.Audio.Data) == 0 {
			return nil, &EmptyAudioError{Index: i}
		}
	}

	slog.Info("Publishing release", "title", req.Release.AlbumTitle, "mode", req.Release.Mode, "trackCount", len(tracks), "hasCover", req.Cover != nil)

	var coverCID string
	if req.Cover != nil && len(req.Cover.Data) > 0 {
		cid, err := s.store.Put(ctx, req.Cover.Data)
		if err != nil {
			slog.Error("Failed to store cover", "error", err)
			return nil, fmt.Errorf("failed to store cover: %w", err)
		}
		coverCID = cid
		slog.Debug("Stored cover", "cid", coverCID, "bytes", len(req.Cover.Data))
	}

	stored := make([]storedTrack, len(tracks))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range tracks {
		g.Go(func() error {
			st, err := s.storeTrack(gctx, i, t)
			if err != nil {
				return err
			}
			stored[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("Release aborted", "title", req.Release.AlbumTitle, "error", err)
		return nil, err
	}

	manifest, err := json.Marshal(buildManifest(req, tracks))
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	manifestCID, err := s.store.Put(ctx, manifest)
	if err != nil {
		slog.Error("Failed to store manifest", "error", err)
		return nil, fmt.Errorf("failed to store manifest: %w", err)
	}

	pub := catalog.Publication{
		ArtistName:   req.Release.Artist,
		ArtistWallet: req.Release.ArtistWallet,
		AlbumTitle:   req.Release.AlbumTitle,
		Mode:         req.Release.Mode,
		ManifestCID:  manifestCID,
		CoverCID:     coverCID,
		Tracks:       make([]domain.Track, len(tracks)),
	}
	for i, t := range tracks {
		pub.Tracks[i] = domain.Track{
			Order:               i + 1,
			Title:               trackTitle(t, i),
			AudioCID:            stored[i].audioCID,
			LyricsCID:           stored[i].lyricsCID,
			NonceHex:            stored[i].nonceHex,
			TagHex:              stored[i].tagHex,
			DurationSeconds:     max(t.DurationSeconds, 0),
			PricePerMinuteCents: s.priceFor(t, req.PricePerMinuteCents),
			ArtistWallet:        req.Release.ArtistWallet,
		}
	}

	uploadID, published, err := s.catalog.PublishRelease(ctx, pub)
	if err != nil {
		slog.Error("Failed to publish release", "error", err)
		return nil, fmt.Errorf("failed to publish release: %w", err)
	}

	result := &Result{
		UploadID:    uploadID,
		ManifestCID: manifestCID,
		CoverCID:    coverCID,
		Items:       make([]Item, len(published)),
	}
	for i, t := range published {
		result.Items[i] = Item{
			Order:               t.Order,
			Title:               t.Title,
			AudioCID:            t.AudioCID,
			LyricsCID:           t.LyricsCID,
			TrackID:             t.TrackID,
			DurationSeconds:     t.DurationSeconds,
			PricePerMinuteCents: t.PricePerMinuteCents,
		}
	}

	slog.Info("Release published", "uploadId", uploadID, "manifestCid", manifestCID, "trackCount", len(published))
	return result, nil
}

// storeTrack encrypts and stores a track's audio and lyrics concurrently.
func (s *Service) storeTrack(ctx context.Context, index int, t TrackInput) (storedTrack, error) {
	var st storedTrack
	g, gctx := errgroup.WithContext(ctx)

	if t.Audio != nil {
		g.Go(func() error {
			payload, err := s.cipher.Encrypt(t.Audio.Data)
			if err != nil {
				return fmt.Errorf("failed to encrypt audio at index %d: %w", index, err)
			}
			cid, err := s.store.Put(gctx, payload.Bytes())
			if err != nil {
				return fmt.Errorf("failed to store audio at index %d: %w", index, err)
			}
			st.audioCID = cid
			st.nonceHex = payload.NonceHex()
			st.tagHex = payload.TagHex()
			slog.Debug("Stored audio", "index", index, "cid", cid, "bytes", len(t.Audio.Data))
			return nil
		})
	}

	if t.Lyrics != nil && len(t.Lyrics.Data) > 0 {
		g.Go(func() error {
			payload, err := s.cipher.Encrypt(t.Lyrics.Data)
			if err != nil {
				return fmt.Errorf("failed to encrypt lyrics at index %d: %w", index, err)
			}
			cid, err := s.store.Put(gctx, payload.Bytes())
			if err != nil {
				return fmt.Errorf("failed to store lyrics at index %d: %w", index, err)
			}
			st.lyricsCID = cid
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return storedTrack{}, err
	}
	return st, nil
}

func (s *Service) priceFor(t TrackInput, releasePrice int64) int64 {
	switch {
	case t.PricePerMinuteCents > 0:
		return t.PricePerMinuteCents
	case releasePrice > 0:
		return releasePrice
	default:
		return s.defaultPrice
	}
}

func trackTitle(t TrackInput, index int) string {
	if t.Title != "" {
		return t.Title
	}
	return "Track " + strconv.Itoa(index+1)
}

func buildManifest(req Request, tracks []TrackInput) domain.Manifest {
	r := req.Release
	title := r.AlbumTitle
	if r.Mode == domain.ModeSingle && tracks[0].Title != "" {
		title = tracks[0].Title
	}
	cover := r.CoverName
	if cover == "" && req.Cover != nil {
		cover = req.Cover.Name
	}

	m := domain.Manifest{
		Album: domain.ManifestAlbum{
			Title:        title,
			Artist:       r.Artist,
			ArtistWallet: r.ArtistWallet,
			Type:         r.Mode,
			Cover:        cover,
			ReleaseDate:  r.ReleaseDate,
			Genre:        r.Genre,
			Label:        r.Label,
			Explicit:     r.Explicit,
			Description:  r.Description,
		},
		Tracks: make([]domain.ManifestTrack, len(tracks)),
	}
	for i, t := range tracks {
		mt := domain.ManifestTrack{Order: i + 1, Title: trackTitle(t, i)}
		if t.Audio != nil {
			mt.File = &domain.ManifestFile{Name: t.Audio.Name, MIME: mimeOr(t.Audio.MIME, "audio/mpeg")}
		}
		if t.Lyrics != nil {
			mt.Lyrics = &domain.ManifestFile{Name: t.Lyrics.Name, MIME: mimeOr(t.Lyrics.MIME, "text/plain")}
		}
		m.Tracks[i] = mt
	}
	return m
}

func mimeOr(mime, fallback string) string {
	if mime == "" {
		return fallback
	}
	return mime
}
