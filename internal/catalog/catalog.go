package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jaki95/streampay/internal/domain"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("track not found")

const schema = `
CREATE TABLE IF NOT EXISTS artists (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	wallet_address TEXT
);
CREATE TABLE IF NOT EXISTS uploads (
	id INTEGER PRIMARY KEY,
	artist_id INTEGER NOT NULL,
	album_title TEXT,
	mode TEXT,
	manifest_cid TEXT,
	cover_cid TEXT,
	dataset_id TEXT,
	created_at INTEGER,
	FOREIGN KEY (artist_id) REFERENCES artists(id)
);
CREATE TABLE IF NOT EXISTS tracks (
	id INTEGER PRIMARY KEY,
	upload_id INTEGER NOT NULL,
	order_index INTEGER,
	title TEXT,
	audio_cid TEXT,
	lyrics_cid TEXT,
	iv_hex TEXT,
	tag_hex TEXT,
	track_id TEXT,
	duration_seconds INTEGER,
	price_per_minute_cents INTEGER,
	artist_wallet TEXT,
	FOREIGN KEY (upload_id) REFERENCES uploads(id)
);
CREATE UNIQUE INDEX IF NOT EXISTS tracks_track_id ON tracks(track_id);
`

// Store is the track catalog backed by a SQL database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the catalog database. For sqlite the parent directory of dsn is
// created and the pool is limited to a single connection so that writers are
// serialized by the driver.
func Open(driver, dsn string) (*Store, error) {
	if driver == "sqlite" && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	return NewStore(db), nil
}

// NewStore wraps an already opened database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Publication is everything written to the catalog for one release.
type Publication struct {
	ArtistName   string
	ArtistWallet string
	AlbumTitle   string
	Mode         string
	ManifestCID  string
	CoverCID     string
	DatasetID    string
	// Tracks carry their order and stored content ids. TrackID and UploadID
	// are assigned on publish.
	Tracks []domain.Track
}

// PublishRelease writes the artist, upload and track rows in one transaction
// and returns the new upload id with the tracks as stored.
func (s *Store) PublishRelease(ctx context.Context, p Publication) (int64, []domain.Track, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	artistID, err := upsertArtist(ctx, tx, p.ArtistName, p.ArtistWallet)
	if err != nil {
		return 0, nil, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO uploads (artist_id, album_title, mode, manifest_cid, cover_cid, dataset_id, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		artistID, nullString(p.AlbumTitle), p.Mode, nullString(p.ManifestCID), nullString(p.CoverCID), nullString(p.DatasetID), s.now().UnixMilli(),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to insert upload: %w", err)
	}
	uploadID, err := res.LastInsertId()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read upload id: %w", err)
	}

	stored := make([]domain.Track, 0, len(p.Tracks))
	for _, t := range p.Tracks {
		t.UploadID = uploadID
		t.TrackID = domain.FormatTrackID(uploadID, t.Order)
		if err := insertTrack(ctx, tx, t); err != nil {
			return 0, nil, err
		}
		stored = append(stored, t)
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("failed to commit release: %w", err)
	}
	return uploadID, stored, nil
}

// TrackByTrackID returns ErrNotFound when no track has the given handle.
func (s *Store) TrackByTrackID(ctx context.Context, trackID string) (*domain.Track, error) {
	var (
		t                             domain.Track
		order, duration, price        sql.NullInt64
		title, audio, lyrics, iv, tag sql.NullString
		wallet                        sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT upload_id, order_index, title, audio_cid, lyrics_cid, iv_hex, tag_hex, track_id, duration_seconds, price_per_minute_cents, artist_wallet FROM tracks WHERE track_id = ?`,
		trackID,
	).Scan(&t.UploadID, &order, &title, &audio, &lyrics, &iv, &tag, &t.TrackID, &duration, &price, &wallet)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query track %s: %w", trackID, err)
	}

	t.Order = int(order.Int64)
	t.Title = title.String
	t.AudioCID = audio.String
	t.LyricsCID = lyrics.String
	t.NonceHex = iv.String
	t.TagHex = tag.String
	t.DurationSeconds = duration.Int64
	t.PricePerMinuteCents = price.Int64
	t.ArtistWallet = wallet.String
	return &t, nil
}

// upsertArtist matches an existing artist on name and wallet; an empty wallet
// is stored and matched as NULL.
func upsertArtist(ctx context.Context, tx *sql.Tx, name, wallet string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM artists WHERE name = ? AND wallet_address IS ?`,
		name, nullString(wallet),
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to look up artist: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO artists (name, wallet_address) VALUES (?, ?)`,
		name, nullString(wallet),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert artist: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read artist id: %w", err)
	}
	return id, nil
}

func insertTrack(ctx context.Context, tx *sql.Tx, t domain.Track) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO tracks (upload_id, order_index, title, audio_cid, lyrics_cid, iv_hex, tag_hex, track_id, duration_seconds, price_per_minute_cents, artist_wallet) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UploadID, t.Order, nullString(t.Title), nullString(t.AudioCID), nullString(t.LyricsCID),
		nullString(t.NonceHex), nullString(t.TagHex), t.TrackID, t.DurationSeconds, t.PricePerMinuteCents,
		nullString(t.ArtistWallet),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track %s: %w", t.TrackID, err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
