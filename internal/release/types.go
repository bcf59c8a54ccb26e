package release

import "github.com/jaki95/streampay/internal/domain"

// MaxTracks bounds the number of track slots read from one upload.
const MaxTracks = 256

// File is an uploaded file held in memory.
type File struct {
	Name string
	MIME string
	Data []byte
}

type TrackInput struct {
	Title string
	// Audio is nil when no audio file was attached.
	Audio  *File
	Lyrics *File
	// DurationSeconds is a client hint; zero means unknown.
	DurationSeconds     int64
	PricePerMinuteCents int64
}

type Request struct {
	Release domain.Release
	Cover   *File
	// PricePerMinuteCents applies to tracks that do not set their own price.
	PricePerMinuteCents int64
	Tracks              []TrackInput
}

type Item struct {
	Order               int    `json:"order"`
	Title               string `json:"title"`
	AudioCID            string `json:"audioCid"`
	LyricsCID           string `json:"lyricsCid"`
	TrackID             string `json:"trackId"`
	DurationSeconds     int64  `json:"durationSeconds"`
	PricePerMinuteCents int64  `json:"pricePerMinuteCents"`
}

type Result struct {
	UploadID    int64  `json:"uploadId"`
	ManifestCID string `json:"manifestCid"`
	CoverCID    string `json:"coverCid"`
	Items       []Item `json:"items"`
}
