package domain

// Release modes.
const (
	ModeAlbum  = "album"
	ModeSingle = "single"
)

// Release is the artist supplied metadata of one upload.
type Release struct {
	Mode         string
	AlbumTitle   string
	Artist       string
	ArtistWallet string
	ReleaseDate  string
	Genre        string
	Label        string
	Explicit     bool
	Description  string
	CoverName    string
}

// Manifest is the public JSON description stored next to a release's audio.
type Manifest struct {
	Album  ManifestAlbum   `json:"album"`
	Tracks []ManifestTrack `json:"tracks"`
}

type ManifestAlbum struct {
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	ArtistWallet string `json:"artistWallet"`
	Type         string `json:"type"`
	Cover        string `json:"cover"`
	ReleaseDate  string `json:"releaseDate"`
	Genre        string `json:"genre"`
	Label        string `json:"label"`
	Explicit     bool   `json:"explicit"`
	Description  string `json:"description"`
}

type ManifestTrack struct {
	Order  int           `json:"order"`
	Title  string        `json:"title"`
	File   *ManifestFile `json:"file"`
	Lyrics *ManifestFile `json:"lyrics"`
}

type ManifestFile struct {
	Name string `json:"name"`
	MIME string `json:"mime"`
}
