package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidTrackID = errors.New("invalid track id")

// Track is a published track row. It is written once when its release is
// published and only read afterwards.
type Track struct {
	TrackID             string `json:"trackId"`
	UploadID            int64  `json:"uploadId"`
	Order               int    `json:"order"`
	Title               string `json:"title"`
	AudioCID            string `json:"audioCid"`
	LyricsCID           string `json:"lyricsCid,omitempty"`
	NonceHex            string `json:"-"`
	TagHex              string `json:"-"`
	DurationSeconds     int64  `json:"durationSeconds"`
	PricePerMinuteCents int64  `json:"pricePerMinuteCents"`
	ArtistWallet        string `json:"artistWallet"`
}

// FormatTrackID builds the external handle "u<uploadId>-t<order>".
func FormatTrackID(uploadID int64, order int) string {
	return "u" + strconv.FormatInt(uploadID, 10) + "-t" + strconv.Itoa(order)
}

// ParseTrackID splits a handle produced by FormatTrackID.
func ParseTrackID(id string) (int64, int, error) {
	rest, ok := strings.CutPrefix(id, "u")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTrackID, id)
	}
	uploadPart, orderPart, ok := strings.Cut(rest, "-t")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTrackID, id)
	}
	uploadID, err := strconv.ParseInt(uploadPart, 10, 64)
	if err != nil || uploadID <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTrackID, id)
	}
	order, err := strconv.Atoi(orderPart)
	if err != nil || order <= 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTrackID, id)
	}
	return uploadID, order, nil
}
