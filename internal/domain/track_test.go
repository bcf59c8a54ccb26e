package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTrackID(t *testing.T) {
	assert.Equal(t, "u1-t1", FormatTrackID(1, 1))
	assert.Equal(t, "u42-t12", FormatTrackID(42, 12))
}

func TestParseTrackID(t *testing.T) {
	uploadID, order, err := ParseTrackID("u42-t12")
	require.NoError(t, err)
	assert.Equal(t, int64(42), uploadID)
	assert.Equal(t, 12, order)

	for _, bad := range []string{"", "42-t1", "u-t1", "u1-t", "u1t1", "u0-t1", "u1-t0", "ux-t1", "u1-t-1"} {
		t.Run(bad, func(t *testing.T) {
			_, _, err := ParseTrackID(bad)
			assert.ErrorIs(t, err, ErrInvalidTrackID)
		})
	}
}

func TestTrackJSONOmitsCipherMaterial(t *testing.T) {
	track := &Track{
		TrackID:             "u1-t1",
		Title:               "Test Title",
		AudioCID:            "abc",
		NonceHex:            "00",
		TagHex:              "11",
		DurationSeconds:     185,
		PricePerMinuteCents: 2,
	}

	data, err := json.Marshal(track)
	assert.NoError(t, err)

	jsonStr := string(data)
	assert.Contains(t, jsonStr, `"trackId":"u1-t1"`)
	assert.Contains(t, jsonStr, `"durationSeconds":185`)
	assert.NotContains(t, jsonStr, "NonceHex")
	assert.NotContains(t, jsonStr, "TagHex")
	assert.NotContains(t, jsonStr, "lyricsCid")
}

func TestManifestNullFiles(t *testing.T) {
	manifest := Manifest{
		Album:  ManifestAlbum{Title: "Love Virus", Type: ModeAlbum},
		Tracks: []ManifestTrack{{Order: 1, Title: "Track 1"}},
	}

	data, err := json.Marshal(manifest)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"file":null`)
	assert.Contains(t, string(data), `"lyrics":null`)
}
