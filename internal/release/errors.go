package release

import (
	"errors"
	"strconv"
)

var ErrNoTracks = errors.New("no tracks")

// EmptyAudioError reports a track whose audio file was attached but empty.
type EmptyAudioError struct {
	Index int
}

func (e *EmptyAudioError) Error() string {
	return "empty audio at index " + strconv.Itoa(e.Index)
}
