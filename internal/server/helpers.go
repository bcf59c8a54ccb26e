package server

import (
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/jaki95/streampay/internal/domain"
	"github.com/jaki95/streampay/internal/release"
)

// resourceURL reconstructs the absolute URL the client requested.
func resourceURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// formFile reads the first file under key; nil when none was attached.
func formFile(form *multipart.Form, key string) (*release.File, error) {
	headers := form.File[key]
	if len(headers) == 0 {
		return nil, nil
	}
	fh := headers[0]

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return &release.File{
		Name: fh.Filename,
		MIME: fh.Header.Get("Content-Type"),
		Data: data,
	}, nil
}

// positiveInt parses a decimal number and floors it. Anything unparsable or
// not positive yields 0.
func positiveInt(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 || n >= math.MaxInt64 {
		return 0
	}
	return int64(math.Floor(n))
}

// parseRelease turns an upload form into a release request. Track slots are
// read in order up to release.MaxTracks and scanning stops at the first empty
// slot after the first one.
func parseRelease(form *multipart.Form) (release.Request, error) {
	mode := formValue(form, "mode")
	if mode != domain.ModeSingle {
		mode = domain.ModeAlbum
	}
	explicit := formValue(form, "explicit")

	req := release.Request{
		Release: domain.Release{
			Mode:         mode,
			AlbumTitle:   formValue(form, "albumTitle"),
			Artist:       formValue(form, "artist"),
			ArtistWallet: strings.TrimSpace(formValue(form, "artistWallet")),
			ReleaseDate:  formValue(form, "releaseDate"),
			Genre:        formValue(form, "genre"),
			Label:        formValue(form, "label"),
			Explicit:     explicit == "true" || explicit == "on",
			Description:  formValue(form, "description"),
		},
		PricePerMinuteCents: positiveInt(formValue(form, "pricePerMinuteCents")),
	}

	cover, err := formFile(form, "cover")
	if err != nil {
		return release.Request{}, err
	}
	if cover != nil {
		req.Cover = cover
		req.Release.CoverName = cover.Name
	}

	for i := 0; i < release.MaxTracks; i++ {
		key := func(field string) string { return "tracks[" + strconv.Itoa(i) + "][" + field + "]" }

		title := formValue(form, key("title"))
		audio, err := formFile(form, key("audio"))
		if err != nil {
			return release.Request{}, err
		}
		lyrics, err := formFile(form, key("lyrics"))
		if err != nil {
			return release.Request{}, err
		}

		if title == "" && audio == nil && lyrics == nil {
			if i > 0 {
				break
			}
			continue
		}

		req.Tracks = append(req.Tracks, release.TrackInput{
			Title:               title,
			Audio:               audio,
			Lyrics:              lyrics,
			DurationSeconds:     positiveInt(formValue(form, key("durationSeconds"))),
			PricePerMinuteCents: positiveInt(formValue(form, key("pricePerMinuteCents"))),
		})
	}
	return req, nil
}
