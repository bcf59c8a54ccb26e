package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaki95/streampay/internal/onramp"
	"github.com/jaki95/streampay/internal/release"
)

// multipartMemory is how much of a form is buffered in memory before parts
// spill to temp files.
const multipartMemory = 32 << 20

// uploadRelease handles POST /upload.
func (s *Server) uploadRelease(c *gin.Context) {
	log := logger(c)
	if limit := s.cfg.Server.MaxUploadBytes; limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.metrics.Upload("too_large", 0)
			respondError(c, http.StatusRequestEntityTooLarge, errUploadTooLarge, nil)
			return
		}
		s.metrics.Upload("bad_request", 0)
		respondError(c, http.StatusBadRequest, errInvalidForm, err.Error())
		return
	}
	defer c.Request.MultipartForm.RemoveAll()

	req, err := parseRelease(c.Request.MultipartForm)
	if err != nil {
		log.Error("Failed to read upload form", "error", err)
		s.metrics.Upload("bad_request", 0)
		respondError(c, http.StatusBadRequest, errInvalidForm, err.Error())
		return
	}

	result, err := s.releases.Publish(c.Request.Context(), req)
	if err != nil {
		var emptyAudio *release.EmptyAudioError
		switch {
		case errors.Is(err, release.ErrNoTracks):
			s.metrics.Upload("bad_request", 0)
			respondError(c, http.StatusBadRequest, release.ErrNoTracks.Error(), nil)
		case errors.As(err, &emptyAudio):
			s.metrics.Upload("bad_request", 0)
			respondError(c, http.StatusBadRequest, emptyAudio.Error(), nil)
		default:
			log.Error("Upload failed", "error", err)
			s.metrics.Upload("error", 0)
			respondError(c, http.StatusInternalServerError, errUploadFailed, nil)
		}
		return
	}

	s.metrics.Upload("ok", len(result.Items))
	c.JSON(http.StatusOK, result)
}

// createOnrampSession handles POST /onramp-session.
func (s *Server) createOnrampSession(c *gin.Context) {
	log := logger(c)

	if s.onramp == nil || !s.onramp.Configured() {
		log.Error("Onramp keys are not configured")
		s.metrics.OnrampSession(errOnrampMissingKeys)
		respondError(c, http.StatusInternalServerError, errOnrampMissingKeys, nil)
		return
	}

	var body OnrampSessionRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.Address == "" {
		s.metrics.OnrampSession("invalid_address")
		respondError(c, http.StatusBadRequest, errOnrampInvalidAddr, nil)
		return
	}

	clientIP := onramp.ClientIP(
		body.ClientIP,
		c.GetHeader("X-Forwarded-For"),
		c.GetHeader("CF-Connecting-IP"),
		s.onramp.Override(),
	)

	token, err := s.onramp.CreateSession(c.Request.Context(), onramp.SessionRequest{
		Address:     body.Address,
		Assets:      body.Assets,
		Blockchains: body.Blockchains,
		ClientIP:    clientIP,
	})
	if err != nil {
		var upstream *onramp.UpstreamError
		switch {
		case errors.As(err, &upstream):
			log.Warn("Onramp token request failed", "code", upstream.Code, "status", upstream.Status)
			s.metrics.OnrampSession(upstream.Code)
			respondError(c, http.StatusBadGateway, upstream.Code, upstream.Detail)
		case errors.Is(err, onramp.ErrInvalidAddress):
			s.metrics.OnrampSession("invalid_address")
			respondError(c, http.StatusBadRequest, errOnrampInvalidAddr, nil)
		case errors.Is(err, onramp.ErrMissingKeys):
			s.metrics.OnrampSession(errOnrampMissingKeys)
			respondError(c, http.StatusInternalServerError, errOnrampMissingKeys, nil)
		default:
			log.Error("Onramp session failed", "error", err)
			s.metrics.OnrampSession(errOnrampServerFailure)
			respondError(c, http.StatusInternalServerError, errOnrampServerFailure, nil)
		}
		return
	}

	s.metrics.OnrampSession("ok")
	c.JSON(http.StatusOK, OnrampSessionResponse{Token: token})
}
