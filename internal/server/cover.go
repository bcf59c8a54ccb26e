package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jaki95/streampay/internal/storage"
)

// getCover serves a stored cover image as is.
func (s *Server) getCover(c *gin.Context) {
	cid := c.Param("coverCid")
	if err := storage.ValidateCID(cid); err != nil {
		respondError(c, http.StatusBadRequest, errInvalidCoverCID, nil)
		return
	}

	data, err := s.store.Get(c.Request.Context(), cid)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(c, http.StatusNotFound, errCoverNotFound, nil)
		return
	}
	if err != nil {
		logger(c).Error("Failed to fetch cover", "coverCid", cid, "error", err)
		respondError(c, http.StatusInternalServerError, errCoverDownload, nil)
		return
	}

	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, imageContentType(data), data)
}

func imageContentType(data []byte) string {
	ct := http.DetectContentType(data)
	if strings.HasPrefix(ct, "image/") {
		return ct
	}
	return "image/png"
}
