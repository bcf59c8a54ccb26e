package server

import (
	"github.com/gin-gonic/gin"
)

// Error codes returned in the "error" field of JSON error bodies.
const (
	errTrackNotFound       = "track not found"
	errWalletMissing       = "artist wallet missing"
	errWalletInvalid       = "artist wallet invalid"
	errCatalogUnavailable  = "catalog lookup failed"
	errContentFetch        = "content fetch failed"
	errContentIntegrity    = "content integrity check failed"
	errInvalidForm         = "invalid multipart form"
	errUploadTooLarge      = "upload too large"
	errUploadFailed        = "upload failed"
	errInvalidCoverCID     = "invalid coverCid"
	errCoverNotFound       = "cover not found"
	errCoverDownload       = "cover download failed"
	errOnrampMissingKeys   = "missing_keys"
	errOnrampInvalidAddr   = "invalid address"
	errOnrampServerFailure = "server_error"
)

type errorResponse struct {
	Error  string `json:"error"`
	Detail any    `json:"detail,omitempty"`
}

func respondError(c *gin.Context, status int, code string, detail any) {
	c.AbortWithStatusJSON(status, errorResponse{Error: code, Detail: detail})
}
