package onramp

import (
	"errors"
	"fmt"
)

var (
	ErrMissingKeys    = errors.New("missing_keys")
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidSecret  = errors.New("onramp api key secret is neither an EC PEM key nor an Ed25519 key")
)

// Upstream failure codes.
const (
	CodeTokenFailed = "token_failed"
	CodeParseError  = "parse_error"
	CodeNoToken     = "no_token"
)

// UpstreamError is a failed exchange with the token endpoint. Detail holds the
// raw upstream body.
type UpstreamError struct {
	Code   string
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("onramp %s (status %d)", e.Code, e.Status)
}
