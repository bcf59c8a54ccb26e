// Package x402 implements the server side of the HTTP 402 payment flow:
// building payment requirements, decoding payment headers and gating
// access on a remote facilitator's verify and settle results.
package x402

import "encoding/json"

// Version is the protocol version carried in challenges and proofs.
const Version = 1

// Scheme is the scheme enum.
type Scheme string

const (
	SchemeExact Scheme = "exact"
)

// Extra carries the asset's EIP-712 domain. It must match what the client
// signs with, byte for byte.
type Extra struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// PaymentRequirements describes what must be paid for one resource.
type PaymentRequirements struct {
	Scheme            Scheme `json:"scheme"`
	Network           string `json:"network"`
	MaxAmountRequired string `json:"maxAmountRequired"`
	Resource          string `json:"resource"`
	Description       string `json:"description"`
	MimeType          string `json:"mimeType"`
	PayTo             string `json:"payTo"`
	MaxTimeoutSeconds int    `json:"maxTimeoutSeconds"`
	Asset             string `json:"asset"`
	Extra             Extra  `json:"extra"`
}

// PaymentRequired is the body of a 402 challenge.
type PaymentRequired struct {
	X402Version int                   `json:"x402Version"`
	Accepts     []PaymentRequirements `json:"accepts"`
	Error       string                `json:"error,omitempty"`
}

// PaymentPayload is a decoded payment header. The scheme specific payload is
// kept opaque and forwarded to the facilitator unchanged.
type PaymentPayload struct {
	X402Version int             `json:"x402Version"`
	Scheme      Scheme          `json:"scheme"`
	Network     string          `json:"network"`
	Payload     json.RawMessage `json:"payload"`
}

// RequestBody is the body posted to the facilitator's verify and settle
// endpoints.
type RequestBody struct {
	X402Version         int                 `json:"x402Version"`
	PaymentPayload      *PaymentPayload     `json:"paymentPayload"`
	PaymentRequirements PaymentRequirements `json:"paymentRequirements"`
}

// VerifyResponse is the response of the verify operation.
type VerifyResponse struct {
	IsValid       bool   `json:"isValid"`
	InvalidReason string `json:"invalidReason,omitempty"`
	Payer         string `json:"payer,omitempty"`
}

// SettleResponse is the response of the settle operation.
type SettleResponse struct {
	Success     bool   `json:"success"`
	ErrorReason string `json:"errorReason,omitempty"`
	Transaction string `json:"transaction,omitempty"`
	Network     string `json:"network,omitempty"`
	Payer       string `json:"payer,omitempty"`
}
