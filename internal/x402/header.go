package x402

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	// PaymentHeader carries the client's payment proof.
	PaymentHeader = "X-PAYMENT"
	// PaymentResponseHeader carries the settlement receipt on success.
	PaymentResponseHeader = "X-PAYMENT-RESPONSE"
)

// paymentHeaderNames are looked up verbatim first, for header maps built
// without canonicalisation; the first non-empty value wins.
var paymentHeaderNames = []string{"x-payment", PaymentHeader}

// PaymentHeaderValue returns the payment proof of a request, if any.
func PaymentHeaderValue(h http.Header) string {
	for _, name := range paymentHeaderNames {
		for _, v := range h[name] {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return strings.TrimSpace(h.Get(PaymentHeader))
}

// DecodePaymentHeader parses the base64 JSON encoding of a payment payload.
func DecodePaymentHeader(header string) (*PaymentPayload, error) {
	raw, err := decodeBase64(strings.TrimSpace(header))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}

	var payload PaymentPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	if payload.X402Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedProof, payload.X402Version)
	}
	if payload.Scheme == "" || payload.Network == "" {
		return nil, fmt.Errorf("%w: scheme and network are required", ErrMalformedProof)
	}
	if len(payload.Payload) == 0 || string(payload.Payload) == "null" {
		return nil, fmt.Errorf("%w: payload is required", ErrMalformedProof)
	}
	return &payload, nil
}

// EncodePaymentHeader is the inverse of DecodePaymentHeader.
func EncodePaymentHeader(p *PaymentPayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// EncodeSettleResponse renders a receipt for the PaymentResponseHeader.
func EncodeSettleResponse(r *SettleResponse) (string, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func decodeBase64(s string) ([]byte, error) {
	if raw, err := base64.StdEncoding.DecodeString(s); err == nil {
		return raw, nil
	}
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
