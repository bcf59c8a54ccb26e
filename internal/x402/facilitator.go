package x402

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Facilitator verifies and settles payment proofs. Implementations must not
// retry settle on their own.
type Facilitator interface {
	Verify(ctx context.Context, payload *PaymentPayload, reqs PaymentRequirements) (*VerifyResponse, error)
	Settle(ctx context.Context, payload *PaymentPayload, reqs PaymentRequirements) (*SettleResponse, error)
}

// FacilitatorClient talks to a facilitator over HTTP.
type FacilitatorClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewFacilitatorClient creates a client for the facilitator at baseURL.
func NewFacilitatorClient(baseURL string, timeout time.Duration) *FacilitatorClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FacilitatorClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Verify checks a proof without moving funds.
func (c *FacilitatorClient) Verify(ctx context.Context, payload *PaymentPayload, reqs PaymentRequirements) (*VerifyResponse, error) {
	var out VerifyResponse
	if err := c.post(ctx, "/verify", payload, reqs, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Settle executes the payment on chain.
func (c *FacilitatorClient) Settle(ctx context.Context, payload *PaymentPayload, reqs PaymentRequirements) (*SettleResponse, error) {
	var out SettleResponse
	if err := c.post(ctx, "/settle", payload, reqs, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *FacilitatorClient) post(ctx context.Context, path string, payload *PaymentPayload, reqs PaymentRequirements, out any) error {
	body, err := json.Marshal(RequestBody{
		X402Version:         Version,
		PaymentPayload:      payload,
		PaymentRequirements: reqs,
	})
	if err != nil {
		return fmt.Errorf("failed to encode facilitator request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("facilitator %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("facilitator %s: failed to read response: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("facilitator %s failed with status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("facilitator %s: invalid response: %w", path, err)
	}
	return nil
}

// Assert that FacilitatorClient implements the Facilitator interface
var _ Facilitator = (*FacilitatorClient)(nil)
