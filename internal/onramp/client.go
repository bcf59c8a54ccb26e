package onramp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jaki95/streampay/config"
)

// SessionRequest describes the wallet a session token is minted for.
type SessionRequest struct {
	Address     string
	Assets      []string
	Blockchains []string
	ClientIP    string
}

type tokenAddress struct {
	Address     string   `json:"address"`
	Blockchains []string `json:"blockchains"`
}

type tokenRequest struct {
	Addresses []tokenAddress `json:"addresses"`
	Assets    []string       `json:"assets"`
	ClientIP  string         `json:"clientIp"`
}

type tokenResponse struct {
	Token string `json:"token"`
	Data  struct {
		Token string `json:"token"`
	} `json:"data"`
}

// Client mints onramp session tokens. A Client built without API keys is
// valid but every CreateSession call fails with ErrMissingKeys.
type Client struct {
	signer     *signer
	tokenURL   *url.URL
	override   string
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(cfg config.OnrampConfig) (*Client, error) {
	tokenURL, err := url.Parse(cfg.TokenURL)
	if err != nil || tokenURL.Host == "" {
		return nil, fmt.Errorf("invalid onramp token URL %q", cfg.TokenURL)
	}

	c := &Client{
		tokenURL:   tokenURL,
		override:   cfg.ClientIPOverride,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
	if cfg.APIKeyID == "" || cfg.APIKeySecret == "" {
		return c, nil
	}

	s, err := newSigner(cfg.APIKeyID, cfg.APIKeySecret)
	if err != nil {
		return nil, err
	}
	c.signer = s
	return c, nil
}

// Configured reports whether API keys were supplied.
func (c *Client) Configured() bool {
	return c.signer != nil
}

// Override returns the configured fallback client IP.
func (c *Client) Override() string {
	return c.override
}

// CreateSession exchanges a signed request for a session token.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (string, error) {
	if c.signer == nil {
		return "", ErrMissingKeys
	}
	if req.Address == "" {
		return "", ErrInvalidAddress
	}
	if len(req.Assets) == 0 {
		req.Assets = []string{"USDC"}
	}
	if len(req.Blockchains) == 0 {
		req.Blockchains = []string{"base"}
	}

	body, err := json.Marshal(tokenRequest{
		Addresses: []tokenAddress{{Address: req.Address, Blockchains: req.Blockchains}},
		Assets:    req.Assets,
		ClientIP:  req.ClientIP,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode token request: %w", err)
	}

	bearer, err := c.signer.sign(http.MethodPost, c.tokenURL.Host, c.tokenURL.Path, c.now())
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+bearer)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("onramp token request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read onramp response: %w", err)
	}
	slog.Debug("Onramp token response", "status", resp.StatusCode, "bytes", len(data))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &UpstreamError{Code: CodeTokenFailed, Status: resp.StatusCode, Detail: string(data)}
	}

	var parsed tokenResponse
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &parsed); err != nil {
			return "", &UpstreamError{Code: CodeParseError, Status: resp.StatusCode, Detail: string(data)}
		}
	}

	token := parsed.Data.Token
	if token == "" {
		token = parsed.Token
	}
	if token == "" {
		return "", &UpstreamError{Code: CodeNoToken, Status: resp.StatusCode, Detail: string(data)}
	}
	return token, nil
}
