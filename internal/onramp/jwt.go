package onramp

import (
	"crypto"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenLifetime is how long a signed request token stays valid.
const TokenLifetime = 120 * time.Second

// signer produces per-request bearer tokens for the provider API.
type signer struct {
	keyID  string
	method jwt.SigningMethod
	key    crypto.Signer
}

// newSigner accepts either a PEM encoded EC private key (ES256) or a base64
// Ed25519 key (EdDSA), the two formats the provider issues.
func newSigner(keyID, secret string) (*signer, error) {
	secret = strings.TrimSpace(strings.ReplaceAll(secret, `\n`, "\n"))

	if strings.HasPrefix(secret, "-----BEGIN") {
		key, err := jwt.ParseECPrivateKeyFromPEM([]byte(secret))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
		}
		return &signer{keyID: keyID, method: jwt.SigningMethodES256, key: key}, nil
	}

	raw, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	switch len(raw) {
	case ed25519.PrivateKeySize:
		return &signer{keyID: keyID, method: jwt.SigningMethodEdDSA, key: ed25519.PrivateKey(raw)}, nil
	case ed25519.SeedSize:
		return &signer{keyID: keyID, method: jwt.SigningMethodEdDSA, key: ed25519.NewKeyFromSeed(raw)}, nil
	default:
		return nil, fmt.Errorf("%w: decoded key is %d bytes", ErrInvalidSecret, len(raw))
	}
}

// sign returns a token bound to a single "METHOD host/path" request.
func (s *signer) sign(method, host, path string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  s.keyID,
		"iss":  "cdp",
		"nbf":  now.Unix(),
		"exp":  now.Add(TokenLifetime).Unix(),
		"uris": []string{method + " " + host + path},
	}

	token := jwt.NewWithClaims(s.method, claims)
	token.Header["kid"] = s.keyID
	token.Header["nonce"] = strings.ReplaceAll(uuid.NewString(), "-", "")

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign onramp token: %w", err)
	}
	return signed, nil
}
