// Package crypt seals stored audio with AES-256-GCM.
//
// A sealed payload is laid out as nonce (12 bytes) || tag (16 bytes) ||
// ciphertext, where the ciphertext has the same length as the plaintext.
// One static key protects all content; rotating it makes every previously
// sealed payload unreadable.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16
	Overhead  = NonceSize + TagSize
)

var (
	ErrConfiguration    = errors.New("content key invalid")
	ErrAuthentication   = errors.New("content authentication failed")
	ErrPayloadTooShort  = errors.New("content payload too short")
	errUnexpectedLength = errors.New("unexpected sealed length")
)

// Payload is the split form of a sealed blob.
type Payload struct {
	Nonce      []byte
	Tag        []byte
	Ciphertext []byte
}

// Bytes concatenates the payload in storage order.
func (p Payload) Bytes() []byte {
	out := make([]byte, 0, len(p.Nonce)+len(p.Tag)+len(p.Ciphertext))
	out = append(out, p.Nonce...)
	out = append(out, p.Tag...)
	return append(out, p.Ciphertext...)
}

func (p Payload) NonceHex() string { return hex.EncodeToString(p.Nonce) }
func (p Payload) TagHex() string   { return hex.EncodeToString(p.Tag) }

// ParsePayload splits a stored blob without copying it.
func ParsePayload(b []byte) (Payload, error) {
	if len(b) < Overhead {
		return Payload{}, fmt.Errorf("%w: %d bytes", ErrPayloadTooShort, len(b))
	}
	return Payload{
		Nonce:      b[:NonceSize],
		Tag:        b[NonceSize:Overhead],
		Ciphertext: b[Overhead:],
	}, nil
}

// Cipher encrypts and decrypts content. It is safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
	rand io.Reader
}

// New builds a Cipher from a 64 character hex key.
func New(hexKey string) (*Cipher, error) {
	if len(hexKey) != KeySize*2 {
		return nil, fmt.Errorf("%w: want %d hex characters, got %d", ErrConfiguration, KeySize*2, len(hexKey))
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return NewFromKey(key)
}

// NewFromKey builds a Cipher from raw key bytes.
func NewFromKey(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrConfiguration, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return &Cipher{aead: aead, rand: rand.Reader}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *Cipher) Encrypt(plaintext []byte) (Payload, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return Payload{}, fmt.Errorf("failed to read nonce: %w", err)
	}

	// Seal appends the tag after the ciphertext.
	sealed := c.aead.Seal(nil, nonce, plaintext, nil)
	if len(sealed) != len(plaintext)+TagSize {
		return Payload{}, errUnexpectedLength
	}
	split := len(plaintext)
	return Payload{
		Nonce:      nonce,
		Tag:        sealed[split:],
		Ciphertext: sealed[:split],
	}, nil
}

// Decrypt verifies and opens a stored blob. Any modification of the tag or
// ciphertext, or a different key, yields ErrAuthentication.
func (c *Cipher) Decrypt(b []byte) ([]byte, error) {
	p, err := ParsePayload(b)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(p.Ciphertext)+TagSize)
	sealed = append(sealed, p.Ciphertext...)
	sealed = append(sealed, p.Tag...)

	plaintext, err := c.aead.Open(sealed[:0], p.Nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthentication
	}
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}
