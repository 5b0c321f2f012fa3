// Package sealer encrypts short secrets (refresh tokens) before they are written to shared storage.
package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyIterations = 100000
	keyLength     = 32
)

var keySalt = []byte("storefront-auth-session-sealer")

// ErrCiphertext is returned when a sealed value cannot be opened
var ErrCiphertext = errors.New("sealed value is corrupt or was sealed with another key")

// Sealer seals values with AES-256-GCM under a key derived from a passphrase.
type Sealer struct {
	aead   cipher.AEAD
	random io.Reader
}

// New derives the sealing key from passphrase
func New(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, errors.New("sealing passphrase cannot be empty")
	}

	key := pbkdf2.Key([]byte(passphrase), keySalt, keyIterations, keyLength, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("[sealer New] failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("[sealer New] failed to create GCM: %w", err)
	}
	return &Sealer{aead: aead, random: rand.Reader}, nil
}

// Seal encrypts plaintext. The empty string seals to the empty string.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(s.random, nonce); err != nil {
		return "", fmt.Errorf("[sealer Seal] failed to generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal
func (s *Sealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}

	data, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrCiphertext
	}
	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return "", ErrCiphertext
	}

	plaintext, err := s.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", ErrCiphertext
	}
	return string(plaintext), nil
}
