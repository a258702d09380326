package rng

import (
	"crypto/rand"
	"fmt"
	"io"
)

// CryptoRNG wraps crypto/rand for seed generation.
type CryptoRNG struct {
	reader io.Reader
}

// NewCryptoRNG creates a CryptoRNG backed by the system CSPRNG.
func NewCryptoRNG() *CryptoRNG {
	return &CryptoRNG{reader: rand.Reader}
}

// Bytes fills b with cryptographically secure random bytes.
func (r *CryptoRNG) Bytes(b []byte) error {
	if _, err := io.ReadFull(r.reader, b); err != nil {
		return fmt.Errorf("failed to read random bytes: %w", err)
	}
	return nil
}
